package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ClientConfig tunes the outbound HTTP behavior for one upstream. Sports data
// providers throttle hard, so the defaults stay well under typical quotas.
type ClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerThreshold  int // consecutive failures before the breaker opens
}

// DefaultClientConfig returns the baseline tuning for a stats or odds API.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:           15 * time.Second,
		MaxRetries:        4,
		RetryWaitMin:      250 * time.Millisecond,
		RetryWaitMax:      8 * time.Second,
		RequestsPerSecond: 4.0,
		Burst:             2,
		BreakerThreshold:  5,
	}
}

// ThrottledClient executes requests under a token-bucket rate limit with
// retries on transient failures and a consecutive-failure circuit breaker.
type ThrottledClient struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *logrus.Logger

	mu               sync.Mutex
	breakerThreshold int
	failureStreak    int
	open             bool
	lastError        error
}

// NewThrottledClient creates a throttled HTTP client.
func NewThrottledClient(cfg ClientConfig, logger *logrus.Logger) *ThrottledClient {
	if logger == nil {
		logger = logrus.New()
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = transientRetryPolicy
	// Retry chatter is suppressed; the breaker logs when a source goes bad.
	retryClient.Logger = nil

	return &ThrottledClient{
		client:           retryClient,
		limiter:          rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		logger:           logger,
		breakerThreshold: cfg.BreakerThreshold,
	}
}

// Do executes an HTTP request once the rate limiter admits it. An open
// breaker fails fast with the error that opened it.
func (c *ThrottledClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	if c.open {
		lastErr := c.lastError
		c.mu.Unlock()
		return nil, fmt.Errorf("circuit breaker open: %v", lastErr)
	}
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("wrap request: %w", err)
	}

	resp, err := c.client.Do(retryReq.WithContext(ctx))
	if err != nil {
		c.recordFailure(req, err)
		return nil, err
	}

	if resp.StatusCode < 500 {
		c.recordSuccess()
	}

	return resp, nil
}

func (c *ThrottledClient) recordFailure(req *http.Request, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureStreak++
	c.lastError = err
	if c.failureStreak >= c.breakerThreshold && !c.open {
		c.open = true
		c.logger.WithError(err).WithFields(logrus.Fields{
			"host":     req.URL.Host,
			"failures": c.failureStreak,
		}).Warn("HTTP circuit breaker opened")
	}
}

func (c *ThrottledClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		c.logger.Info("HTTP circuit breaker closed")
	}
	c.failureStreak = 0
	c.open = false
}

// Close releases idle connections held by the client.
func (c *ThrottledClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// transientRetryPolicy retries network errors, throttling responses, and
// retryable server errors. Client errors other than 429 never retry.
func transientRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, err
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true, nil
	}

	return false, nil
}
