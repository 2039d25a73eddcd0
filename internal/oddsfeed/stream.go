// Package oddsfeed maintains the websocket connection to the odds provider's
// push stream and fans line updates out to registered handlers.
package oddsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/metrics"
)

// StreamClient handles the WebSocket connection to the odds stream
type StreamClient struct {
	conn              *websocket.Conn
	apiKey            string
	baseURL           string
	conflateMs        int
	heartbeatInterval time.Duration
	mu                sync.RWMutex
	isConnected       bool
	handlers          []UpdateHandler
	reconnectConfig   ReconnectConfig
	lastMessageTime   time.Time
	logger            *logrus.Logger
}

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// UpdateHandler is called for every line update received from the stream
type UpdateHandler func(update LineUpdate) error

// StreamMessage represents a raw message from the odds stream
type StreamMessage struct {
	Op        string       `json:"op"`
	ID        int          `json:"id,omitempty"`
	Status    int          `json:"status,omitempty"`
	Heartbeat bool         `json:"heartbeat,omitempty"`
	Updates   []LineUpdate `json:"updates,omitempty"`
}

// LineUpdate represents one market line move
type LineUpdate struct {
	GameID     string  `json:"gameId"`
	MarketType string  `json:"marketType"`
	PlayerID   string  `json:"playerId,omitempty"`
	Stat       string  `json:"stat,omitempty"`
	Selection  string  `json:"selection"`
	Line       float64 `json:"line"`
	Odds       string  `json:"odds"` // decimal string
	Suspended  bool    `json:"suspended"`
	Timestamp  int64   `json:"ts"`
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// ReconnectConfigFromSettings builds reconnect behavior from configuration
func ReconnectConfigFromSettings(cfg *config.OddsFeedConfig) ReconnectConfig {
	rc := DefaultReconnectConfig()
	if cfg.ReconnectRetries > 0 {
		rc.MaxRetries = cfg.ReconnectRetries
	}
	if cfg.ReconnectBackoff > 1 {
		rc.BackoffMultiplier = cfg.ReconnectBackoff
	}
	return rc
}

// NewStreamClient creates a new stream client
func NewStreamClient(cfg *config.OddsFeedConfig, logger *logrus.Logger) *StreamClient {
	if logger == nil {
		logger = logrus.New()
	}

	heartbeat := time.Duration(cfg.HeartbeatInterval) * time.Second
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}

	return &StreamClient{
		apiKey:            cfg.APIKey,
		baseURL:           cfg.StreamURL,
		conflateMs:        cfg.ConflateMs,
		heartbeatInterval: heartbeat,
		handlers:          make([]UpdateHandler, 0),
		reconnectConfig:   ReconnectConfigFromSettings(cfg),
		logger:            logger,
	}
}

// Connect establishes the websocket connection and starts the read loop
func (s *StreamClient) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	wsURL := fmt.Sprintf("wss://%s/stream", s.baseURL)

	s.logger.WithField("url", wsURL).Info("Connecting to odds stream")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to odds stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()
	metrics.OddsStreamConnected.Set(1)

	go s.readMessages()
	go s.heartbeatLoop(s.heartbeatInterval)

	return nil
}

// Authenticate sends the authentication message
func (s *StreamClient) Authenticate(ctx context.Context) error {
	s.mu.RLock()
	if !s.isConnected || s.conn == nil {
		s.mu.RUnlock()
		return fmt.Errorf("not connected to odds stream")
	}
	s.mu.RUnlock()

	authMsg := map[string]interface{}{
		"op":     "auth",
		"apiKey": s.apiKey,
	}

	return s.sendMessage(authMsg)
}

// Subscribe subscribes to line updates for the given games
func (s *StreamClient) Subscribe(ctx context.Context, gameIDs []string, marketTypes []string) error {
	s.mu.RLock()
	if !s.isConnected || s.conn == nil {
		s.mu.RUnlock()
		return fmt.Errorf("not connected to odds stream")
	}
	s.mu.RUnlock()

	subMsg := map[string]interface{}{
		"op":          "subscribe",
		"apiKey":      s.apiKey,
		"gameIds":     gameIDs,
		"marketTypes": marketTypes,
		"conflateMs":  s.conflateMs,
		"heartbeat":   true,
	}

	s.logger.WithFields(logrus.Fields{
		"games":   len(gameIDs),
		"markets": marketTypes,
	}).Info("Subscribing to odds stream")
	return s.sendMessage(subMsg)
}

// AddHandler registers an update handler
func (s *StreamClient) AddHandler(handler UpdateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Run connects with exponential backoff and keeps the stream alive until the
// context is cancelled. Returns once retries are exhausted.
func (s *StreamClient) Run(ctx context.Context, gameIDs []string, marketTypes []string) error {
	backoff := s.reconnectConfig.InitialBackoff

	for attempt := 0; attempt <= s.reconnectConfig.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := s.connectAndSubscribe(ctx, gameIDs, marketTypes)
		if err == nil {
			attempt = 0
			backoff = s.reconnectConfig.InitialBackoff

			// Block until the connection drops or the context ends
			s.waitForDisconnect(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		} else {
			s.logger.WithError(err).WithField("attempt", attempt).Warn("Odds stream connection failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * s.reconnectConfig.BackoffMultiplier)
		if backoff > s.reconnectConfig.MaxBackoff {
			backoff = s.reconnectConfig.MaxBackoff
		}
	}

	return fmt.Errorf("odds stream reconnect retries exhausted")
}

func (s *StreamClient) connectAndSubscribe(ctx context.Context, gameIDs []string, marketTypes []string) error {
	if err := s.Connect(ctx); err != nil {
		return err
	}
	if err := s.Authenticate(ctx); err != nil {
		s.Close()
		return err
	}
	if err := s.Subscribe(ctx, gameIDs, marketTypes); err != nil {
		s.Close()
		return err
	}
	return nil
}

func (s *StreamClient) waitForDisconnect(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-ticker.C:
			if !s.IsConnected() {
				return
			}
		}
	}
}

// readMessages reads messages from the websocket connection
func (s *StreamClient) readMessages() {
	defer s.Close()

	for {
		var msg StreamMessage
		err := s.conn.ReadJSON(&msg)
		if err != nil {
			s.logger.WithError(err).Warn("Odds stream read error")
			s.mu.Lock()
			s.isConnected = false
			s.mu.Unlock()
			metrics.OddsStreamConnected.Set(0)
			return
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		if msg.Heartbeat {
			continue
		}

		s.mu.RLock()
		handlers := s.handlers
		s.mu.RUnlock()

		for _, update := range msg.Updates {
			metrics.OddsUpdatesTotal.Inc()
			for _, handler := range handlers {
				if err := handler(update); err != nil {
					s.logger.WithError(err).WithFields(logrus.Fields{
						"game_id": update.GameID,
						"market":  update.MarketType,
					}).Warn("Odds update handler error")
				}
			}
		}
	}
}

// sendMessage sends a JSON message to the stream
func (s *StreamClient) sendMessage(msg interface{}) error {
	s.mu.RLock()
	if !s.isConnected || s.conn == nil {
		s.mu.RUnlock()
		return fmt.Errorf("not connected")
	}
	conn := s.conn
	s.mu.RUnlock()

	return conn.WriteJSON(msg)
}

// IsConnected returns whether the stream is connected
func (s *StreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received message
func (s *StreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close closes the stream connection
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.isConnected = false
	metrics.OddsStreamConnected.Set(0)
	return s.conn.Close()
}

// Ping sends a ping message to keep the connection alive
func (s *StreamClient) Ping() error {
	return s.sendMessage(map[string]interface{}{
		"op": "ping",
	})
}

// heartbeatLoop pings on the configured interval so the provider keeps an
// idle subscription open. It exits once the connection drops; each successful
// Connect starts a fresh loop.
func (s *StreamClient) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if !s.IsConnected() {
			return
		}
		if err := s.Ping(); err != nil {
			s.logger.WithError(err).Warn("Odds stream ping failed")
			return
		}
	}
}

// DecodeUpdate parses a raw stream payload into a StreamMessage.
func DecodeUpdate(data []byte) (*StreamMessage, error) {
	var msg StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode stream message: %w", err)
	}
	return &msg, nil
}
