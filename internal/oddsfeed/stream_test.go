package oddsfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/config"
	"github.com/expert-sys/positive-edge/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func testFeedConfig(host string) *config.OddsFeedConfig {
	return &config.OddsFeedConfig{
		StreamURL:        host,
		APIKey:           "test-key",
		ConflateMs:       250,
		ReconnectRetries: 2,
		ReconnectBackoff: 1.5,
	}
}

// dialDirect bypasses the wss:// scheme used in production so the client can
// hit an httptest server.
func dialDirect(t *testing.T, s *StreamClient, serverURL string) {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	s.mu.Lock()
	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()
	s.mu.Unlock()

	go s.readMessages()
}

func TestStreamClient_DispatchesUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		msg := StreamMessage{
			Op: "update",
			Updates: []LineUpdate{
				{
					GameID:     "g1",
					MarketType: "player_prop",
					PlayerID:   "p1",
					Stat:       "points",
					Selection:  "over",
					Line:       28.5,
					Odds:       "1.87",
					Timestamp:  time.Now().UnixMilli(),
				},
			},
		}
		require.NoError(t, conn.WriteJSON(msg))

		// Keep the connection open until the client disconnects.
		conn.ReadMessage()
	}))
	defer server.Close()

	client := NewStreamClient(testFeedConfig("unused"), logger.NewSilentLogger())

	var mu sync.Mutex
	var received []LineUpdate
	client.AddHandler(func(update LineUpdate) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, update)
		return nil
	})

	dialDirect(t, client, server.URL)
	defer client.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "g1", received[0].GameID)
	assert.Equal(t, "player_prop", received[0].MarketType)
	assert.Equal(t, "1.87", received[0].Odds)
	assert.Equal(t, 28.5, received[0].Line)
}

func TestStreamClient_HeartbeatIsNotDispatched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(StreamMessage{Op: "hb", Heartbeat: true}))
		require.NoError(t, conn.WriteJSON(StreamMessage{
			Op:      "update",
			Updates: []LineUpdate{{GameID: "g2", MarketType: "totals", Selection: "under", Line: 224.5, Odds: "1.91"}},
		}))
		conn.ReadMessage()
	}))
	defer server.Close()

	client := NewStreamClient(testFeedConfig("unused"), logger.NewSilentLogger())

	var mu sync.Mutex
	var count int
	client.AddHandler(func(update LineUpdate) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	})

	dialDirect(t, client, server.URL)
	defer client.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamClient_HeartbeatPingsOnInterval(t *testing.T) {
	var mu sync.Mutex
	var pings int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			var msg map[string]interface{}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg["op"] == "ping" {
				mu.Lock()
				pings++
				mu.Unlock()
			}
		}
	}))
	defer server.Close()

	client := NewStreamClient(testFeedConfig("unused"), logger.NewSilentLogger())
	dialDirect(t, client, server.URL)
	defer client.Close()

	go client.heartbeatLoop(20 * time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return pings >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamClient_HeartbeatIntervalFromConfig(t *testing.T) {
	cfg := testFeedConfig("unused")
	cfg.HeartbeatInterval = 5
	client := NewStreamClient(cfg, logger.NewSilentLogger())
	assert.Equal(t, 5*time.Second, client.heartbeatInterval)

	// Unset falls back to the provider's documented default.
	client = NewStreamClient(testFeedConfig("unused"), logger.NewSilentLogger())
	assert.Equal(t, 30*time.Second, client.heartbeatInterval)
}

func TestStreamClient_DisconnectClearsState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conn.Close()
	}))
	defer server.Close()

	client := NewStreamClient(testFeedConfig("unused"), logger.NewSilentLogger())
	dialDirect(t, client, server.URL)

	require.Eventually(t, func() bool {
		return !client.IsConnected()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamClient_SendWithoutConnection(t *testing.T) {
	client := NewStreamClient(testFeedConfig("unused"), logger.NewSilentLogger())

	err := client.Authenticate(context.Background())
	assert.Error(t, err)

	err = client.Subscribe(context.Background(), []string{"g1"}, []string{"player_prop"})
	assert.Error(t, err)
}

func TestReconnectConfigFromSettings(t *testing.T) {
	cfg := testFeedConfig("unused")
	rc := ReconnectConfigFromSettings(cfg)
	assert.Equal(t, 2, rc.MaxRetries)
	assert.Equal(t, 1.5, rc.BackoffMultiplier)
	assert.Equal(t, time.Second, rc.InitialBackoff)

	rc = ReconnectConfigFromSettings(&config.OddsFeedConfig{})
	assert.Equal(t, DefaultReconnectConfig(), rc)
}

func TestDecodeUpdate(t *testing.T) {
	msg, err := DecodeUpdate([]byte(`{"op":"update","updates":[{"gameId":"g1","marketType":"team_sides","selection":"home","odds":"2.10"}]}`))
	require.NoError(t, err)
	require.Len(t, msg.Updates, 1)
	assert.Equal(t, "team_sides", msg.Updates[0].MarketType)

	_, err = DecodeUpdate([]byte(`{not json`))
	assert.Error(t, err)
}
