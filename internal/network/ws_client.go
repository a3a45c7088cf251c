// Package network contains the client side of the click notification stream.
package network

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"colorpick/internal/input"
	"colorpick/internal/protocol"
)

const defaultRetryDelay = 5 * time.Second

// StreamClient follows the /ws click stream of a running colorpick service
// and reconnects when the connection drops.
type StreamClient struct {
	addr       string
	token      string
	retryDelay time.Duration

	// Callbacks
	OnClick      func(n input.ClickNotification)
	OnWatchState func(running bool)

	mu          sync.Mutex
	conn        *websocket.Conn
	isConnected bool
	done        chan struct{}
	closeOnce   sync.Once
}

// NewStreamClient creates a client for the service at addr (host:port).
func NewStreamClient(addr, token string) *StreamClient {
	return &StreamClient{
		addr:       addr,
		token:      token,
		retryDelay: defaultRetryDelay,
		done:       make(chan struct{}),
	}
}

// Run connects and processes messages until Close is called.
func (c *StreamClient) Run() {
	for {
		c.connect()

		select {
		case <-c.done:
			return
		case <-time.After(c.retryDelay):
			slog.Info("Stream: attempting reconnection", "addr", c.addr)
		}
	}
}

func (c *StreamClient) connect() {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: "/ws"}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	slog.Info("Stream: connecting", "url", u.String())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		slog.Warn("Stream: connection failed", "err", err)
		return
	}

	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		conn.Close()
		return
	default:
	}
	c.conn = conn
	c.isConnected = true
	c.mu.Unlock()

	slog.Info("Stream: connected", "addr", c.addr)
	c.readPump(conn)

	c.mu.Lock()
	c.isConnected = false
	c.conn = nil
	c.mu.Unlock()
	conn.Close()
}

func (c *StreamClient) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Stream: read error", "err", err)
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("Stream: invalid message", "err", err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *StreamClient) handleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeMouseClick:
		var n input.ClickNotification
		if err := msg.Decode(&n); err != nil {
			slog.Warn("Stream: bad click payload", "err", err)
			return
		}
		if c.OnClick != nil {
			c.OnClick(n)
		}

	case protocol.TypeWatchState:
		var state protocol.WatchStatePayload
		if err := msg.Decode(&state); err != nil {
			slog.Warn("Stream: bad watch state payload", "err", err)
			return
		}
		if c.OnWatchState != nil {
			c.OnWatchState(state.Running)
		}

	default:
		slog.Debug("Stream: ignoring message", "type", msg.Type)
	}
}

// IsConnected returns true while a stream connection is open
func (c *StreamClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

// Close stops the client and drops the current connection.
func (c *StreamClient) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
}
