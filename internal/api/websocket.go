package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"colorpick/internal/input"
	"colorpick/internal/protocol"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = 50 * time.Second
	clientSendQueue = 64
	broadcastQueue  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API listens on loopback by default and is token protected otherwise.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans click notifications out to every connected stream client. It is
// the watcher's Sink.
type Hub struct {
	clients    map[*streamClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan []byte
	register   chan *streamClient
	unregister chan *streamClient
	done       chan struct{}
	closeOnce  sync.Once
}

type streamClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	ip   string
}

var _ input.Sink = (*Hub)(nil)

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*streamClient]bool),
		broadcast:  make(chan []byte, broadcastQueue),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		done:       make(chan struct{}),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.clientsMu.Unlock()
			slog.Info("WS: client connected", "remote", client.ip, "clients", count)

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
				slog.Info("WS: client disconnected", "remote", client.ip, "clients", len(h.clients))
			}
			h.clientsMu.Unlock()

		case data := <-h.broadcast:
			h.fanOut(data)

		case <-h.done:
			h.clientsMu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMu.Unlock()
			return
		}
	}
}

// fanOut drops clients whose send queue is full rather than waiting on them.
func (h *Hub) fanOut(data []byte) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			slog.Warn("WS: client too slow, disconnecting", "remote", client.ip)
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// Notify encodes a click as a mouse-click message and queues it for all
// clients. It never blocks; when the queue is full the click is dropped.
func (h *Hub) Notify(n input.ClickNotification) {
	msg, err := protocol.NewMessage(protocol.TypeMouseClick, n)
	if err != nil {
		slog.Warn("WS: failed to encode click", "err", err)
		return
	}
	h.Broadcast(msg)
}

// Broadcast queues msg for all clients without blocking.
func (h *Hub) Broadcast(msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("WS: failed to marshal broadcast message", "type", msg.Type, "err", err)
		return
	}
	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
		slog.Debug("WS: broadcast queue full, dropping message", "type", msg.Type)
	}
}

// ClientCount returns the number of connected stream clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WS: failed to upgrade connection", "err", err)
		return
	}

	client := &streamClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientSendQueue),
		ip:   r.RemoteAddr,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound frames; it exists to process pongs and notice
// disconnects.
func (c *streamClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("WS: read error", "remote", c.ip, "err", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
