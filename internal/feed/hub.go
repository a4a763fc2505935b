// Package feed is the read-only presentation feed: a websocket hub that
// pushes session snapshots and notices to connected clients, and a plain
// JSON endpoint for the latest snapshot.
package feed

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/edc/internal/session"
	"github.com/roach88/edc/internal/state"
)

// Message types.
const (
	TypeSnapshot = "snapshot"
	TypeNotice   = "notice"
)

// Message is the JSON envelope of every websocket frame.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	sendBuffer = 64
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// client is one websocket connection.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to every connected client.
//
// Publish never blocks: a client whose buffer is full is dropped and must
// reconnect, at which point it gets a fresh snapshot.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	log     *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default().With("component", "feed")
	}
	return &Hub{clients: make(map[*client]struct{}), log: log}
}

// Notice publishes a notice. Matches session.OnNotice.
func (h *Hub) Notice(n session.Notice) {
	h.Publish(TypeNotice, n)
}

// Snapshot publishes a snapshot. Matches session.OnSnapshot.
func (h *Hub) Snapshot(s *state.Session) {
	h.Publish(TypeSnapshot, s)
}

// Publish encodes one message and queues it for every client.
func (h *Hub) Publish(typ string, payload any) {
	b, err := encode(typ, payload)
	if err != nil {
		h.log.Error("encode feed message", "type", typ, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.log.Warn("feed client too slow; dropping", "remote", c.conn.RemoteAddr().String())
			h.removeLocked(c)
		}
	}
}

func encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: typ, Payload: payload})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// add registers c with first as its first frame. Returns false once the
// hub is closed.
func (h *Hub) add(c *client, first []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.send <- first
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// writePump moves queued frames to the socket and keeps it alive.
// It owns all writes to conn.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client input and detects disconnects.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("feed client error", "error", err)
			}
			return
		}
	}
}
