package sockets

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrClosed       = errors.New("closed connection")
	ErrSlowConsumer = errors.New("send buffer full")
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Hub accepts websocket connections and fans messages out to all of them.
// Clients are not expected to send anything beyond control frames.
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	sendBuffer   int
	onConnected  func(*Conn)
	logger       *zap.Logger

	// broadcastMu orders a new connection's greeting before any broadcast.
	broadcastMu sync.Mutex

	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

func New(opts ...func(*Hub)) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: 30 * time.Second,
		sendBuffer:   64,
		logger:       zap.L(),
		conns:        map[*Conn]struct{}{},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Conn is one accepted websocket connection.
type Conn struct {
	hub    *Hub
	ws     *websocket.Conn
	send   chan []byte
	closed bool
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied
		h.logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("remote_addr", r.RemoteAddr))
		return
	}
	c := &Conn{hub: h, ws: ws, send: make(chan []byte, h.sendBuffer)}
	go c.writePump()

	h.broadcastMu.Lock()
	if h.onConnected != nil {
		h.onConnected(c)
	}
	total, ok := h.register(c)
	h.broadcastMu.Unlock()
	if !ok {
		return
	}
	h.logger.Debug("websocket client connected", zap.String("remote_addr", r.RemoteAddr), zap.Int("clients", total))
	c.readPump()
}

func (h *Hub) register(c *Conn) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return len(h.conns), false
	}
	h.conns[c] = struct{}{}
	return len(h.conns), true
}

// Broadcast queues msg on every connection and returns how many accepted
// it. Connections whose buffer is full are dropped.
func (h *Hub) Broadcast(msg []byte) int {
	h.broadcastMu.Lock()
	defer h.broadcastMu.Unlock()

	var slow []*Conn
	sent := 0

	h.mu.RLock()
	for c := range h.conns {
		select {
		case c.send <- msg:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("websocket client too slow, dropping", zap.String("remote_addr", c.ws.RemoteAddr().String()))
		c.Close()
	}
	return sent
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
}

func (h *Hub) unregister(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	delete(h.conns, c)
	close(c.send)
	return true
}

// Send queues msg for this connection only.
func (c *Conn) Send(msg []byte) error {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close unregisters the connection; the write pump then sends a close frame
// and shuts the socket.
func (c *Conn) Close() error {
	c.hub.unregister(c)
	return nil
}

func (c *Conn) readPump() {
	defer func() {
		c.Close()
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	wait := c.hub.pingInterval * 2
	_ = c.ws.SetReadDeadline(time.Now().Add(wait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
