package sockets

import (
	"net/http"
	"time"
)

func WithPingInterval(d time.Duration) func(*Hub) {
	return func(h *Hub) {
		h.pingInterval = d
	}
}

func WithSendBuffer(n int) func(*Hub) {
	return func(h *Hub) {
		h.sendBuffer = n
	}
}

// WithOnConnected runs fn for every new connection before it is added to
// the hub. Broadcasts wait for fn to return, so anything fn sends is the
// first message the client sees.
func WithOnConnected(fn func(*Conn)) func(*Hub) {
	return func(h *Hub) {
		h.onConnected = fn
	}
}

func WithCheckOrigin(fn func(r *http.Request) bool) func(*Hub) {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}
