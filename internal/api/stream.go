package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sv650s/springboard/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Event is one message pushed to stream subscribers
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans events out to websocket subscribers
// ⭐ SSOT: websocket connections are tracked here only
type Hub struct {
	mu       sync.RWMutex
	clients  map[*subscriber]struct{}
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Publish sends an event to every subscriber. Slow subscribers are dropped.
func (h *Hub) Publish(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now()})
	if err != nil {
		h.logger.WithError(err).WithField("type", eventType).Error("Failed to encode stream event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.clients {
		select {
		case s.send <- payload:
		default:
			h.logger.WithField("type", eventType).Warn("Stream subscriber too slow, dropping event")
		}
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.clients {
		close(s.send)
		delete(h.clients, s)
	}
}

// ServeWS upgrades the request and streams events until the peer goes away
// GET /api/stream
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[s] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.WithFields(map[string]interface{}{
		"remote":  r.RemoteAddr,
		"clients": total,
	}).Info("Stream subscriber connected")

	go h.writePump(s)
	h.readPump(s)
}

// remove unregisters s; it reports false when s was already gone
func (h *Hub) remove(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[s]; !ok {
		return false
	}
	delete(h.clients, s)
	close(s.send)
	return true
}

// readPump discards inbound frames and handles pongs until the connection closes
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		h.remove(s)
		s.conn.Close()
		h.logger.Debug("Stream subscriber disconnected")
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Warn("Stream subscriber closed unexpectedly")
			}
			return
		}
	}
}

// writePump forwards queued events and keeps the connection alive with pings
func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
