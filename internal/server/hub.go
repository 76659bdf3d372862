// Package server exposes the HTTP and WebSocket API over stored pricing data.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

const (
	// writeTimeout bounds a single frame write to a subscriber.
	writeTimeout = 10 * time.Second
	// pingInterval is how often ping frames are sent to subscribers.
	pingInterval = 30 * time.Second
	// pongWait is how long to wait for a pong before dropping a subscriber.
	pongWait = 60 * time.Second
	// subscriberBuffer is the per-subscriber outbound queue size. A
	// subscriber that falls this far behind is disconnected.
	subscriberBuffer = 64
)

// Hub fans out closed window aggregates to connected WebSocket subscribers.
// It implements the aggregate sink contract so the pipeline can publish to
// live clients the same way it publishes to stores and brokers.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closed      bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub with no subscribers.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(log.Writer(), "[ws-hub] ", log.LstdFlags)
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			// Aggregates are broadcast-only public data.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:      logger,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Name identifies the hub in sink logs.
func (h *Hub) Name() string { return "websocket" }

// Publish broadcasts one aggregate to every connected subscriber. Slow
// subscribers are dropped rather than blocking the pipeline.
func (h *Hub) Publish(ctx context.Context, agg *domain.WindowAggregate) error {
	payload, err := json.Marshal(agg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.send <- payload:
		default:
			h.logger.Printf("Dropping slow subscriber %s", sub.conn.RemoteAddr())
			delete(h.subscribers, sub)
			close(sub.send)
		}
	}
	return nil
}

// ServeHTTP upgrades the request and streams aggregates until the client
// disconnects or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, subscriberBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.subscribers[sub] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Printf("Subscriber connected from %s (%d total)", conn.RemoteAddr(), count)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// writeLoop sends queued aggregates and periodic pings to one subscriber.
func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sub.send:
			if !ok {
				sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes control frames until the connection drops. Subscribers
// never send data frames.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub)

	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// remove detaches a subscriber and closes its connection.
func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.send)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	sub.conn.Close()
	h.logger.Printf("Subscriber disconnected from %s (%d remaining)", sub.conn.RemoteAddr(), count)
}

// Close disconnects all subscribers and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub.send)
	}
}

// SubscriberCount reports the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
