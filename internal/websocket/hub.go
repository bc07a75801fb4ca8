// Package websocket pushes refresh notifications to connected
// dashboards. The hub fans one JSON event out to every client; clients
// that cannot keep up are dropped rather than allowed to stall the
// broadcast.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/events"
)

// Event types the dashboard frontend understands, re-exported from the
// shared contract package.
const (
	TypeConnection = events.TypeConnection
	TypeDataUpdate = events.TypeDataUpdate
	TypeStatus     = events.TypeStatus
)

// Envelope is the wire frame every broadcast uses.
type Envelope = events.Envelope

// Hub maintains the set of active clients and broadcasts events to
// them. All exported methods are safe for concurrent use.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	quit    chan struct{}
	running bool
}

// NewHub creates a hub. Metrics are optional; pass nil to run without
// instrumentation.
func NewHub(metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop. Calling Start twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			ctx := clientContext(client)
			infrastructure.RecordWebSocketClientChange(ctx, h.metrics, 1)
			h.logger.InfoContext(ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.greet(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, client)
			close(client.send)
			count := len(h.clients)
			h.mu.Unlock()

			ctx := clientContext(client)
			infrastructure.RecordWebSocketClientChange(ctx, h.metrics, -1)
			h.logger.InfoContext(ctx, "client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// greet sends the connection acknowledgement to one client. A full
// send buffer on a brand new client means it is already broken, so
// the greeting is simply dropped.
func (h *Hub) greet(client *Client) {
	payload, err := json.Marshal(Envelope{
		Type: TypeConnection,
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.id,
		},
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   client.traceID,
	})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("greeting dropped, client buffer full",
			slog.String("client_id", client.id))
	}
}

// deliver fans one message out to every client, disconnecting any
// whose send buffer is full.
func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	dropped := 0
	for _, client := range clients {
		select {
		case client.send <- message:
			sent++
		default:
			dropped++
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	if dropped > 0 {
		h.logger.Warn("broadcast incomplete",
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
}

// BroadcastUpdate sends one typed event to all connected clients.
// It satisfies the broadcaster the dashboard service expects.
func (h *Hub) BroadcastUpdate(event string, payload interface{}) {
	data, err := json.Marshal(Envelope{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}

	infrastructure.RecordWebSocketBroadcast(context.Background(), h.metrics, event)

	select {
	case h.broadcast <- data:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register queues a client for registration.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Stop shuts the hub down and closes every client. Safe to call once.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func clientContext(client *Client) context.Context {
	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}
	return ctx
}
