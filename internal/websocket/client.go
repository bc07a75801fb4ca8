package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/events"
)

const (
	// writeWait bounds one write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long a silent peer stays connected.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames; the dashboard only ever
	// sends heartbeats.
	maxMessageSize = 512
)

// Client sits between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient wraps a live gorilla connection.
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return NewClientWithConnection(hub, NewConnectionWrapper(conn), logger)
}

// NewClientWithConnection accepts any Connection, which is how tests
// substitute mocks.
func NewClientWithConnection(hub *Hub, conn Connection, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	id := uuid.New().String()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		id:          id,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
}

// WithTraceID attaches the request trace to the client's lifecycle logs.
func (c *Client) WithTraceID(traceID string) *Client {
	c.traceID = traceID
	c.logger = c.logger.With(slog.String("trace_id", traceID))
	return c
}

// ReadPump drains inbound frames until the peer goes away, keeping the
// read deadline fresh off pongs and heartbeats. It owns unregistration.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.Info("client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		var hb events.Heartbeat
		if json.Unmarshal(message, &hb) == nil && hb.Type == events.HeartbeatType {
			c.conn.SetReadDeadline(time.Now().Add(pongWait))
			continue
		}
		// Other inbound messages are ignored: the dashboard protocol
		// is server-push only.
	}
}

// WritePump forwards hub messages to the peer and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("write failed", slog.String("error", err.Error()))
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

// ServeWS registers a fresh connection with the hub and starts its
// pumps.
func ServeWS(hub *Hub, conn *websocket.Conn, traceID string) {
	client := NewClient(hub, conn, nil).WithTraceID(traceID)
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
