// Package events contains the WebSocket event contract shared between
// the dashboard backend and its frontend clients.
package events

// Event types pushed over /ws.
const (
	// TypeConnection greets a client right after registration.
	TypeConnection = "connection"

	// TypeDataUpdate announces that a refresh replaced the snapshot.
	// Clients re-query the dashboard endpoints when they see it.
	TypeDataUpdate = "data_update"

	// TypeStatus carries refresh progress notes.
	TypeStatus = "status"
)

// Envelope is the wire frame every broadcast uses. Data holds the
// event-specific payload: a refresh report for TypeDataUpdate, a
// status map for the others.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Heartbeat is the only message clients send. Anything else read from
// the socket is ignored.
type Heartbeat struct {
	Type string `json:"type"`
}

// HeartbeatType identifies a client heartbeat frame.
const HeartbeatType = "heartbeat"
