package hub

import (
	"time"

	"github.com/soar/thtrack/internal/control"
)

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type      string         `json:"type"`            // "frame", "full" or "event"
	Seq       int64          `json:"seq"`             // Sequence number for ordering
	Timestamp int64          `json:"timestamp"`       // Unix timestamp in milliseconds
	Event     string         `json:"event,omitempty"` // Event name for type "event"
	Detail    string         `json:"detail,omitempty"`
	Frame     *control.Frame `json:"frame,omitempty"`
}

// Event names.
const (
	EventNavMode     = "nav_mode"
	EventSampleError = "sample_error"
	EventSampleOK    = "sample_ok"
)

// NewFrameMessage creates a "frame" message for one loop iteration.
func NewFrameMessage(seq int64, f *control.Frame) *WSMessage {
	return &WSMessage{
		Type:      "frame",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Frame:     f,
	}
}

// NewFullMessage creates a "full" resync message carrying the last frame.
func NewFullMessage(seq int64, f *control.Frame) *WSMessage {
	return &WSMessage{
		Type:      "full",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Frame:     f,
	}
}

// NewEventMessage creates an "event" message for state changes worth highlighting.
func NewEventMessage(seq int64, event, detail string) *WSMessage {
	return &WSMessage{
		Type:      "event",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Event:     event,
		Detail:    detail,
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type string `json:"type"`
}
