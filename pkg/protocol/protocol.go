// Package protocol defines the JSON frames exchanged between the loom
// server runtime and the thin client over the live connection.
//
// The client sends events (user interactions addressed by hydration ID);
// the server answers with coalesced patch frames, one per scheduler turn,
// so the client always applies a consistent snapshot.
package protocol

// MsgType discriminates wire frames.
type MsgType string

const (
	// MsgEvent is a client-to-server user interaction.
	MsgEvent MsgType = "event"

	// MsgPatches is a server-to-client batch of output mutations.
	MsgPatches MsgType = "patches"

	// MsgError is a server-to-client error notification.
	MsgError MsgType = "error"

	// MsgPing and MsgPong keep the connection alive.
	MsgPing MsgType = "ping"
	MsgPong MsgType = "pong"
)

// Error codes carried in MsgError frames.
const (
	ErrHandlerNotFound = "handler_not_found"
	ErrHandlerPanic    = "handler_panic"
	ErrBadFrame        = "bad_frame"
)

// Message is the envelope for every frame.
type Message struct {
	Type    MsgType    `json:"type"`
	Event   *Event     `json:"event,omitempty"`
	Patches []Patch    `json:"patches,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// Event is one user interaction. HID addresses the element it happened
// on; Payload carries transport data such as the input value.
type Event struct {
	HID     string         `json:"hid"`
	Type    string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// HandlerKey returns the registry key the server dispatches on.
func (e *Event) HandlerKey() string {
	return e.HID + "_on" + e.Type
}

// Patch is the wire form of one output mutation. Inserted and replacing
// nodes travel as rendered HTML so the client stays thin.
type Patch struct {
	Op       string `json:"op"`
	HID      string `json:"hid,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    string `json:"value,omitempty"`
	HTML     string `json:"html,omitempty"`
	Index    int    `json:"index,omitempty"`
	ParentID string `json:"parent,omitempty"`
}

// ErrorInfo describes a server-side failure the client should surface.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
