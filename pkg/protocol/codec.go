package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/loomui/loom/pkg/vdom"
)

// Encode serializes a message to its wire form.
func Encode(msg *Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s frame: %w", msg.Type, err)
	}
	return data, nil
}

// Decode parses a wire frame.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: decode frame: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("protocol: frame missing type")
	}
	return &msg, nil
}

// FromPatches converts diff output to wire patches. InsertNode and
// ReplaceNode payloads are rendered to HTML here, once, at the transport
// boundary.
func FromPatches(patches []vdom.Patch) ([]Patch, error) {
	wire := make([]Patch, 0, len(patches))

	for _, p := range patches {
		wp := Patch{
			Op:       p.Op.String(),
			HID:      p.HID,
			Key:      p.Key,
			Value:    p.Value,
			Index:    p.Index,
			ParentID: p.ParentID,
		}

		if p.Node != nil {
			html, err := vdom.RenderToString(p.Node)
			if err != nil {
				return nil, fmt.Errorf("protocol: render %s payload: %w", wp.Op, err)
			}
			wp.HTML = html
		}

		wire = append(wire, wp)
	}

	return wire, nil
}

// PatchFrame builds a patches message from diff output.
func PatchFrame(patches []vdom.Patch) (*Message, error) {
	wire, err := FromPatches(patches)
	if err != nil {
		return nil, err
	}
	return &Message{Type: MsgPatches, Patches: wire}, nil
}

// ErrorFrame builds an error message.
func ErrorFrame(code, message string) *Message {
	return &Message{Type: MsgError, Error: &ErrorInfo{Code: code, Message: message}}
}
