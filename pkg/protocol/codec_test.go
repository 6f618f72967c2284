package protocol

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loomui/loom/pkg/vdom"
)

func TestEncodeDecodeEventFrame(t *testing.T) {
	msg := &Message{
		Type: MsgEvent,
		Event: &Event{
			HID:     "h3",
			Type:    "click",
			Payload: map[string]any{"value": "x"},
		},
	}

	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(msg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsMissingType(t *testing.T) {
	if _, err := Decode([]byte(`{"event":{"hid":"h1"}}`)); err == nil {
		t.Fatal("expected error for frame without type")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte(`{"type":`)); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func TestHandlerKey(t *testing.T) {
	e := &Event{HID: "h7", Type: "input"}
	if got := e.HandlerKey(); got != "h7_oninput" {
		t.Errorf("HandlerKey = %q, want h7_oninput", got)
	}
}

func TestFromPatchesRendersNodes(t *testing.T) {
	node := vdom.Li(vdom.Text("new"))
	patches := []vdom.Patch{
		{Op: vdom.PatchSetText, HID: "h2", Value: "after"},
		{Op: vdom.PatchInsertNode, ParentID: "h1", Index: 1, Node: node},
	}

	wire, err := FromPatches(patches)
	if err != nil {
		t.Fatalf("FromPatches: %v", err)
	}
	if len(wire) != 2 {
		t.Fatalf("len(wire) = %d, want 2", len(wire))
	}

	if wire[0].Op != "SetText" || wire[0].HID != "h2" || wire[0].Value != "after" {
		t.Errorf("wire[0] = %+v", wire[0])
	}
	if wire[1].Op != "InsertNode" || wire[1].ParentID != "h1" || wire[1].Index != 1 {
		t.Errorf("wire[1] = %+v", wire[1])
	}
	if wire[1].HTML != "<li>new</li>" {
		t.Errorf("wire[1].HTML = %q, want <li>new</li>", wire[1].HTML)
	}
}

func TestPatchFrameEncodesToWire(t *testing.T) {
	frame, err := PatchFrame([]vdom.Patch{{Op: vdom.PatchSetText, HID: "h1", Value: "v"}})
	if err != nil {
		t.Fatalf("PatchFrame: %v", err)
	}

	data, err := Encode(frame)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	s := string(data)
	for _, want := range []string{`"type":"patches"`, `"op":"SetText"`, `"hid":"h1"`} {
		if !strings.Contains(s, want) {
			t.Errorf("frame %s missing %s", s, want)
		}
	}
}

func TestErrorFrame(t *testing.T) {
	frame := ErrorFrame(ErrHandlerNotFound, "no handler")
	if frame.Type != MsgError {
		t.Errorf("Type = %s, want %s", frame.Type, MsgError)
	}
	if frame.Error == nil || frame.Error.Code != ErrHandlerNotFound {
		t.Errorf("Error = %+v", frame.Error)
	}
}
