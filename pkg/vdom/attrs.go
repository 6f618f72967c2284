package vdom

import "fmt"

// SetAttr builds an arbitrary attribute.
func SetAttr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Common attributes.
func Class(v string) Attr       { return Attr{Key: "class", Value: v} }
func ID(v string) Attr          { return Attr{Key: "id", Value: v} }
func Href(v string) Attr        { return Attr{Key: "href", Value: v} }
func Src(v string) Attr         { return Attr{Key: "src", Value: v} }
func Type(v string) Attr        { return Attr{Key: "type", Value: v} }
func Name(v string) Attr        { return Attr{Key: "name", Value: v} }
func Value(v string) Attr       { return Attr{Key: "value", Value: v} }
func Placeholder(v string) Attr { return Attr{Key: "placeholder", Value: v} }
func Disabled(v bool) Attr      { return Attr{Key: "disabled", Value: v} }
func Rel(v string) Attr         { return Attr{Key: "rel", Value: v} }
func Charset(v string) Attr     { return Attr{Key: "charset", Value: v} }

// Classf builds a class attribute from a format string.
func Classf(format string, args ...any) Attr {
	return Attr{Key: "class", Value: fmt.Sprintf(format, args...)}
}

// Key sets the reconciliation key, used by the keyed diff to match
// children across renders.
func Key(v string) Attr {
	return Attr{Key: "key", Value: v}
}

// EventHandler is an event callback attached to an element. The payload
// carries whatever the transport delivered with the event (input value,
// checked state, and so on).
type EventHandler func(payload map[string]any)

// On attaches a handler for an arbitrary event type.
func On(event string, handler EventHandler) Attr {
	return Attr{Key: "on" + event, Value: handler}
}

// Common event handlers.
func OnClick(handler EventHandler) Attr  { return On("click", handler) }
func OnInput(handler EventHandler) Attr  { return On("input", handler) }
func OnChange(handler EventHandler) Attr { return On("change", handler) }
func OnSubmit(handler EventHandler) Attr { return On("submit", handler) }
