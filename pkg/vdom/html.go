package vdom

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
)

// RenderHTML writes the tree as HTML. Interactive elements get a
// data-hid attribute so the thin client can address them; event handler
// props are never serialized. Text content is escaped; KindRaw is not.
func RenderHTML(w io.Writer, node *VNode) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case KindText:
		_, err := io.WriteString(w, html.EscapeString(node.Text))
		return err
	case KindRaw:
		_, err := io.WriteString(w, node.Text)
		return err
	case KindFragment:
		for _, child := range node.Children {
			if err := RenderHTML(w, child); err != nil {
				return err
			}
		}
		return nil
	case KindElement:
		return renderElement(w, node)
	default:
		return fmt.Errorf("vdom: unknown node kind %d", node.Kind)
	}
}

// RenderToString renders the tree to an HTML string.
func RenderToString(node *VNode) (string, error) {
	var sb strings.Builder
	if err := RenderHTML(&sb, node); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderElement(w io.Writer, node *VNode) error {
	if _, err := io.WriteString(w, "<"+node.Tag); err != nil {
		return err
	}

	if node.HID != "" {
		if _, err := fmt.Fprintf(w, ` data-hid=%q`, node.HID); err != nil {
			return err
		}
	}

	// Deterministic attribute order for stable output and testing.
	keys := make([]string, 0, len(node.Props))
	for key := range node.Props {
		if isEventHandler(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := node.Props[key]
		if b, ok := val.(bool); ok {
			// Boolean attributes render bare when true, not at all when
			// false (disabled, checked, ...).
			if b {
				if _, err := io.WriteString(w, " "+key); err != nil {
					return err
				}
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s=%q`, key, html.EscapeString(propToString(val))); err != nil {
			return err
		}
	}

	if IsVoidElement(node.Tag) {
		_, err := io.WriteString(w, ">")
		return err
	}

	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	for _, child := range node.Children {
		if err := RenderHTML(w, child); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</"+node.Tag+">")
	return err
}
