package vdom

import (
	"strconv"
	"sync/atomic"
)

// HIDGenerator produces sequential hydration IDs. Each session keeps one
// generator so IDs are stable for the session's lifetime and never reused
// within it.
type HIDGenerator struct {
	counter uint32
}

// NewHIDGenerator creates a generator starting at h1.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next hydration ID.
func (g *HIDGenerator) Next() string {
	id := atomic.AddUint32(&g.counter, 1)
	return "h" + strconv.FormatUint(uint64(id), 10)
}

// Reset restarts the sequence. Only safe between sessions.
func (g *HIDGenerator) Reset() {
	atomic.StoreUint32(&g.counter, 0)
}

// AssignHIDs walks the tree and assigns an ID to every element that does
// not already carry one. Text, fragment and raw nodes are addressed
// through their parent element.
func AssignHIDs(node *VNode, gen *HIDGenerator) {
	if node == nil {
		return
	}

	if node.Kind == KindElement && node.HID == "" {
		node.HID = gen.Next()
	}

	for _, child := range node.Children {
		AssignHIDs(child, gen)
	}
}

// FindByHID returns the node with the given hydration ID, or nil.
func FindByHID(node *VNode, hid string) *VNode {
	if node == nil {
		return nil
	}
	if node.HID == hid {
		return node
	}
	for _, child := range node.Children {
		if found := FindByHID(child, hid); found != nil {
			return found
		}
	}
	return nil
}

// CollectHandlers walks a committed tree and returns its event handlers
// keyed by "hid_oneventtype" (e.g. "h3_onclick"). The hosting layer
// rebinds this map after every commit, so handlers captured by stale
// renders can never fire.
func CollectHandlers(node *VNode) map[string]EventHandler {
	handlers := make(map[string]EventHandler)
	collectHandlers(node, handlers)
	return handlers
}

func collectHandlers(node *VNode, handlers map[string]EventHandler) {
	if node == nil {
		return
	}

	if node.Kind == KindElement && node.HID != "" {
		for key, val := range node.Props {
			if !isEventHandler(key) {
				continue
			}
			if h, ok := val.(EventHandler); ok {
				handlers[node.HID+"_"+key] = h
			}
		}
	}

	for _, child := range node.Children {
		collectHandlers(child, handlers)
	}
}
