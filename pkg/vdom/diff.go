package vdom

import (
	"fmt"
	"reflect"
	"strconv"
)

// Diff compares two trees and returns the patches that transform prev
// into next. HIDs are copied from prev onto matching next nodes so the
// next tree can serve as prev on the following pass.
func Diff(prev, next *VNode) []Patch {
	var patches []Patch
	diff(prev, next, "", &patches)
	return patches
}

// diff recursively compares nodes and appends patches. parentHID is the
// HID of the nearest enclosing element, used for text patches because
// text nodes carry no HID of their own.
func diff(prev, next *VNode, parentHID string, patches *[]Patch) {
	if prev == nil && next == nil {
		return
	}

	// Added nodes are handled by the parent via InsertNode.
	if prev == nil {
		return
	}

	if next == nil {
		*patches = append(*patches, Patch{Op: PatchRemoveNode, HID: prev.HID})
		return
	}

	if prev.Kind != next.Kind {
		target := prev.HID
		if target == "" {
			target = parentHID
		}
		*patches = append(*patches, Patch{Op: PatchReplaceNode, HID: target, Node: next})
		return
	}

	switch prev.Kind {
	case KindText:
		diffText(prev, next, parentHID, patches)
	case KindElement:
		diffElement(prev, next, patches)
	case KindFragment:
		next.HID = prev.HID
		diffChildren(prev, next, parentHID, patches)
	case KindRaw:
		diffRaw(prev, next, parentHID, patches)
	}
}

func diffText(prev, next *VNode, parentHID string, patches *[]Patch) {
	next.HID = prev.HID

	if prev.Text == next.Text {
		return
	}

	// Text nodes target the enclosing element; the client updates its
	// textContent.
	target := prev.HID
	if target == "" {
		target = parentHID
	}
	if target != "" {
		*patches = append(*patches, Patch{Op: PatchSetText, HID: target, Value: next.Text})
	}
}

func diffElement(prev, next *VNode, patches *[]Patch) {
	if prev.Tag != next.Tag {
		*patches = append(*patches, Patch{Op: PatchReplaceNode, HID: prev.HID, Node: next})
		return
	}

	next.HID = prev.HID
	diffProps(prev, next, patches)
	diffChildren(prev, next, prev.HID, patches)
}

func diffRaw(prev, next *VNode, parentHID string, patches *[]Patch) {
	next.HID = prev.HID

	if prev.Text == next.Text {
		return
	}

	target := prev.HID
	if target == "" {
		target = parentHID
	}
	if target != "" {
		*patches = append(*patches, Patch{Op: PatchReplaceNode, HID: target, Node: next})
	}
}

// diffProps compares attributes. Event handlers are skipped; the hosting
// layer rebinds them from the committed tree.
func diffProps(prev, next *VNode, patches *[]Patch) {
	for key, prevVal := range prev.Props {
		if isEventHandler(key) {
			continue
		}

		nextVal, exists := next.Props[key]
		if !exists {
			if isFormValue(prev.Tag, key) {
				// Clearing a form value must write the DOM property;
				// removing the attribute leaves whatever the user typed.
				*patches = append(*patches, Patch{Op: PatchSetValue, HID: prev.HID, Value: ""})
			} else {
				*patches = append(*patches, Patch{Op: PatchRemoveAttr, HID: prev.HID, Key: key})
			}
		} else if !propsEqual(prevVal, nextVal) {
			*patches = append(*patches, setPropPatch(prev.HID, prev.Tag, key, nextVal))
		}
	}

	for key, nextVal := range next.Props {
		if isEventHandler(key) {
			continue
		}
		if _, exists := prev.Props[key]; !exists {
			*patches = append(*patches, setPropPatch(prev.HID, prev.Tag, key, nextVal))
		}
	}
}

// formValueTags are elements whose current value lives in a DOM property:
// once the user has typed, setAttribute("value", ...) no longer changes
// what the control shows.
var formValueTags = map[string]bool{"input": true, "textarea": true, "select": true}

func isFormValue(tag, key string) bool {
	return key == "value" && formValueTags[tag]
}

// setPropPatch builds the patch for one changed or added prop. Form control
// values travel as SetValue so the client writes the property instead of
// the attribute.
func setPropPatch(hid, tag, key string, val any) Patch {
	if isFormValue(tag, key) {
		return Patch{Op: PatchSetValue, HID: hid, Value: propToString(val)}
	}
	return Patch{Op: PatchSetAttr, HID: hid, Key: key, Value: propToString(val)}
}

func diffChildren(prev, next *VNode, parentHID string, patches *[]Patch) {
	if hasKeys(prev.Children) || hasKeys(next.Children) {
		diffKeyedChildren(prev, prev.Children, next.Children, parentHID, patches)
	} else {
		diffUnkeyedChildren(prev, prev.Children, next.Children, parentHID, patches)
	}
}

// diffUnkeyedChildren matches children by position.
func diffUnkeyedChildren(parent *VNode, prev, next []*VNode, parentHID string, patches *[]Patch) {
	maxLen := max(len(prev), len(next))

	for i := 0; i < maxLen; i++ {
		var prevChild, nextChild *VNode
		if i < len(prev) {
			prevChild = prev[i]
		}
		if i < len(next) {
			nextChild = next[i]
		}

		switch {
		case prevChild == nil && nextChild != nil:
			*patches = append(*patches, Patch{Op: PatchInsertNode, ParentID: parent.HID, Index: i, Node: nextChild})
		case prevChild != nil && nextChild == nil:
			*patches = append(*patches, Patch{Op: PatchRemoveNode, HID: prevChild.HID})
		default:
			diff(prevChild, nextChild, parentHID, patches)
		}
	}
}

// diffKeyedChildren matches children by reconciliation key so reorders
// become moves instead of rewrites.
func diffKeyedChildren(parent *VNode, prev, next []*VNode, parentHID string, patches *[]Patch) {
	prevByKey := make(map[string]int, len(prev))
	for i, child := range prev {
		if key := childKey(child); key != "" {
			prevByKey[key] = i
		}
	}

	matched := make(map[int]bool, len(prev))

	for nextIdx, nextChild := range next {
		key := childKey(nextChild)

		if key == "" {
			// Unkeyed node in a keyed list; treat as insert.
			*patches = append(*patches, Patch{Op: PatchInsertNode, ParentID: parent.HID, Index: nextIdx, Node: nextChild})
			continue
		}

		prevIdx, exists := prevByKey[key]
		if !exists {
			*patches = append(*patches, Patch{Op: PatchInsertNode, ParentID: parent.HID, Index: nextIdx, Node: nextChild})
			continue
		}

		matched[prevIdx] = true
		prevChild := prev[prevIdx]

		if prevIdx != nextIdx {
			*patches = append(*patches, Patch{Op: PatchMoveNode, HID: prevChild.HID, ParentID: parent.HID, Index: nextIdx})
		}

		diff(prevChild, nextChild, parentHID, patches)
	}

	for i, prevChild := range prev {
		if !matched[i] {
			*patches = append(*patches, Patch{Op: PatchRemoveNode, HID: prevChild.HID})
		}
	}
}

func childKey(node *VNode) string {
	if node == nil {
		return ""
	}
	return node.Key
}

func hasKeys(children []*VNode) bool {
	for _, child := range children {
		if childKey(child) != "" {
			return true
		}
	}
	return false
}

// propsEqual compares two prop values.
func propsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}

// propToString serializes a prop value for a patch.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

