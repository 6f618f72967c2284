package vdom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// committed simulates a committed tree: HIDs assigned the way the hosting
// layer does after each commit.
func committed(node *VNode) *VNode {
	AssignHIDs(node, NewHIDGenerator())
	return node
}

func TestDiffIdenticalTreesNoPatches(t *testing.T) {
	prev := committed(Div(Class("box"), Text("hello")))
	next := Div(Class("box"), Text("hello"))

	if patches := Diff(prev, next); len(patches) != 0 {
		t.Errorf("patches = %v, want none", patches)
	}
}

func TestDiffTextChangeTargetsParent(t *testing.T) {
	prev := committed(Div(Text("before")))
	next := Div(Text("after"))

	got := Diff(prev, next)
	want := []Patch{{Op: PatchSetText, HID: "h1", Value: "after"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffInputValueTravelsAsSetValue(t *testing.T) {
	prev := committed(Input(Type("text"), Value("old")))
	next := Input(Type("text"), Value("new"))

	got := Diff(prev, next)
	want := []Patch{{Op: PatchSetValue, HID: "h1", Value: "new"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffInputValueAddedEmitsSetValue(t *testing.T) {
	prev := committed(Textarea())
	next := Textarea(Value("drafted"))

	got := Diff(prev, next)
	want := []Patch{{Op: PatchSetValue, HID: "h1", Value: "drafted"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffInputValueRemovedClearsDOMValue(t *testing.T) {
	prev := committed(Input(Value("typed")))
	next := Input()

	got := Diff(prev, next)
	want := []Patch{{Op: PatchSetValue, HID: "h1", Value: ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffValueOnNonFormElementStaysSetAttr(t *testing.T) {
	prev := committed(Li(Value("1"), Text("item")))
	next := Li(Value("2"), Text("item"))

	got := Diff(prev, next)
	want := []Patch{{Op: PatchSetAttr, HID: "h1", Key: "value", Value: "2"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffCopiesHIDsForward(t *testing.T) {
	prev := committed(Div(Span(Text("a"))))
	next := Div(Span(Text("b")))

	Diff(prev, next)

	if next.HID != "h1" {
		t.Errorf("next root HID = %q, want h1", next.HID)
	}
	if next.Children[0].HID != "h2" {
		t.Errorf("next child HID = %q, want h2", next.Children[0].HID)
	}
}

func TestDiffAttrChanges(t *testing.T) {
	prev := committed(Div(Class("old"), ID("keep"), SetAttr("title", "gone")))
	next := Div(Class("new"), ID("keep"))

	got := Diff(prev, next)

	var sets, removes int
	for _, p := range got {
		switch p.Op {
		case PatchSetAttr:
			sets++
			if p.Key != "class" || p.Value != "new" {
				t.Errorf("SetAttr = %s=%q, want class=new", p.Key, p.Value)
			}
		case PatchRemoveAttr:
			removes++
			if p.Key != "title" {
				t.Errorf("RemoveAttr key = %q, want title", p.Key)
			}
		default:
			t.Errorf("unexpected op %s", p.Op)
		}
	}
	if sets != 1 || removes != 1 {
		t.Errorf("sets, removes = %d, %d, want 1, 1", sets, removes)
	}
}

func TestDiffHandlerChangeEmitsNoPatch(t *testing.T) {
	prev := committed(Button(OnClick(func(map[string]any) {}), Text("go")))
	next := Button(OnClick(func(map[string]any) {}), Text("go"))

	if patches := Diff(prev, next); len(patches) != 0 {
		t.Errorf("patches = %v, want none (handlers rebind out of band)", patches)
	}
}

func TestDiffTagMismatchReplaces(t *testing.T) {
	prev := committed(Div(Span(Text("x"))))
	next := Div(P(Text("x")))

	got := Diff(prev, next)
	if len(got) != 1 || got[0].Op != PatchReplaceNode {
		t.Fatalf("patches = %v, want one ReplaceNode", got)
	}
	if got[0].HID != "h2" {
		t.Errorf("ReplaceNode HID = %q, want h2", got[0].HID)
	}
	if got[0].Node == nil || got[0].Node.Tag != "p" {
		t.Error("ReplaceNode payload is not the new node")
	}
}

func TestDiffUnkeyedAppendAndRemove(t *testing.T) {
	prev := committed(Ul(Li(Text("a")), Li(Text("b"))))

	grown := Ul(Li(Text("a")), Li(Text("b")), Li(Text("c")))
	got := Diff(prev, grown)
	if len(got) != 1 || got[0].Op != PatchInsertNode {
		t.Fatalf("grow patches = %v, want one InsertNode", got)
	}
	if got[0].ParentID != "h1" || got[0].Index != 2 {
		t.Errorf("InsertNode parent/index = %q/%d, want h1/2", got[0].ParentID, got[0].Index)
	}

	prev = committed(Ul(Li(Text("a")), Li(Text("b"))))
	shrunk := Ul(Li(Text("a")))
	got = Diff(prev, shrunk)
	if len(got) != 1 || got[0].Op != PatchRemoveNode {
		t.Fatalf("shrink patches = %v, want one RemoveNode", got)
	}
	if got[0].HID != "h3" {
		t.Errorf("RemoveNode HID = %q, want h3", got[0].HID)
	}
}

func TestDiffKeyedReorderMoves(t *testing.T) {
	prev := committed(Ul(
		Li(Key("a"), Text("a")),
		Li(Key("b"), Text("b")),
		Li(Key("c"), Text("c")),
	))
	next := Ul(
		Li(Key("c"), Text("c")),
		Li(Key("a"), Text("a")),
		Li(Key("b"), Text("b")),
	)

	got := Diff(prev, next)

	var moves, others int
	for _, p := range got {
		if p.Op == PatchMoveNode {
			moves++
		} else {
			others++
		}
	}
	if moves == 0 {
		t.Error("reorder produced no MoveNode patches")
	}
	if others != 0 {
		t.Errorf("reorder produced %d non-move patches: %v", others, got)
	}
}

func TestDiffKeyedInsertAndRemove(t *testing.T) {
	prev := committed(Ul(
		Li(Key("a"), Text("a")),
		Li(Key("b"), Text("b")),
	))
	next := Ul(
		Li(Key("a"), Text("a")),
		Li(Key("c"), Text("c")),
	)

	got := Diff(prev, next)

	var inserted, removed bool
	for _, p := range got {
		switch p.Op {
		case PatchInsertNode:
			inserted = true
			if p.Node == nil || p.Node.Key != "c" {
				t.Error("InsertNode payload is not the keyed c node")
			}
		case PatchRemoveNode:
			removed = true
			if p.HID != "h3" {
				t.Errorf("RemoveNode HID = %q, want h3 (the b item)", p.HID)
			}
		}
	}
	if !inserted || !removed {
		t.Errorf("patches = %v, want an insert and a remove", got)
	}
}

func TestDiffKeyedUnchangedNoPatches(t *testing.T) {
	prev := committed(Ul(
		Li(Key("a"), Text("a")),
		Li(Key("b"), Text("b")),
	))
	next := Ul(
		Li(Key("a"), Text("a")),
		Li(Key("b"), Text("b")),
	)

	if patches := Diff(prev, next); len(patches) != 0 {
		t.Errorf("patches = %v, want none", patches)
	}
}

func TestDiffKindChangeReplaces(t *testing.T) {
	prev := committed(Div(Text("plain")))
	next := Div(Raw("<b>bold</b>"))

	got := Diff(prev, next)
	if len(got) != 1 || got[0].Op != PatchReplaceNode {
		t.Fatalf("patches = %v, want one ReplaceNode", got)
	}
}

func TestDiffNilPrevChildInsertsUnderParent(t *testing.T) {
	prev := committed(Div())
	next := Div(Span(Text("new")))

	got := Diff(prev, next)
	if len(got) != 1 || got[0].Op != PatchInsertNode {
		t.Fatalf("patches = %v, want one InsertNode", got)
	}
	if got[0].ParentID != "h1" || got[0].Index != 0 {
		t.Errorf("InsertNode parent/index = %q/%d, want h1/0", got[0].ParentID, got[0].Index)
	}
}
