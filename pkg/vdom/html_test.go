package vdom

import (
	"strings"
	"testing"
)

func render(t *testing.T, node *VNode) string {
	t.Helper()
	s, err := RenderToString(node)
	if err != nil {
		t.Fatalf("RenderToString: %v", err)
	}
	return s
}

func TestRenderElementWithText(t *testing.T) {
	got := render(t, Div(Class("box"), Text("hello")))
	want := `<div class="box">hello</div>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderEscapesText(t *testing.T) {
	got := render(t, P(Text(`<script>alert("x")</script>`)))
	if strings.Contains(got, "<script>") {
		t.Errorf("text content was not escaped: %q", got)
	}
}

func TestRenderRawIsNotEscaped(t *testing.T) {
	got := render(t, Div(Raw("<b>bold</b>")))
	want := "<div><b>bold</b></div>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderVoidElement(t *testing.T) {
	got := render(t, Input(Type("text"), Name("q")))
	want := `<input name="q" type="text">`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderBooleanAttr(t *testing.T) {
	got := render(t, Button(Disabled(true), Text("no")))
	if got != `<button disabled>no</button>` {
		t.Errorf("true boolean attr: got %q", got)
	}

	got = render(t, Button(Disabled(false), Text("yes")))
	if got != `<button>yes</button>` {
		t.Errorf("false boolean attr must be absent: got %q", got)
	}
}

func TestRenderSkipsEventHandlers(t *testing.T) {
	got := render(t, Button(OnClick(func(map[string]any) {}), Text("go")))
	if strings.Contains(got, "onclick") {
		t.Errorf("handler serialized into HTML: %q", got)
	}
}

func TestRenderIncludesHID(t *testing.T) {
	node := Button(Text("go"))
	AssignHIDs(node, NewHIDGenerator())

	got := render(t, node)
	want := `<button data-hid="h1">go</button>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderAttrsSorted(t *testing.T) {
	got := render(t, A(SetAttr("title", "t"), Href("/x"), Class("c")))
	want := `<a class="c" href="/x" title="t"></a>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderFragmentHasNoWrapper(t *testing.T) {
	got := render(t, Fragment(Span(Text("a")), Span(Text("b"))))
	want := "<span>a</span><span>b</span>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderNilNode(t *testing.T) {
	s, err := RenderToString(nil)
	if err != nil {
		t.Fatalf("RenderToString(nil): %v", err)
	}
	if s != "" {
		t.Errorf("got %q, want empty", s)
	}
}

func TestRenderNestedTree(t *testing.T) {
	got := render(t, Ul(Li(Text("one")), Li(Text("two"))))
	want := "<ul><li>one</li><li>two</li></ul>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
