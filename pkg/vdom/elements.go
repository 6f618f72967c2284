package vdom

// voidElements are HTML elements that cannot have children.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// IsVoidElement returns true for self-closing HTML elements.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// createElement builds an element node from a mixed argument list.
// Accepted argument types: Attr, *VNode, []*VNode, string (text child).
// Nil nodes and empty attrs are skipped so conditional construction stays
// terse at call sites.
func createElement(tag string, args []any) *VNode {
	node := &VNode{
		Kind: KindElement,
		Tag:  tag,
	}

	for _, arg := range args {
		switch a := arg.(type) {
		case Attr:
			if a.IsEmpty() {
				continue
			}
			if node.Props == nil {
				node.Props = make(Props)
			}
			if a.Key == "key" {
				if s, ok := a.Value.(string); ok {
					node.Key = s
				}
				continue
			}
			node.Props[a.Key] = a.Value
		case *VNode:
			if a != nil {
				node.Children = append(node.Children, a)
			}
		case []*VNode:
			for _, child := range a {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}
		case string:
			node.Children = append(node.Children, Text(a))
		case nil:
			// Skip
		}
	}

	return node
}

// Document structure
func Html(args ...any) *VNode   { return createElement("html", args) }
func Head(args ...any) *VNode   { return createElement("head", args) }
func Body(args ...any) *VNode   { return createElement("body", args) }
func Title(args ...any) *VNode  { return createElement("title", args) }
func Meta(args ...any) *VNode   { return createElement("meta", args) }
func Link(args ...any) *VNode   { return createElement("link", args) }
func Script(args ...any) *VNode { return createElement("script", args) }

// Sectioning and text content
func Div(args ...any) *VNode     { return createElement("div", args) }
func Span(args ...any) *VNode    { return createElement("span", args) }
func P(args ...any) *VNode       { return createElement("p", args) }
func H1(args ...any) *VNode      { return createElement("h1", args) }
func H2(args ...any) *VNode      { return createElement("h2", args) }
func H3(args ...any) *VNode      { return createElement("h3", args) }
func Ul(args ...any) *VNode      { return createElement("ul", args) }
func Ol(args ...any) *VNode      { return createElement("ol", args) }
func Li(args ...any) *VNode      { return createElement("li", args) }
func A(args ...any) *VNode       { return createElement("a", args) }
func Main(args ...any) *VNode    { return createElement("main", args) }
func Section(args ...any) *VNode { return createElement("section", args) }
func Header(args ...any) *VNode  { return createElement("header", args) }
func Footer(args ...any) *VNode  { return createElement("footer", args) }
func Nav(args ...any) *VNode     { return createElement("nav", args) }
func Pre(args ...any) *VNode     { return createElement("pre", args) }
func Code(args ...any) *VNode    { return createElement("code", args) }

// Interactive content
func Button(args ...any) *VNode   { return createElement("button", args) }
func Input(args ...any) *VNode    { return createElement("input", args) }
func Form(args ...any) *VNode     { return createElement("form", args) }
func Label(args ...any) *VNode    { return createElement("label", args) }
func Select(args ...any) *VNode   { return createElement("select", args) }
func Option(args ...any) *VNode   { return createElement("option", args) }
func Textarea(args ...any) *VNode { return createElement("textarea", args) }

// El builds an element with an arbitrary tag, for anything not covered by
// the named constructors.
func El(tag string, args ...any) *VNode { return createElement(tag, args) }
