package loom_test

import (
	"strings"
	"testing"

	"github.com/loomui/loom"
	"github.com/loomui/loom/pkg/loomtest"
)

// todoList is a small component exercising the public API end to end:
// state, lazy state, effects, keyed lists and event handlers.
func todoList(in *loom.Instance) *loom.VNode {
	items, setItems := loom.UseStateLazy(in, func() []string {
		return []string{"write tests"}
	})
	draft, setDraft := loom.UseState(in, "")
	commits, setCommits := loom.UseState(in, 0)

	loom.UseEffect(in, func() loom.Cleanup {
		setCommits.Update(func(n int) int { return n + 1 })
		return nil
	}, []any{len(items)})

	return loom.Div(
		loom.Input(
			loom.Value(draft),
			loom.OnInput(func(payload map[string]any) {
				if v, ok := payload["value"].(string); ok {
					setDraft.Set(v)
				}
			}),
		),
		loom.Button(
			loom.OnClick(func(map[string]any) {
				if draft == "" {
					return
				}
				next := append(append([]string(nil), items...), draft)
				setItems.Set(next)
				setDraft.Set("")
			}),
			loom.Text("add"),
		),
		loom.Ul(
			loom.Range(items, func(item string, i int) *loom.VNode {
				return loom.Li(loom.Key(item), loom.Text(item))
			}),
		),
		loom.Footer(loom.Textf("%d list changes", commits)),
	)
}

func TestTodoListAddsItems(t *testing.T) {
	h := loomtest.Mount(t, todoList)
	h.ExpectContains("write tests")
	h.ExpectContains("1 list changes")

	h.Input("h2", "ship it")
	h.Click("h3")

	h.ExpectContains("ship it")
	h.ExpectContains("2 list changes")
}

func TestTodoListIgnoresEmptyDraft(t *testing.T) {
	h := loomtest.Mount(t, todoList)

	h.Click("h3")

	html := h.HTML()
	if got := strings.Count(html, "<li"); got != 1 {
		t.Errorf("item count = %d, want 1", got)
	}
}

func TestBatchedUpdates(t *testing.T) {
	var set *loom.Setter[int]
	var renders int
	component := func(in *loom.Instance) *loom.VNode {
		renders++
		var n int
		n, set = loom.UseState(in, 0)
		return loom.Span(loom.Textf("%d", n))
	}

	h := loomtest.Mount(t, component)

	h.Scheduler().Batch(func() {
		set.Set(1)
		set.Set(2)
		set.Set(3)
	})
	h.Flush()

	h.ExpectContains(">3<")
	if renders != 2 {
		t.Errorf("renders = %d, want 2", renders)
	}
}
