package focus

import (
	"github.com/five82/stagehand/internal/catalog"
	"github.com/five82/stagehand/internal/gamepad"
)

// Item is one entry in the flattened action sequence.
type Item struct {
	ID    string
	Label string
	Stage string
	Group string
}

// Intent is what a key press asked the navigator to do.
type Intent int

const (
	IntentNone Intent = iota
	IntentMove
	IntentActivate
)

// Flatten walks stages depth-first (stage, group, action) and returns every
// action with an id in display order.
func Flatten(stages []catalog.Stage) []Item {
	var items []Item
	for _, st := range stages {
		for _, g := range st.Groups {
			for _, a := range g.Actions {
				if a.ID == "" {
					continue
				}
				items = append(items, Item{ID: a.ID, Label: a.DisplayLabel(), Stage: st.ID, Group: g.ID})
			}
		}
	}
	return items
}

// Navigator tracks focus over a flattened action sequence. It is driven from
// a single goroutine (the UI update loop) and is not safe for concurrent use.
type Navigator struct {
	items   []Item
	index   int
	onFocus func(Item)
	pad     gamepad.State
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithOnFocus runs fn whenever focus moves to a different item.
func WithOnFocus(fn func(Item)) Option {
	return func(n *Navigator) { n.onFocus = fn }
}

// New builds a navigator over items with focus on the first one.
func New(items []Item, opts ...Option) *Navigator {
	n := &Navigator{}
	for _, opt := range opts {
		opt(n)
	}
	n.SetItems(items)
	return n
}

// SetItems replaces the sequence. Focus stays on the same id when it is still
// present; otherwise the index is clamped into range.
func (n *Navigator) SetItems(items []Item) {
	var current string
	if it, ok := n.Focused(); ok {
		current = it.ID
	}
	n.items = append([]Item(nil), items...)
	if current != "" {
		for i, it := range n.items {
			if it.ID == current {
				n.index = i
				return
			}
		}
	}
	n.clamp()
}

func (n *Navigator) clamp() {
	switch {
	case len(n.items) == 0:
		n.index = 0
	case n.index >= len(n.items):
		n.index = len(n.items) - 1
	case n.index < 0:
		n.index = 0
	}
}

// Items returns a copy of the sequence.
func (n *Navigator) Items() []Item { return append([]Item(nil), n.items...) }

// Len returns the sequence length.
func (n *Navigator) Len() int { return len(n.items) }

// Index returns the focused index. It is meaningless when Len is zero.
func (n *Navigator) Index() int { return n.index }

// Focused returns the focused item.
func (n *Navigator) Focused() (Item, bool) {
	if len(n.items) == 0 {
		return Item{}, false
	}
	return n.items[n.index], true
}

// Next moves focus forward, wrapping past the end.
func (n *Navigator) Next() (Item, bool) { return n.move(1) }

// Prev moves focus back, wrapping past the start.
func (n *Navigator) Prev() (Item, bool) { return n.move(-1) }

func (n *Navigator) move(delta int) (Item, bool) {
	if len(n.items) == 0 {
		return Item{}, false
	}
	size := len(n.items)
	n.index = ((n.index+delta)%size + size) % size
	it := n.items[n.index]
	if n.onFocus != nil {
		n.onFocus(it)
	}
	return it, true
}

// FocusID moves focus to id. It reports false when id is not in the sequence.
func (n *Navigator) FocusID(id string) bool {
	for i, it := range n.items {
		if it.ID != id {
			continue
		}
		if i != n.index {
			n.index = i
			if n.onFocus != nil {
				n.onFocus(it)
			}
		}
		return true
	}
	return false
}

// Activate returns the item to execute, if any.
func (n *Navigator) Activate() (Item, bool) { return n.Focused() }

// HandleKey applies a key press. Keys use bubbletea names: "right", "left",
// "enter" and " " (or "space").
func (n *Navigator) HandleKey(key string) (Item, Intent) {
	switch key {
	case "right":
		if it, ok := n.Next(); ok {
			return it, IntentMove
		}
	case "left":
		if it, ok := n.Prev(); ok {
			return it, IntentMove
		}
	case "enter", " ", "space":
		if it, ok := n.Activate(); ok {
			return it, IntentActivate
		}
	}
	return Item{}, IntentNone
}

// ApplyGamepad feeds one frame of controller state. Buttons act on the press,
// not while held: a d-pad direction moves focus once per press and the
// primary button activates once per press. It returns the item to execute,
// if any.
func (n *Navigator) ApplyGamepad(s gamepad.State) (Item, bool) {
	prev := n.pad
	n.pad = s
	if s.Right && !prev.Right {
		n.Next()
	}
	if s.Left && !prev.Left {
		n.Prev()
	}
	if s.Primary && !prev.Primary {
		return n.Activate()
	}
	return Item{}, false
}
