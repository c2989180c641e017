package focus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/five82/stagehand/internal/catalog"
	"github.com/five82/stagehand/internal/gamepad"
)

func items(ids ...string) []Item {
	out := make([]Item, len(ids))
	for i, id := range ids {
		out[i] = Item{ID: id, Label: id}
	}
	return out
}

func TestFlattenIsDepthFirstAndSkipsMissingIDs(t *testing.T) {
	stages := []catalog.Stage{
		{ID: "s1", Groups: []catalog.Group{
			{ID: "g1", Actions: []catalog.Action{{ID: "a"}, {Label: "no id"}, {ID: "b", Label: "Bee"}}},
			{ID: "g2", Actions: []catalog.Action{{ID: "c"}}},
		}},
		{ID: "s2", Groups: []catalog.Group{
			{ID: "g3", Actions: []catalog.Action{{ID: "d"}}},
		}},
	}

	got := Flatten(stages)
	require.Equal(t, []Item{
		{ID: "a", Label: "a", Stage: "s1", Group: "g1"},
		{ID: "b", Label: "Bee", Stage: "s1", Group: "g1"},
		{ID: "c", Label: "c", Stage: "s1", Group: "g2"},
		{ID: "d", Label: "d", Stage: "s2", Group: "g3"},
	}, got)
	require.Len(t, Flatten(catalog.Default().Stages), 10)
}

func TestNextWrapsAfterNPresses(t *testing.T) {
	for n := 1; n <= 5; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}
		nav := New(items(ids...))
		nav.Next()
		start := nav.Index()
		for i := 0; i < n; i++ {
			nav.Next()
		}
		require.Equal(t, start, nav.Index(), "n=%d", n)
	}
}

func TestPrevWrapsBackwards(t *testing.T) {
	nav := New(items("a", "b", "c"))
	it, ok := nav.Prev()
	require.True(t, ok)
	require.Equal(t, "c", it.ID)
	nav.Prev()
	nav.Prev()
	require.Equal(t, 0, nav.Index())
}

func TestEmptySequenceIsNoop(t *testing.T) {
	nav := New(nil)

	require.NotPanics(t, func() {
		_, intent := nav.HandleKey("right")
		require.Equal(t, IntentNone, intent)
		_, intent = nav.HandleKey("left")
		require.Equal(t, IntentNone, intent)
		_, intent = nav.HandleKey("enter")
		require.Equal(t, IntentNone, intent)
		_, ok := nav.ApplyGamepad(gamepad.State{Left: true, Right: true, Primary: true})
		require.False(t, ok)
	})
	_, ok := nav.Focused()
	require.False(t, ok)
	require.False(t, nav.FocusID("a"))
}

func TestHandleKey(t *testing.T) {
	var focused []string
	nav := New(items("a", "b"), WithOnFocus(func(it Item) { focused = append(focused, it.ID) }))

	it, intent := nav.HandleKey("right")
	require.Equal(t, IntentMove, intent)
	require.Equal(t, "b", it.ID)

	it, intent = nav.HandleKey(" ")
	require.Equal(t, IntentActivate, intent)
	require.Equal(t, "b", it.ID)

	_, intent = nav.HandleKey("enter")
	require.Equal(t, IntentActivate, intent)

	_, intent = nav.HandleKey("x")
	require.Equal(t, IntentNone, intent)

	nav.HandleKey("left")
	require.Equal(t, []string{"b", "a"}, focused)
}

func TestSetItemsKeepsFocusedIDOrClamps(t *testing.T) {
	nav := New(items("a", "b", "c", "d"))
	nav.FocusID("c")

	nav.SetItems(items("c", "d"))
	require.Equal(t, 0, nav.Index())
	it, _ := nav.Focused()
	require.Equal(t, "c", it.ID)

	nav.FocusID("d")
	nav.SetItems(items("x"))
	require.Equal(t, 0, nav.Index())

	nav.SetItems(nil)
	_, ok := nav.Focused()
	require.False(t, ok)

	nav.SetItems(items("y", "z"))
	it, _ = nav.Focused()
	require.Equal(t, "y", it.ID)
}

func TestFocusIDNotifiesOnlyOnChange(t *testing.T) {
	calls := 0
	nav := New(items("a", "b"), WithOnFocus(func(Item) { calls++ }))
	require.True(t, nav.FocusID("a"))
	require.Zero(t, calls)
	require.True(t, nav.FocusID("b"))
	require.Equal(t, 1, calls)
	require.False(t, nav.FocusID("zzz"))
}

func TestApplyGamepadActsOnPress(t *testing.T) {
	nav := New(items("a", "b", "c"))

	_, fire := nav.ApplyGamepad(gamepad.State{Right: true})
	require.False(t, fire)
	require.Equal(t, 1, nav.Index())

	// Still held: no repeat.
	nav.ApplyGamepad(gamepad.State{Right: true})
	require.Equal(t, 1, nav.Index())

	nav.ApplyGamepad(gamepad.State{})
	nav.ApplyGamepad(gamepad.State{Left: true})
	nav.ApplyGamepad(gamepad.State{})
	nav.ApplyGamepad(gamepad.State{Left: true})
	require.Equal(t, 2, nav.Index())

	it, fire := nav.ApplyGamepad(gamepad.State{Primary: true})
	require.True(t, fire)
	require.Equal(t, "c", it.ID)
	_, fire = nav.ApplyGamepad(gamepad.State{Primary: true})
	require.False(t, fire)
}
