package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manash/genstate/pkg/models"
)

func tree(label string) []models.Component {
	return []models.Component{{
		ID:         "root",
		Type:       "container",
		Properties: map[string]any{"title": label},
		Children:   []models.Component{{ID: "button", Type: "button", Label: label}},
	}}
}

func TestWireframeHistory_UndoRestoresPreviousTree(t *testing.T) {
	h := NewWireframeHistory("s1", "wf1")
	require.NoError(t, h.Push(tree("v1")))
	require.NoError(t, h.Push(tree("v2")))

	got, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, "v1", got[0].Children[0].Label)

	got[0].Children[0].Label = "mutated"
	got[0].Properties["title"] = "mutated"

	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, "v1", cur[0].Children[0].Label)
	assert.Equal(t, "v1", cur[0].Properties["title"])

	redo, err := h.Redo()
	require.NoError(t, err)
	assert.Equal(t, "v2", redo[0].Children[0].Label)
}

func TestWireframeHistory_PushCopiesInput(t *testing.T) {
	h := NewWireframeHistory("s1", "wf1")
	input := tree("v1")
	require.NoError(t, h.Push(input))

	input[0].Children[0].Label = "changed after push"

	cur, _ := h.Current()
	assert.Equal(t, "v1", cur[0].Children[0].Label)
}

func TestWireframeHistory_InitializeIsIdempotent(t *testing.T) {
	h := NewWireframeHistory("s1", "wf1")
	assert.True(t, h.Initialize(tree("seed")))
	assert.False(t, h.Initialize(tree("other")))

	cur, _ := h.Current()
	assert.Equal(t, "seed", cur[0].Children[0].Label)
	assert.False(t, h.CanUndo())

	require.NoError(t, h.Push(tree("edit")))
	assert.False(t, h.Initialize(tree("late")))
	assert.True(t, h.CanUndo())
}

func TestWireframeHistory_PastBounded(t *testing.T) {
	h := NewWireframeHistory("s1", "wf1")
	h.Initialize(nil)
	for i := 0; i < MaxPast+10; i++ {
		require.NoError(t, h.Push(tree("x")))
	}
	assert.Equal(t, MaxPast, h.UndoDepth())
}

func TestWireframeHistory_SeparateInstances(t *testing.T) {
	a := NewWireframeHistory("s1", "wf-a")
	b := NewWireframeHistory("s1", "wf-b")
	require.NoError(t, a.Push(tree("a1")))
	require.NoError(t, a.Push(tree("a2")))
	require.NoError(t, b.Push(tree("b1")))

	_, err := a.Undo()
	require.NoError(t, err)

	cur, _ := b.Current()
	assert.Equal(t, "b1", cur[0].Children[0].Label)
	assert.False(t, b.CanUndo())
}
