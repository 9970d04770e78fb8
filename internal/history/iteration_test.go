package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manash/genstate/pkg/models"
)

func pushPrompts(t *testing.T, h *IterationHistory, prompts ...string) {
	t.Helper()
	for _, p := range prompts {
		it := models.Iteration{Index: h.Len(), Seq: h.Len() + len(h.Archived()), Prompt: p, Timestamp: time.Now()}
		require.NoError(t, h.Push(it))
	}
}

func currentPrompt(t *testing.T, h *IterationHistory) string {
	t.Helper()
	cur, ok := h.Current()
	require.True(t, ok, "history has no current iteration")
	return cur.Prompt
}

func TestIterationHistory_Scenario(t *testing.T) {
	h := NewIterationHistory()
	pushPrompts(t, h, "A", "B", "C")
	require.Equal(t, 3, h.Len())

	undone, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, "B", undone.Prompt)
	assert.True(t, h.CanRedo())

	redone, err := h.Redo()
	require.NoError(t, err)
	assert.Equal(t, "C", redone.Prompt)

	_, err = h.Rollback(0)
	require.NoError(t, err)
	assert.False(t, h.CanRedo())
	assert.Equal(t, 1, h.Len())

	pushPrompts(t, h, "D")
	d, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, 1, d.Index)
	assert.Equal(t, "D", d.Prompt)
}

func TestIterationHistory_RollbackKeepsLaterIterations(t *testing.T) {
	h := NewIterationHistory()
	pushPrompts(t, h, "A", "B", "C", "D")

	target, err := h.Rollback(1)
	require.NoError(t, err)
	assert.True(t, target.RolledBackTo)
	assert.Equal(t, "B", currentPrompt(t, h))

	for _, idx := range []int{2, 3} {
		it, ok := h.GetIteration(idx)
		require.True(t, ok, "iteration %d should remain retrievable", idx)
		assert.Equal(t, models.StatusInactive, it.Status)
	}
	assert.Len(t, h.Iterations(), 4)

	pushPrompts(t, h, "E")
	e, ok := h.GetIteration(2)
	require.True(t, ok)
	assert.Equal(t, "E", e.Prompt)

	archived := h.Archived()
	require.Len(t, archived, 2)
	assert.Equal(t, "C", archived[0].Prompt)
	assert.Equal(t, "D", archived[1].Prompt)
	for _, it := range archived {
		assert.Equal(t, models.StatusArchived, it.Status)
	}
}

func TestIterationHistory_RollbackOutOfRange(t *testing.T) {
	h := NewIterationHistory()
	_, err := h.Rollback(0)
	assert.ErrorIs(t, err, models.ErrOutOfRange)

	pushPrompts(t, h, "A", "B")
	for _, target := range []int{-1, 2, 10} {
		_, err := h.Rollback(target)
		assert.ErrorIs(t, err, models.ErrOutOfRange, "target %d", target)
	}
	assert.Equal(t, "B", currentPrompt(t, h), "failed rollback must not move the tip")
}

func TestIterationHistory_UndoAfterRollback(t *testing.T) {
	h := NewIterationHistory()
	pushPrompts(t, h, "A", "B", "C", "D")

	_, err := h.Rollback(2)
	require.NoError(t, err)

	prev, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, "B", prev.Prompt)

	next, err := h.Redo()
	require.NoError(t, err)
	assert.Equal(t, "C", next.Prompt)
	assert.False(t, h.CanRedo(), "rolled-back tail is not reachable by redo")
}

func TestIterationHistory_PushAfterUndoArchivesUndone(t *testing.T) {
	h := NewIterationHistory()
	pushPrompts(t, h, "A", "B", "C")

	_, err := h.Undo()
	require.NoError(t, err)
	pushPrompts(t, h, "X")

	assert.False(t, h.CanRedo())
	x, _ := h.GetIteration(2)
	assert.Equal(t, "X", x.Prompt)
	require.Len(t, h.Archived(), 1)
	assert.Equal(t, "C", h.Archived()[0].Prompt)
}

func TestIterationHistory_PushRejectsWrongIndex(t *testing.T) {
	h := NewIterationHistory()
	pushPrompts(t, h, "A")

	err := h.Push(models.Iteration{Index: 5, Prompt: "bad"})
	assert.ErrorIs(t, err, models.ErrInvariant)
}

func TestIterationHistory_EmptyUndoRedo(t *testing.T) {
	h := NewIterationHistory()
	_, err := h.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
	_, ok := h.Current()
	assert.False(t, ok)
	_, ok = h.GetIteration(0)
	assert.False(t, ok)
}

func TestIterationHistory_ReturnedIterationsDoNotAlias(t *testing.T) {
	h := NewIterationHistory()
	require.NoError(t, h.Push(models.Iteration{
		Index:  0,
		Prompt: "A",
		Result: models.GenerationResult{Metadata: models.GenerationMetadata{Extra: map[string]any{"k": "v"}}},
	}))

	cur, _ := h.Current()
	cur.Prompt = "mutated"
	cur.Result.Metadata.Extra["k"] = "mutated"

	again, _ := h.Current()
	assert.Equal(t, "A", again.Prompt)
	assert.Equal(t, "v", again.Result.Metadata.Extra["k"])
}

func TestRestoreIterationHistory(t *testing.T) {
	h := NewIterationHistory()
	pushPrompts(t, h, "A", "B", "C", "D")
	_, err := h.Undo()
	require.NoError(t, err)
	_, err = h.Undo()
	require.NoError(t, err)

	restored, err := RestoreIterationHistory(h.Iterations(), h.Archived())
	require.NoError(t, err)

	assert.Equal(t, "B", currentPrompt(t, restored))
	assert.Equal(t, h.UndoDepth(), restored.UndoDepth())
	assert.Equal(t, h.RedoDepth(), restored.RedoDepth())

	next, err := restored.Redo()
	require.NoError(t, err)
	assert.Equal(t, "C", next.Prompt)
}

func TestRestoreIterationHistory_RedoStaysBounded(t *testing.T) {
	h := NewIterationHistory()
	for i := 0; i < MaxPast+10; i++ {
		pushPrompts(t, h, "p")
	}
	for i := 0; i < 3; i++ {
		_, err := h.Undo()
		require.NoError(t, err)
	}

	restored, err := RestoreIterationHistory(h.Iterations(), nil)
	require.NoError(t, err)
	require.Equal(t, 3, restored.RedoDepth())

	for restored.CanRedo() {
		_, err := restored.Redo()
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, restored.UndoDepth(), MaxPast)

	cur, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, MaxPast+9, cur.Index)
}

func TestRestoreIterationHistory_AfterRollback(t *testing.T) {
	h := NewIterationHistory()
	pushPrompts(t, h, "A", "B", "C")
	_, err := h.Rollback(0)
	require.NoError(t, err)

	restored, err := RestoreIterationHistory(h.Iterations(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Len())
	assert.False(t, restored.CanRedo())
	assert.False(t, restored.CanUndo())
}

func TestRestoreIterationHistory_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		timeline []models.Iteration
	}{
		{
			name:     "index mismatch",
			timeline: []models.Iteration{{Index: 0}, {Index: 2}},
		},
		{
			name: "active after inactive",
			timeline: []models.Iteration{
				{Index: 0, Status: models.StatusActive},
				{Index: 1, Status: models.StatusInactive},
				{Index: 2, Status: models.StatusActive},
			},
		},
		{
			name:     "nothing active",
			timeline: []models.Iteration{{Index: 0, Status: models.StatusUndone}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RestoreIterationHistory(tt.timeline, nil)
			assert.ErrorIs(t, err, models.ErrInvariant)
		})
	}
}

func TestIterationHistory_CloneIsIndependent(t *testing.T) {
	h := NewIterationHistory()
	pushPrompts(t, h, "A", "B")

	c := h.Clone()
	pushPrompts(t, c, "C")
	_, err := c.Rollback(0)
	require.NoError(t, err)

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "B", currentPrompt(t, h))
	it, _ := h.GetIteration(0)
	assert.False(t, it.RolledBackTo)
}
