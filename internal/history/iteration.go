package history

import (
	"fmt"

	"github.com/manash/genstate/pkg/models"
)

// IterationHistory is the undo/redo/rollback state of one session's image
// timeline. The stack holds timeline indices; the iterations themselves are
// never deleted. Iterations abandoned by a new branch move to the archive.
type IterationHistory struct {
	timeline []models.Iteration
	archived []models.Iteration
	stack    *Stack[int]
}

func NewIterationHistory() *IterationHistory {
	return &IterationHistory{stack: NewStack[int](MaxPast, nil)}
}

// RestoreIterationHistory rebuilds a history from a persisted timeline. The
// present is the last active iteration, past holds the active iterations
// before it and future the contiguous run of undone iterations after it.
func RestoreIterationHistory(timeline, archived []models.Iteration) (*IterationHistory, error) {
	h := NewIterationHistory()
	h.timeline = models.CloneIterations(timeline)
	h.archived = models.CloneIterations(archived)

	present := -1
	for i, it := range h.timeline {
		if it.Index != i {
			return nil, fmt.Errorf("%w: iteration at position %d has index %d", models.ErrInvariant, i, it.Index)
		}
		if !it.Active() {
			continue
		}
		if present != i-1 {
			return nil, fmt.Errorf("%w: active iteration %d follows an inactive one", models.ErrInvariant, i)
		}
		present = i
	}
	if present < 0 {
		if len(h.timeline) > 0 {
			return nil, fmt.Errorf("%w: timeline of %d iterations has no active entry", models.ErrInvariant, len(h.timeline))
		}
		return h, nil
	}

	past := make([]int, present)
	for i := range past {
		past[i] = i
	}
	h.stack.Reset(past, present)

	var future []int
	for i := present + 1; i < len(h.timeline) && h.timeline[i].Status == models.StatusUndone; i++ {
		future = append(future, i)
	}
	h.stack.SetFuture(future)
	return h, nil
}

// Len is the number of iterations on the active branch, which is also the
// index the next pushed iteration receives.
func (h *IterationHistory) Len() int {
	return h.present() + 1
}

func (h *IterationHistory) present() int {
	idx, ok := h.stack.Present()
	if !ok {
		return -1
	}
	return idx
}

// Push appends it as the new tip. Iterations past the current position are
// archived first, so the redo future is always empty afterwards.
func (h *IterationHistory) Push(it models.Iteration) error {
	if it.Index != h.Len() {
		return fmt.Errorf("%w: pushed index %d, expected %d", models.ErrInvariant, it.Index, h.Len())
	}

	cut := h.present() + 1
	for _, stale := range h.timeline[cut:] {
		stale.Status = models.StatusArchived
		h.archived = append(h.archived, stale)
	}
	h.timeline = h.timeline[:cut]

	it = it.Clone()
	it.Status = models.StatusActive
	h.timeline = append(h.timeline, it)
	return h.stack.Push(it.Index)
}

func (h *IterationHistory) Undo() (models.Iteration, error) {
	prev := h.present()
	idx, err := h.stack.Undo()
	if err != nil {
		return models.Iteration{}, err
	}
	h.timeline[prev].Status = models.StatusUndone
	return h.timeline[idx].Clone(), nil
}

func (h *IterationHistory) Redo() (models.Iteration, error) {
	idx, err := h.stack.Redo()
	if err != nil {
		return models.Iteration{}, err
	}
	h.timeline[idx].Status = models.StatusActive
	return h.timeline[idx].Clone(), nil
}

// Rollback makes target the tip. Later iterations stay in the timeline as
// inactive until the next push archives them.
func (h *IterationHistory) Rollback(target int) (models.Iteration, error) {
	if target < 0 || target >= len(h.timeline) {
		return models.Iteration{}, fmt.Errorf("%w: rollback target %d, timeline has %d iterations",
			models.ErrOutOfRange, target, len(h.timeline))
	}

	for i := range h.timeline {
		if i <= target {
			h.timeline[i].Status = models.StatusActive
		} else {
			h.timeline[i].Status = models.StatusInactive
		}
	}
	h.timeline[target].RolledBackTo = true

	past := make([]int, target)
	for i := range past {
		past[i] = i
	}
	h.stack.Reset(past, target)
	return h.timeline[target].Clone(), nil
}

func (h *IterationHistory) Current() (models.Iteration, bool) {
	idx := h.present()
	if idx < 0 {
		return models.Iteration{}, false
	}
	return h.timeline[idx].Clone(), true
}

func (h *IterationHistory) GetIteration(index int) (models.Iteration, bool) {
	if index < 0 || index >= len(h.timeline) {
		return models.Iteration{}, false
	}
	return h.timeline[index].Clone(), true
}

// Iterations returns the whole timeline, inactive and undone entries included.
func (h *IterationHistory) Iterations() []models.Iteration {
	return models.CloneIterations(h.timeline)
}

func (h *IterationHistory) Archived() []models.Iteration {
	return models.CloneIterations(h.archived)
}

func (h *IterationHistory) CanUndo() bool { return h.stack.CanUndo() }

func (h *IterationHistory) CanRedo() bool { return h.stack.CanRedo() }

func (h *IterationHistory) UndoDepth() int { return h.stack.PastLen() }

func (h *IterationHistory) RedoDepth() int { return h.stack.FutureLen() }

func (h *IterationHistory) Clone() *IterationHistory {
	return &IterationHistory{
		timeline: models.CloneIterations(h.timeline),
		archived: models.CloneIterations(h.archived),
		stack:    h.stack.Clone(),
	}
}
