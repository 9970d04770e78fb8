package history

import "github.com/manash/genstate/pkg/models"

// WireframeHistory is the undo/redo stack of one wireframe's component tree.
// Every snapshot is deep-copied on the way in and out.
type WireframeHistory struct {
	SessionID   string
	WireframeID string

	stack       *Stack[[]models.Component]
	initialized bool
}

func NewWireframeHistory(sessionID, wireframeID string) *WireframeHistory {
	return &WireframeHistory{
		SessionID:   sessionID,
		WireframeID: wireframeID,
		stack:       NewStack(MaxPast, models.CloneComponents),
	}
}

// Initialize seeds the stack with the wireframe's current tree. It reports
// whether seeding happened; later calls are no-ops.
func (h *WireframeHistory) Initialize(components []models.Component) bool {
	if h.initialized {
		return false
	}
	h.stack.Reset(nil, components)
	h.initialized = true
	return true
}

func (h *WireframeHistory) Push(components []models.Component) error {
	h.initialized = true
	return h.stack.Push(components)
}

func (h *WireframeHistory) Undo() ([]models.Component, error) {
	return h.stack.Undo()
}

func (h *WireframeHistory) Redo() ([]models.Component, error) {
	return h.stack.Redo()
}

func (h *WireframeHistory) Current() ([]models.Component, bool) {
	return h.stack.Present()
}

func (h *WireframeHistory) CanUndo() bool { return h.stack.CanUndo() }

func (h *WireframeHistory) CanRedo() bool { return h.stack.CanRedo() }

func (h *WireframeHistory) UndoDepth() int { return h.stack.PastLen() }

func (h *WireframeHistory) Clone() *WireframeHistory {
	return &WireframeHistory{
		SessionID:   h.SessionID,
		WireframeID: h.WireframeID,
		stack:       h.stack.Clone(),
		initialized: h.initialized,
	}
}
