package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manash/genstate/internal/history"
	"github.com/manash/genstate/internal/storage"
	"github.com/manash/genstate/pkg/models"
)

func wireframeKey(sessionID, wireframeID string) string {
	return sessionID + "/" + wireframeID
}

// CreateWireframe stores a new wireframe for the session, makes it the
// session's current one and seeds its undo history with components.
func (s *Store) CreateWireframe(ctx context.Context, sessionID, description string, width, height int, components []models.Component) (wf *models.Wireframe, err error) {
	defer s.track("createWireframe", sessionID)(&err)
	defer s.lock(sessionID)()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wf = &models.Wireframe{
		ID:          s.newID(),
		SessionID:   sessionID,
		Description: description,
		Components:  models.CloneComponents(components),
		Metadata: models.WireframeMetadata{
			Width:     width,
			Height:    height,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if wf.Components == nil {
		wf.Components = []models.Component{}
	}
	if err := s.writeWireframe(ctx, wf); err != nil {
		return nil, err
	}

	sess.CurrentWireframeID = wf.ID
	if err := s.write(ctx, sess); err != nil {
		return nil, err
	}

	h := history.NewWireframeHistory(sessionID, wf.ID)
	h.Initialize(wf.Components)
	s.wireframes.put(wireframeKey(sessionID, wf.ID), h)
	s.logger.Debug("wireframe created", "session", sessionID, "wireframe", wf.ID,
		"components", models.CountComponents(wf.Components))
	return wf.Clone(), nil
}

func (s *Store) LoadWireframe(ctx context.Context, sessionID, wireframeID string) (wf *models.Wireframe, err error) {
	defer s.track("loadWireframe", sessionID)(&err)
	return s.loadWireframe(ctx, sessionID, wireframeID)
}

func (s *Store) loadWireframe(ctx context.Context, sessionID, wireframeID string) (*models.Wireframe, error) {
	data, err := s.backend.ReadWireframe(ctx, sessionID, wireframeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrWireframeNotFound, wireframeKey(sessionID, wireframeID))
	}
	if err != nil {
		return nil, err
	}

	var wf models.Wireframe
	if err := json.Unmarshal(data, &wf); err != nil {
		s.logger.Warn("corrupted wireframe record", "session", sessionID, "wireframe", wireframeID, "error", err)
		return nil, fmt.Errorf("%w: %s: corrupted record", ErrWireframeNotFound, wireframeKey(sessionID, wireframeID))
	}
	return &wf, nil
}

func (s *Store) writeWireframe(ctx context.Context, wf *models.Wireframe) error {
	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("failed to encode wireframe %s: %w", wf.ID, err)
	}
	if err := s.backend.WriteWireframe(ctx, wf.SessionID, wf.ID, data); err != nil {
		s.logger.Error("failed to persist wireframe", "session", wf.SessionID, "wireframe", wf.ID, "error", err)
		return err
	}
	return nil
}

// ListWireframes returns the session's readable wireframes.
func (s *Store) ListWireframes(ctx context.Context, sessionID string) (wfs []*models.Wireframe, err error) {
	defer s.track("listWireframes", sessionID)(&err)

	if _, err := s.load(ctx, sessionID); err != nil {
		return nil, err
	}
	ids, err := s.backend.ListWireframes(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	wfs = make([]*models.Wireframe, 0, len(ids))
	for _, id := range ids {
		wf, err := s.loadWireframe(ctx, sessionID, id)
		if errors.Is(err, ErrWireframeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		wfs = append(wfs, wf)
	}
	return wfs, nil
}

// CurrentWireframe returns the wireframe most recently created for the
// session.
func (s *Store) CurrentWireframe(ctx context.Context, sessionID string) (wf *models.Wireframe, err error) {
	defer s.track("currentWireframe", sessionID)(&err)

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.CurrentWireframeID == "" {
		return nil, fmt.Errorf("%w: session %s has no wireframe", ErrWireframeNotFound, sessionID)
	}
	return s.loadWireframe(ctx, sessionID, sess.CurrentWireframeID)
}

func (s *Store) DeleteWireframe(ctx context.Context, sessionID, wireframeID string) (err error) {
	defer s.track("deleteWireframe", sessionID)(&err)
	defer s.lock(sessionID)()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := s.loadWireframe(ctx, sessionID, wireframeID); err != nil {
		return err
	}
	if err := s.backend.DeleteWireframe(ctx, sessionID, wireframeID); err != nil {
		return err
	}
	s.wireframes.delete(wireframeKey(sessionID, wireframeID))

	if sess.CurrentWireframeID == wireframeID {
		sess.CurrentWireframeID = ""
		if err := s.write(ctx, sess); err != nil {
			return err
		}
	}
	return nil
}

// InitializeWireframeHistory seeds the wireframe's undo history from its
// persisted tree. It reports whether seeding happened; an already live
// history is left alone.
func (s *Store) InitializeWireframeHistory(ctx context.Context, sessionID, wireframeID string) (seeded bool, err error) {
	defer s.track("initializeWireframeHistory", sessionID)(&err)

	_, err = s.liveWireframeHistory(ctx, sessionID, wireframeID, func() { seeded = true })
	return seeded, err
}

func (s *Store) liveWireframeHistory(ctx context.Context, sessionID, wireframeID string, onSeed func()) (*history.WireframeHistory, error) {
	return s.wireframes.getOrLoad(wireframeKey(sessionID, wireframeID), func() (*history.WireframeHistory, error) {
		wf, err := s.loadWireframe(ctx, sessionID, wireframeID)
		if err != nil {
			return nil, err
		}
		h := history.NewWireframeHistory(sessionID, wireframeID)
		h.Initialize(wf.Components)
		if onSeed != nil {
			onSeed()
		}
		return h, nil
	})
}

// mutateWireframe applies fn to the persisted wireframe, records the new
// tree in its history and persists both. Nothing changes when fn or the
// write fails.
func (s *Store) mutateWireframe(ctx context.Context, sessionID, wireframeID string, fn func(wf *models.Wireframe) error) (*models.Wireframe, error) {
	defer s.lock(sessionID)()

	wf, err := s.loadWireframe(ctx, sessionID, wireframeID)
	if err != nil {
		return nil, err
	}
	live, err := s.liveWireframeHistory(ctx, sessionID, wireframeID, nil)
	if err != nil {
		return nil, err
	}

	h := live.Clone()
	if err := fn(wf); err != nil {
		return nil, err
	}
	if err := h.Push(wf.Components); err != nil {
		return nil, err
	}
	wf.Metadata.UpdatedAt = s.now()
	if err := s.writeWireframe(ctx, wf); err != nil {
		return nil, err
	}
	s.wireframes.put(wireframeKey(sessionID, wireframeID), h)
	return wf.Clone(), nil
}

// SaveWireframe replaces the stored wireframe with wf and records its tree
// as a new undo step.
func (s *Store) SaveWireframe(ctx context.Context, wf *models.Wireframe) (saved *models.Wireframe, err error) {
	if wf == nil {
		return nil, errors.New("wireframe cannot be nil")
	}
	defer s.track("saveWireframe", wf.SessionID)(&err)

	return s.mutateWireframe(ctx, wf.SessionID, wf.ID, func(stored *models.Wireframe) error {
		stored.Description = wf.Description
		stored.Components = models.CloneComponents(wf.Components)
		stored.Metadata.Width = wf.Metadata.Width
		stored.Metadata.Height = wf.Metadata.Height
		return nil
	})
}

// UpdateWireframe replaces the component tree and records an undo step.
func (s *Store) UpdateWireframe(ctx context.Context, sessionID, wireframeID string, components []models.Component) (wf *models.Wireframe, err error) {
	defer s.track("updateWireframe", sessionID)(&err)

	return s.mutateWireframe(ctx, sessionID, wireframeID, func(wf *models.Wireframe) error {
		wf.Components = models.CloneComponents(components)
		if wf.Components == nil {
			wf.Components = []models.Component{}
		}
		return nil
	})
}

func (s *Store) UpdateComponent(ctx context.Context, sessionID, wireframeID, componentID string, patch models.ComponentPatch) (wf *models.Wireframe, err error) {
	defer s.track("updateComponent", sessionID)(&err)

	return s.mutateWireframe(ctx, sessionID, wireframeID, func(wf *models.Wireframe) error {
		c := models.FindComponent(wf.Components, componentID)
		if c == nil {
			return fmt.Errorf("%w: %s", models.ErrComponentNotFound, componentID)
		}
		patch.Apply(c)
		return nil
	})
}

// AddComponent inserts c under parentID, or at the root when parentID is
// empty. A component without an id is given one.
func (s *Store) AddComponent(ctx context.Context, sessionID, wireframeID, parentID string, c models.Component) (wf *models.Wireframe, err error) {
	defer s.track("addComponent", sessionID)(&err)

	c = c.Clone()
	if c.ID == "" {
		c.ID = s.newID()
	}
	return s.mutateWireframe(ctx, sessionID, wireframeID, func(wf *models.Wireframe) error {
		if models.FindComponent(wf.Components, c.ID) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateComponent, c.ID)
		}
		if parentID == "" {
			wf.Components = append(wf.Components, c)
			return nil
		}
		parent := models.FindComponent(wf.Components, parentID)
		if parent == nil {
			return fmt.Errorf("%w: parent %s", models.ErrComponentNotFound, parentID)
		}
		parent.Children = append(parent.Children, c)
		return nil
	})
}

func (s *Store) RemoveComponent(ctx context.Context, sessionID, wireframeID, componentID string) (wf *models.Wireframe, err error) {
	defer s.track("removeComponent", sessionID)(&err)

	return s.mutateWireframe(ctx, sessionID, wireframeID, func(wf *models.Wireframe) error {
		rest, ok := models.RemoveComponent(wf.Components, componentID)
		if !ok {
			return fmt.Errorf("%w: %s", models.ErrComponentNotFound, componentID)
		}
		wf.Components = rest
		return nil
	})
}

func (s *Store) UndoWireframe(ctx context.Context, sessionID, wireframeID string) (wf *models.Wireframe, err error) {
	defer s.track("undoWireframe", sessionID)(&err)
	return s.stepWireframe(ctx, sessionID, wireframeID, (*history.WireframeHistory).Undo)
}

func (s *Store) RedoWireframe(ctx context.Context, sessionID, wireframeID string) (wf *models.Wireframe, err error) {
	defer s.track("redoWireframe", sessionID)(&err)
	return s.stepWireframe(ctx, sessionID, wireframeID, (*history.WireframeHistory).Redo)
}

func (s *Store) stepWireframe(ctx context.Context, sessionID, wireframeID string, move func(*history.WireframeHistory) ([]models.Component, error)) (*models.Wireframe, error) {
	defer s.lock(sessionID)()

	wf, err := s.loadWireframe(ctx, sessionID, wireframeID)
	if err != nil {
		return nil, err
	}
	live, err := s.liveWireframeHistory(ctx, sessionID, wireframeID, nil)
	if err != nil {
		return nil, err
	}

	h := live.Clone()
	components, err := move(h)
	if err != nil {
		return nil, err
	}
	wf.Components = components
	wf.Metadata.UpdatedAt = s.now()
	if err := s.writeWireframe(ctx, wf); err != nil {
		return nil, err
	}
	s.wireframes.put(wireframeKey(sessionID, wireframeID), h)
	return wf.Clone(), nil
}

func (s *Store) CanUndoWireframe(ctx context.Context, sessionID, wireframeID string) (bool, error) {
	h, err := s.liveWireframeHistory(ctx, sessionID, wireframeID, nil)
	if err != nil {
		return false, err
	}
	return h.CanUndo(), nil
}

func (s *Store) CanRedoWireframe(ctx context.Context, sessionID, wireframeID string) (bool, error) {
	h, err := s.liveWireframeHistory(ctx, sessionID, wireframeID, nil)
	if err != nil {
		return false, err
	}
	return h.CanRedo(), nil
}
