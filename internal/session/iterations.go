package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/manash/genstate/internal/history"
	"github.com/manash/genstate/internal/reference"
	"github.com/manash/genstate/pkg/models"
)

// mutateHistory applies fn to a copy of the session's live history, persists
// the result and installs the copy. Nothing changes if fn or the write fails.
func (s *Store) mutateHistory(ctx context.Context, id string, fn func(sess *Session, h *history.IterationHistory) error) error {
	defer s.lock(id)()

	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	live, err := s.liveHistory(ctx, id, sess)
	if err != nil {
		return err
	}

	h := live.Clone()
	if err := fn(sess, h); err != nil {
		return err
	}
	sess.Iterations = h.Iterations()
	sess.Archived = h.Archived()
	if err := s.write(ctx, sess); err != nil {
		return err
	}
	s.histories.put(id, h)
	return nil
}

// AddIteration records a new generation step at the tip of the timeline.
// Image bytes in result are written to the image store and replaced by a
// reference before the record is persisted.
func (s *Store) AddIteration(ctx context.Context, id, prompt string, result models.GenerationResult) (it *models.Iteration, err error) {
	defer s.track("addIteration", id)(&err)

	if strings.TrimSpace(prompt) == "" {
		return nil, models.ErrEmptyPrompt
	}

	err = s.mutateHistory(ctx, id, func(sess *Session, h *history.IterationHistory) error {
		next := models.Iteration{
			Index:     h.Len(),
			Seq:       sess.Metadata.TotalIterations,
			Prompt:    prompt,
			Timestamp: s.now(),
			Result:    result.Clone(),
		}
		if len(next.Result.Image) > 0 {
			if s.images == nil {
				s.logger.Warn("discarding image bytes, no image store configured", "session", id)
			} else {
				ref, err := s.images.Save(ctx, id, next.Index, next.Seq, next.Result.MimeType, next.Result.Image)
				if err != nil {
					return fmt.Errorf("failed to save image: %w", err)
				}
				next.Result.ImageRef = ref
			}
			next.Result.Image = nil
		}

		if err := h.Push(next); err != nil {
			return err
		}
		sess.Metadata.TotalIterations++
		sess.Metadata.LastPrompt = prompt
		cur, _ := h.Current()
		it = &cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("iteration added", "session", id, "index", it.Index, "seq", it.Seq)
	return it, nil
}

// Undo steps back one iteration and returns the new current one.
func (s *Store) Undo(ctx context.Context, id string) (it *models.Iteration, err error) {
	defer s.track("undo", id)(&err)
	return s.step(ctx, id, (*history.IterationHistory).Undo)
}

func (s *Store) Redo(ctx context.Context, id string) (it *models.Iteration, err error) {
	defer s.track("redo", id)(&err)
	return s.step(ctx, id, (*history.IterationHistory).Redo)
}

// Rollback makes the iteration at index the current one. Later iterations
// become inactive and are archived by the next AddIteration.
func (s *Store) Rollback(ctx context.Context, id string, index int) (it *models.Iteration, err error) {
	defer s.track("rollback", id)(&err)
	return s.step(ctx, id, func(h *history.IterationHistory) (models.Iteration, error) {
		return h.Rollback(index)
	})
}

func (s *Store) step(ctx context.Context, id string, move func(*history.IterationHistory) (models.Iteration, error)) (*models.Iteration, error) {
	var out models.Iteration
	err := s.mutateHistory(ctx, id, func(_ *Session, h *history.IterationHistory) error {
		var err error
		out, err = move(h)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CanUndo(ctx context.Context, id string) (bool, error) {
	h, err := s.liveHistory(ctx, id, nil)
	if err != nil {
		return false, err
	}
	return h.CanUndo(), nil
}

func (s *Store) CanRedo(ctx context.Context, id string) (bool, error) {
	h, err := s.liveHistory(ctx, id, nil)
	if err != nil {
		return false, err
	}
	return h.CanRedo(), nil
}

// CurrentIteration returns the tip of the active branch. It fails with
// ErrOutOfRange when the session has no iterations yet.
func (s *Store) CurrentIteration(ctx context.Context, id string) (it *models.Iteration, err error) {
	defer s.track("currentIteration", id)(&err)

	h, err := s.liveHistory(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	cur, ok := h.Current()
	if !ok {
		return nil, fmt.Errorf("%w: session %s has no iterations", models.ErrOutOfRange, id)
	}
	return &cur, nil
}

// GetIteration returns any timeline entry, inactive and undone ones included.
func (s *Store) GetIteration(ctx context.Context, id string, index int) (it *models.Iteration, err error) {
	defer s.track("getIteration", id)(&err)

	h, err := s.liveHistory(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	got, ok := h.GetIteration(index)
	if !ok {
		return nil, fmt.Errorf("%w: iteration %d", models.ErrOutOfRange, index)
	}
	return &got, nil
}

func (s *Store) ListIterations(ctx context.Context, id string) (iters []models.Iteration, err error) {
	defer s.track("listIterations", id)(&err)

	h, err := s.liveHistory(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return h.Iterations(), nil
}

// ArchivedIterations returns the iterations orphaned by branching, oldest
// first.
func (s *Store) ArchivedIterations(ctx context.Context, id string) (iters []models.Iteration, err error) {
	defer s.track("archivedIterations", id)(&err)

	h, err := s.liveHistory(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return h.Archived(), nil
}

// ResolveReference maps ref ("latest", "first", an index or prompt text) to
// a timeline index of the session.
func (s *Store) ResolveReference(ctx context.Context, id, ref string) (res reference.Resolution, err error) {
	defer s.track("resolveReference", id)(&err)

	h, err := s.liveHistory(ctx, id, nil)
	if err != nil {
		return reference.Resolution{}, err
	}
	return reference.Resolve(h.Iterations(), ref)
}
