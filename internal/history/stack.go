package history

import (
	"errors"
	"fmt"

	"github.com/manash/genstate/pkg/models"
)

// MaxPast bounds the undo depth of every history.
const MaxPast = 50

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Stack is a bounded past/present/future undo stack. Values are passed
// through clone whenever they enter or leave the stack, so callers never
// share memory with stored entries.
type Stack[T any] struct {
	past       []T
	present    T
	hasPresent bool
	future     []T
	limit      int
	clone      func(T) T
}

func NewStack[T any](limit int, clone func(T) T) *Stack[T] {
	if limit <= 0 {
		limit = MaxPast
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Stack[T]{limit: limit, clone: clone}
}

func (s *Stack[T]) Push(v T) error {
	if s.hasPresent {
		s.pushPast(s.present)
	}
	s.present = s.clone(v)
	s.hasPresent = true
	s.future = nil
	return s.check()
}

func (s *Stack[T]) Undo() (T, error) {
	var zero T
	if len(s.past) == 0 {
		return zero, ErrNothingToUndo
	}
	s.future = append([]T{s.present}, s.future...)
	s.present = s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	return s.clone(s.present), nil
}

func (s *Stack[T]) Redo() (T, error) {
	var zero T
	if len(s.future) == 0 {
		return zero, ErrNothingToRedo
	}
	s.pushPast(s.present)
	s.present = s.future[0]
	s.future = s.future[1:]
	return s.clone(s.present), nil
}

// Reset replaces the whole stack: past is taken in oldest-first order and
// truncated to the newest limit entries, future is cleared.
func (s *Stack[T]) Reset(past []T, present T) {
	if over := len(past) - s.limit; over > 0 {
		past = past[over:]
	}
	s.past = make([]T, len(past))
	for i := range past {
		s.past[i] = s.clone(past[i])
	}
	s.present = s.clone(present)
	s.hasPresent = true
	s.future = nil
}

// SetFuture installs redo entries, nearest first. Used when restoring
// persisted state.
func (s *Stack[T]) SetFuture(future []T) {
	s.future = make([]T, len(future))
	for i := range future {
		s.future[i] = s.clone(future[i])
	}
}

func (s *Stack[T]) Present() (T, bool) {
	if !s.hasPresent {
		var zero T
		return zero, false
	}
	return s.clone(s.present), true
}

func (s *Stack[T]) CanUndo() bool { return len(s.past) > 0 }

func (s *Stack[T]) CanRedo() bool { return len(s.future) > 0 }

func (s *Stack[T]) PastLen() int { return len(s.past) }

func (s *Stack[T]) FutureLen() int { return len(s.future) }

func (s *Stack[T]) Clone() *Stack[T] {
	out := &Stack[T]{
		hasPresent: s.hasPresent,
		limit:      s.limit,
		clone:      s.clone,
	}
	if s.hasPresent {
		out.present = s.clone(s.present)
	}
	out.past = make([]T, len(s.past))
	for i := range s.past {
		out.past[i] = s.clone(s.past[i])
	}
	out.future = make([]T, len(s.future))
	for i := range s.future {
		out.future[i] = s.clone(s.future[i])
	}
	return out
}

// pushPast appends v to past and drops the oldest entries beyond limit.
// A restored stack can hold a full past and a non-empty future, so redo
// trims as well as push.
func (s *Stack[T]) pushPast(v T) {
	s.past = append(s.past, v)
	if over := len(s.past) - s.limit; over > 0 {
		s.past = append(s.past[:0:0], s.past[over:]...)
	}
}

func (s *Stack[T]) check() error {
	if len(s.future) != 0 {
		return fmt.Errorf("%w: future has %d entries after push", models.ErrInvariant, len(s.future))
	}
	if len(s.past) > s.limit {
		return fmt.Errorf("%w: past has %d entries, limit %d", models.ErrInvariant, len(s.past), s.limit)
	}
	return nil
}
