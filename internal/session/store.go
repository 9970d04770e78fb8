package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manash/genstate/internal/cache"
	"github.com/manash/genstate/internal/history"
	"github.com/manash/genstate/internal/image"
	"github.com/manash/genstate/internal/metrics"
	"github.com/manash/genstate/internal/storage"
	"github.com/manash/genstate/pkg/models"
)

// Store owns the persisted sessions of one process together with their live
// undo histories and variant caches. All mutations go through it: the live
// history is cloned, changed, persisted and only then swapped in, so a failed
// write leaves the previous state untouched.
type Store struct {
	backend storage.Backend
	images  *image.Store
	cache   *cache.VariantCache
	metrics metrics.Sink
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	histories  *registry[*history.IterationHistory]
	wireframes *registry[*history.WireframeHistory]
	locks      *registry[*sync.Mutex]
}

type Option func(*Store)

// WithImageStore enables writing iteration image bytes to disk.
func WithImageStore(images *image.Store) Option {
	return func(s *Store) { s.images = images }
}

func WithMetrics(sink metrics.Sink) Option {
	return func(s *Store) { s.metrics = sink }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		cache:      cache.NewVariantCache(),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
		histories:  newRegistry[*history.IterationHistory](),
		wireframes: newRegistry[*history.WireframeHistory](),
		locks:      newRegistry[*sync.Mutex](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.metrics = metrics.Safe(s.metrics, s.logger)
	return s
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// lock serializes mutations of one session; reads go lock-free against the
// installed snapshots.
func (s *Store) lock(id string) func() {
	mu, _ := s.locks.getOrLoad(id, func() (*sync.Mutex, error) { return &sync.Mutex{}, nil })
	mu.Lock()
	return mu.Unlock
}

// track starts timing an operation. Use as: defer s.track(name, id)(&err).
func (s *Store) track(name, sessionID string) func(*error) {
	start := time.Now()
	return func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		s.RecordMetric(name, time.Since(start), err == nil, ErrorType(err), sessionID)
	}
}

// RecordMetric forwards one timing to the configured sink. A failing sink
// never affects the caller.
func (s *Store) RecordMetric(name string, d time.Duration, success bool, errorType, sessionID string) {
	s.metrics.RecordOperation(metrics.Operation{
		Name:      name,
		Duration:  d,
		Success:   success,
		ErrorType: errorType,
		SessionID: sessionID,
	})
}

func (s *Store) CreateSession(ctx context.Context) (sess *Session, err error) {
	id := s.newID()
	defer s.track("createSession", id)(&err)

	now := s.now()
	sess = &Session{
		ID:         id,
		CreatedAt:  now,
		UpdatedAt:  now,
		Iterations: []models.Iteration{},
	}
	if err := s.write(ctx, sess); err != nil {
		return nil, err
	}
	s.histories.put(id, history.NewIterationHistory())
	s.logger.Debug("session created", "session", id)
	return sess.Clone(), nil
}

// LoadSession returns the persisted record. Absent and unreadable records
// both yield ErrSessionNotFound.
func (s *Store) LoadSession(ctx context.Context, id string) (sess *Session, err error) {
	defer s.track("loadSession", id)(&err)
	return s.load(ctx, id)
}

func (s *Store) load(ctx context.Context, id string) (*Session, error) {
	data, err := s.backend.ReadSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("corrupted session record", "session", id, "error", err)
		return nil, fmt.Errorf("%w: %s: corrupted record", ErrSessionNotFound, id)
	}
	if sess.ID != id {
		s.logger.Warn("session record id mismatch", "session", id, "recorded", sess.ID)
		return nil, fmt.Errorf("%w: %s: corrupted record", ErrSessionNotFound, id)
	}
	return &sess, nil
}

// SaveSession persists sess as given. A live history for the session is
// dropped so the next access rebuilds it from the saved iterations.
func (s *Store) SaveSession(ctx context.Context, sess *Session) (err error) {
	if sess == nil {
		return errors.New("session cannot be nil")
	}
	defer s.track("saveSession", sess.ID)(&err)
	defer s.lock(sess.ID)()

	if _, err := history.RestoreIterationHistory(sess.Iterations, sess.Archived); err != nil {
		return err
	}
	if err := s.write(ctx, sess); err != nil {
		return err
	}
	s.histories.delete(sess.ID)
	return nil
}

func (s *Store) write(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now()
	if sess.Iterations == nil {
		sess.Iterations = []models.Iteration{}
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}
	if err := s.backend.WriteSession(ctx, sess.ID, data); err != nil {
		s.logger.Error("failed to persist session", "session", sess.ID, "error", err)
		return err
	}
	return nil
}

// ListSessions returns every readable session, most recently updated first.
func (s *Store) ListSessions(ctx context.Context) (sessions []*Session, err error) {
	defer s.track("listSessions", "")(&err)

	ids, err := s.backend.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	sessions = make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.load(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// DeleteSession removes the session record and everything hanging off it:
// wireframes, image files, cached variants and live histories.
func (s *Store) DeleteSession(ctx context.Context, id string) (err error) {
	defer s.track("deleteSession", id)(&err)
	defer s.lock(id)()

	if _, err := s.backend.ReadSession(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return err
	}
	if err := s.backend.DeleteSession(ctx, id); err != nil {
		return err
	}

	s.histories.delete(id)
	s.wireframes.deletePrefix(id + "/")
	s.cache.Clear(id)
	if s.images != nil {
		if err := s.images.RemoveSession(ctx, id); err != nil {
			s.logger.Warn("failed to remove session images", "session", id, "error", err)
		}
	}
	s.logger.Debug("session deleted", "session", id)
	return nil
}

// GetActiveHistory materializes the session's iteration history on first
// access and returns a snapshot of it. Mutate through the Store, not the
// snapshot.
func (s *Store) GetActiveHistory(ctx context.Context, id string) (h *history.IterationHistory, err error) {
	defer s.track("getActiveHistory", id)(&err)

	live, err := s.liveHistory(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return live.Clone(), nil
}

// liveHistory returns the registered history, restoring it from sess (or
// from storage when sess is nil) on first access.
func (s *Store) liveHistory(ctx context.Context, id string, sess *Session) (*history.IterationHistory, error) {
	return s.histories.getOrLoad(id, func() (*history.IterationHistory, error) {
		if sess == nil {
			var err error
			if sess, err = s.load(ctx, id); err != nil {
				return nil, err
			}
		}
		h, err := history.RestoreIterationHistory(sess.Iterations, sess.Archived)
		if err != nil {
			s.logger.Warn("failed to restore iteration history", "session", id, "error", err)
			return nil, err
		}
		return h, nil
	})
}
