package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/manash/genstate/pkg/models"
)

// ErrNotFound is returned by Backend reads for absent keys.
var ErrNotFound = fmt.Errorf("record %w", models.ErrNotFound)

// Backend is a durable key-value medium for session and wireframe records.
// Writes fully replace the previous value and are atomic: a reader sees
// either the old or the new record, never a torn one.
type Backend interface {
	ReadSession(ctx context.Context, id string) ([]byte, error)
	WriteSession(ctx context.Context, id string, data []byte) error
	ListSessions(ctx context.Context) ([]string, error)
	DeleteSession(ctx context.Context, id string) error

	ReadWireframe(ctx context.Context, sessionID, wireframeID string) ([]byte, error)
	WriteWireframe(ctx context.Context, sessionID, wireframeID string, data []byte) error
	ListWireframes(ctx context.Context, sessionID string) ([]string, error)
	DeleteWireframe(ctx context.Context, sessionID, wireframeID string) error

	Close() error
}

// Error describes a failed storage operation. It matches models.ErrStorage.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == models.ErrStorage
}

func wrap(op, key string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &Error{Op: op, Key: key, Err: err}
}

func wireframeKey(sessionID, wireframeID string) string {
	return sessionID + "/" + wireframeID
}
