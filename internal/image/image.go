package image

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manash/genstate/internal/fsutil"
	"github.com/manash/genstate/internal/security"
)

var (
	ErrNoImageData = errors.New("no image data available")
	ErrInvalidRef  = errors.New("invalid image reference")
)

var mimeExtensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpeg",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// Store keeps iteration image bytes next to the session records, one
// directory per session:
//
//	<root>/<sessionID>/<index>-<seq>.<ext>
//
// Returned references are relative to root.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) SessionDir(sessionID string) (string, error) {
	if err := security.ValidateID(sessionID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, sessionID), nil
}

// Save writes data for the iteration and returns its reference.
func (s *Store) Save(_ context.Context, sessionID string, index, seq int, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNoImageData
	}
	dir, err := s.SessionDir(sessionID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	name := GenerateFilename(index, seq, mimeType)
	if err := fsutil.WriteAtomic(filepath.Join(dir, name), data); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return sessionID + "/" + name, nil
}

func (s *Store) Path(ref string) (string, error) {
	sessionID, name, ok := strings.Cut(ref, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	if err := security.ValidateID(sessionID); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	if err := security.ValidateID(name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	return filepath.Join(s.root, sessionID, name), nil
}

func (s *Store) Load(_ context.Context, ref string) ([]byte, error) {
	path, err := s.Path(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// RemoveSession deletes every image stored for the session.
func (s *Store) RemoveSession(_ context.Context, sessionID string) error {
	dir, err := s.SessionDir(sessionID)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func GenerateFilename(index, seq int, mimeType string) string {
	ext, ok := mimeExtensions[strings.ToLower(mimeType)]
	if !ok {
		ext = "png"
	}
	return fmt.Sprintf("%d-%d.%s", index, seq, ext)
}

