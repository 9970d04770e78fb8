package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/manash/genstate/internal/fsutil"
	"github.com/manash/genstate/internal/security"
)

const recordExt = ".json"

// FileStore keeps one JSON file per record:
//
//	<root>/sessions/<sessionID>.json
//	<root>/wireframes/<sessionID>/<wireframeID>.json
//
// Writes go to a temp file in the target directory, are synced, then renamed
// over the old record.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if strings.HasPrefix(root, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		root = filepath.Join(home, root[2:])
	}
	for _, dir := range []string{filepath.Join(root, "sessions"), filepath.Join(root, "wireframes")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return &FileStore{root: root}, nil
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) sessionPath(id string) (string, error) {
	if err := security.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(f.root, "sessions", id+recordExt), nil
}

func (f *FileStore) wireframeDir(sessionID string) (string, error) {
	if err := security.ValidateID(sessionID); err != nil {
		return "", err
	}
	return filepath.Join(f.root, "wireframes", sessionID), nil
}

func (f *FileStore) wireframePath(sessionID, wireframeID string) (string, error) {
	dir, err := f.wireframeDir(sessionID)
	if err != nil {
		return "", err
	}
	if err := security.ValidateID(wireframeID); err != nil {
		return "", err
	}
	return filepath.Join(dir, wireframeID+recordExt), nil
}

func (f *FileStore) ReadSession(_ context.Context, id string) ([]byte, error) {
	path, err := f.sessionPath(id)
	if err != nil {
		// A key that cannot name a file cannot have been written.
		return nil, ErrNotFound
	}
	data, err := readRecord(path)
	return data, wrap("read session", id, err)
}

func (f *FileStore) WriteSession(_ context.Context, id string, data []byte) error {
	path, err := f.sessionPath(id)
	if err != nil {
		return wrap("write session", id, err)
	}
	return wrap("write session", id, fsutil.WriteAtomic(path, data))
}

func (f *FileStore) ListSessions(_ context.Context) ([]string, error) {
	ids, err := listRecords(filepath.Join(f.root, "sessions"))
	return ids, wrap("list sessions", "", err)
}

func (f *FileStore) DeleteSession(_ context.Context, id string) error {
	path, err := f.sessionPath(id)
	if err != nil {
		return wrap("delete session", id, err)
	}
	dir, err := f.wireframeDir(id)
	if err != nil {
		return wrap("delete session", id, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return wrap("delete session", id, err)
	}
	return wrap("delete session", id, removeRecord(path))
}

func (f *FileStore) ReadWireframe(_ context.Context, sessionID, wireframeID string) ([]byte, error) {
	key := wireframeKey(sessionID, wireframeID)
	path, err := f.wireframePath(sessionID, wireframeID)
	if err != nil {
		return nil, ErrNotFound
	}
	data, err := readRecord(path)
	return data, wrap("read wireframe", key, err)
}

func (f *FileStore) WriteWireframe(_ context.Context, sessionID, wireframeID string, data []byte) error {
	key := wireframeKey(sessionID, wireframeID)
	path, err := f.wireframePath(sessionID, wireframeID)
	if err != nil {
		return wrap("write wireframe", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return wrap("write wireframe", key, err)
	}
	return wrap("write wireframe", key, fsutil.WriteAtomic(path, data))
}

func (f *FileStore) ListWireframes(_ context.Context, sessionID string) ([]string, error) {
	dir, err := f.wireframeDir(sessionID)
	if err != nil {
		return nil, wrap("list wireframes", sessionID, err)
	}
	ids, err := listRecords(dir)
	return ids, wrap("list wireframes", sessionID, err)
}

func (f *FileStore) DeleteWireframe(_ context.Context, sessionID, wireframeID string) error {
	key := wireframeKey(sessionID, wireframeID)
	path, err := f.wireframePath(sessionID, wireframeID)
	if err != nil {
		return wrap("delete wireframe", key, err)
	}
	return wrap("delete wireframe", key, removeRecord(path))
}

func readRecord(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func removeRecord(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func listRecords(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordExt))
	}
	sort.Strings(ids)
	return ids, nil
}

var _ Backend = (*FileStore)(nil)
