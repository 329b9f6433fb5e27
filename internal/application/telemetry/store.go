package telemetry

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	pkgerrors "github.com/turtacn/rxnguard/pkg/errors"
)

// DocumentStore persists named JSON documents as wholes.  Load returns
// (nil, nil) for a document that was never saved.  Save must replace the
// document atomically: a reader sees either the old or the new content.
type DocumentStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

// ---------------------------------------------------------------------------
// File store
// ---------------------------------------------------------------------------

// FileStore keeps each document in <dir>/<name>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeTelemetryPersist, "create data directory")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Name() string { return "file" }

// Dir is the data directory.
func (s *FileStore) Dir() string { return s.dir }

// Path is the file backing a document.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeTelemetryLoad, "read "+name)
	}
	return data, nil
}

// Save writes to a temp file in the same directory, syncs it and renames it
// over the target.
func (s *FileStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeTelemetryPersist, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeTelemetryPersist, "write "+name)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeTelemetryPersist, "sync "+name)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeTelemetryPersist, "close "+name)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeTelemetryPersist, "replace "+name)
	}
	return nil
}

func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeTelemetryLoad, "data directory unavailable")
	}
	if !info.IsDir() {
		return pkgerrors.New(pkgerrors.ErrCodeTelemetryLoad, "data path is not a directory").WithDetail(s.dir)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// ---------------------------------------------------------------------------
// Memory store
// ---------------------------------------------------------------------------

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Load(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), d...), nil
}

func (s *MemoryStore) Save(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

//Personal.AI order the ending
