package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/personaprd/personaprd/internal/logging"
)

// FileStore memoizes a stage whose artifact is an opaque document (the
// interactive visualization). Freshness is a binary presence check: if the
// file exists it is valid, its content is never inspected.
type FileStore struct {
	stage    string
	fileName string
	resolver *Resolver
	log      *logging.Logger
}

// NewFileStore builds a presence-checked store for one document per key.
func NewFileStore(stage, fileName string, resolver *Resolver, log *logging.Logger) *FileStore {
	return &FileStore{
		stage:    stage,
		fileName: fileName,
		resolver: resolver,
		log:      log.With("stage", stage),
	}
}

// Path returns the document path for a key, creating the key directory.
func (s *FileStore) Path(key Key) (string, error) {
	dir, err := s.resolver.Resolve(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, s.fileName), nil
}

// Exists reports whether the document is already present.
func (s *FileStore) Exists(key Key) (string, bool, error) {
	path, err := s.Path(key)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return path, false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("checking %s artifact: %w", s.stage, err)
	}
	return path, true, nil
}

// GetOrRender returns the document path, rendering it first if absent.
// The render callback writes to a temp path which is renamed into place on
// success, so readers never observe a partially written document.
func (s *FileStore) GetOrRender(ctx context.Context, key Key, render func(ctx context.Context, path string) error) (string, error) {
	path, ok, err := s.Exists(key)
	if err != nil {
		return "", err
	}
	if ok {
		s.log.Info("artifact cache hit", "key", key.String(), "file", s.fileName)
		return path, nil
	}
	s.log.Info("artifact cache miss, rendering", "key", key.String(), "file", s.fileName)
	tmp := path + ".tmp"
	if err := render(ctx, tmp); err != nil {
		os.Remove(tmp)
		return "", &ComputeError{Stage: s.stage, Cause: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming %s artifact into place: %w", s.stage, err)
	}
	return path, nil
}
