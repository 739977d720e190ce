package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/personaprd/personaprd/internal/logging"
)

// Codec serializes one stage's artifact type.
type Codec[T any] interface {
	Encode(w io.Writer, v T) error
	Decode(r io.Reader) (T, error)
}

// JSONCodec is the default codec for structured artifacts.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(w io.Writer, v T) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (JSONCodec[T]) Decode(r io.Reader) (T, error) {
	var v T
	err := json.NewDecoder(r).Decode(&v)
	return v, err
}

// Store memoizes one stage's artifact per key: load it if the stage file is
// present, otherwise compute, persist, and return it. Once stored, an
// artifact is returned unchanged on every subsequent call until the file is
// externally removed; there is no invalidation path.
type Store[T any] struct {
	stage    string
	fileName string
	resolver *Resolver
	codec    Codec[T]
	log      *logging.Logger
}

// NewStore builds a stage store. The stage name labels errors and hit/miss
// logs; fileName is the fixed artifact name inside the key directory.
func NewStore[T any](stage, fileName string, resolver *Resolver, codec Codec[T], log *logging.Logger) *Store[T] {
	return &Store[T]{
		stage:    stage,
		fileName: fileName,
		resolver: resolver,
		codec:    codec,
		log:      log.With("stage", stage),
	}
}

// Stage returns the stage name this store serves.
func (s *Store[T]) Stage() string {
	return s.stage
}

// Path returns the artifact file path for a key, creating the key directory.
func (s *Store[T]) Path(key Key) (string, error) {
	dir, err := s.resolver.Resolve(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, s.fileName), nil
}

// Load reads the stage artifact if present. A missing file is a miss
// (ok=false, no error); a file that exists but cannot be decoded is a
// CorruptError, never a miss.
func (s *Store[T]) Load(key Key) (T, bool, error) {
	var zero T
	path, err := s.Path(key)
	if err != nil {
		return zero, false, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("opening %s artifact: %w", s.stage, err)
	}
	defer f.Close()
	v, err := s.codec.Decode(f)
	if err != nil {
		return zero, false, &CorruptError{Stage: s.stage, Path: path, Cause: err}
	}
	return v, true, nil
}

// Write persists an artifact atomically: encode to a temp file in the key
// directory, then rename over the target. A failed encode never leaves a
// partial artifact behind.
func (s *Store[T]) Write(key Key, v T) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), s.fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s artifact: %w", s.stage, err)
	}
	if err := s.codec.Encode(tmp, v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encoding %s artifact: %w", s.stage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing %s artifact: %w", s.stage, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming %s artifact into place: %w", s.stage, err)
	}
	return nil
}

// GetOrCompute is the orchestrator's entry point: return the cached
// artifact if present, otherwise run compute, persist the result, and
// return it. Compute failures are wrapped with the stage name and nothing
// is persisted.
func (s *Store[T]) GetOrCompute(ctx context.Context, key Key, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	v, ok, err := s.Load(key)
	if err != nil {
		return zero, err
	}
	if ok {
		s.log.Info("artifact cache hit", "key", key.String(), "file", s.fileName)
		return v, nil
	}
	s.log.Info("artifact cache miss, computing", "key", key.String(), "file", s.fileName)
	v, err = compute(ctx)
	if err != nil {
		return zero, &ComputeError{Stage: s.stage, Cause: err}
	}
	if err := s.Write(key, v); err != nil {
		return zero, err
	}
	return v, nil
}
