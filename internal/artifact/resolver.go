// Package artifact implements the cache coordinate system for derived
// pipeline artifacts: a (persona, collection) key resolves to one directory,
// and per-stage stores memoize their outputs inside it.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/personaprd/personaprd/internal/persona"
)

// Key is the sole cache coordinate for derived artifacts. Runs with equal
// keys share artifacts; runs with different keys never interact.
type Key struct {
	Persona    string
	Collection string
}

func (k Key) String() string {
	return k.Persona + "/" + CollectionFolder(k.Collection)
}

// CollectionFolder derives the directory name for a collection file by
// stripping its .json extension. Pure and idempotent: applying it twice is
// the same as applying it once.
func CollectionFolder(collection string) string {
	return strings.TrimSuffix(collection, ".json")
}

// Resolver maps keys to artifact directories under a fixed base.
type Resolver struct {
	base string
}

// NewResolver returns a resolver rooted at the processed-data directory.
func NewResolver(baseDir string) *Resolver {
	return &Resolver{base: baseDir}
}

// BaseDir returns the processed-data root the resolver is anchored to.
func (r *Resolver) BaseDir() string {
	return r.base
}

// Resolve validates the key and returns its artifact directory, creating it
// if absent. Creation is idempotent; the only error cases are an unknown
// persona, an unsafe collection id, or a filesystem failure.
func (r *Resolver) Resolve(key Key) (string, error) {
	folder, err := persona.FolderFor(key.Persona)
	if err != nil {
		return "", err
	}
	collFolder := CollectionFolder(key.Collection)
	if err := validateFolderName(collFolder); err != nil {
		return "", err
	}
	dir := filepath.Join(r.base, folder, collFolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory %s: %w", dir, err)
	}
	return dir, nil
}

// validateFolderName rejects collection ids that would escape the artifact
// directory tree.
func validateFolderName(name string) error {
	if name == "" {
		return fmt.Errorf("collection id must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("collection id %q is not a safe directory name", name)
	}
	return nil
}
