// Package dataset loads raw post collections for a persona. Collections are
// JSON files under <base>/<personaFolder>/ and are validated against a
// schema before use so malformed exports fail loudly at the boundary.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/personaprd/personaprd/internal/artifact"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/persona"
	"github.com/personaprd/personaprd/internal/types"
)

// collectionSchema describes one exported collection: an array of post
// objects. Posts carry either "id" or "post_id"; both are accepted.
const collectionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "id": {"type": "string"},
      "post_id": {"type": "string"},
      "title": {"type": ["string", "null"]},
      "selftext": {"type": ["string", "null"]}
    },
    "anyOf": [
      {"required": ["id"]},
      {"required": ["post_id"]}
    ]
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(collectionSchema)

// rawPost mirrors the export format of one post.
type rawPost struct {
	ID       string `json:"id"`
	PostID   string `json:"post_id"`
	Title    string `json:"title"`
	Selftext string `json:"selftext"`
}

// Loader reads collections from the raw-data directory.
type Loader struct {
	base string
	log  *logging.Logger
}

// NewLoader returns a loader rooted at the raw-data directory
// (<data>/raw).
func NewLoader(baseDir string, log *logging.Logger) *Loader {
	return &Loader{base: baseDir, log: log.With("component", "dataset")}
}

// Load reads and validates one collection, returning posts in file order
// with their combined title+body text populated.
func (l *Loader) Load(personaKey, collection string) ([]types.Post, error) {
	folder, err := persona.FolderFor(personaKey)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(l.base, folder, collection)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &artifact.NotFoundError{Resource: "collection " + collection, Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("reading collection %s: %w", collection, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validating collection %s: %w", collection, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("collection %s does not match the export schema: %v", collection, result.Errors())
	}

	var raw []rawPost
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding collection %s: %w", collection, err)
	}

	posts := make([]types.Post, 0, len(raw))
	for _, p := range raw {
		id := p.ID
		if id == "" {
			id = p.PostID
		}
		combined := strings.TrimSpace(strings.TrimSpace(p.Title) + "\n" + strings.TrimSpace(p.Selftext))
		posts = append(posts, types.Post{
			ID:           id,
			Title:        p.Title,
			Selftext:     p.Selftext,
			CombinedText: combined,
		})
	}
	l.log.Info("loaded collection", "persona", personaKey, "collection", collection, "posts", len(posts))
	return posts, nil
}

// ListCollections returns the JSON collection file names available for a
// persona, sorted by name.
func (l *Loader) ListCollections(personaKey string) ([]string, error) {
	folder, err := persona.FolderFor(personaKey)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(l.base, folder)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &artifact.NotFoundError{Resource: "persona data folder", Path: dir}
	}
	if err != nil {
		return nil, fmt.Errorf("listing collections for %s: %w", personaKey, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadableCollectionName turns an export file name like
// "reddit_cursor_hot_500.json" into "r/cursor (top 500)". Names outside
// that convention are returned unchanged.
func ReadableCollectionName(filename string) string {
	const prefix, suffix = "reddit_", "_hot_500.json"
	if strings.HasPrefix(filename, prefix) && strings.HasSuffix(filename, suffix) {
		middle := filename[len(prefix) : len(filename)-len(suffix)]
		return fmt.Sprintf("r/%s (top 500)", middle)
	}
	return filename
}
