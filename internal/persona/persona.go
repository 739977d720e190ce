// Package persona defines the closed set of audience personas and their
// on-disk folder mapping. Every other component addresses data through this
// mapping; an unknown key is always a hard error, never a default.
package persona

import (
	"fmt"
	"sort"
)

// folderByKey maps an internal persona key to its folder name under the
// raw and processed data directories.
var folderByKey = map[string]string{
	"vibecoding": "vibecoding_neighbourhood",
	"selfhost":   "selfhost_neighbourhood",
	"data":       "data_neighbourhood",
}

// displayNames maps persona keys to the names shown in summaries and PRDs.
var displayNames = map[string]string{
	"vibecoding": "Vibe Coders: Users of AI coding tools",
	"selfhost":   "Self-Hosting Enthusiasts: Privacy + Infrastructure",
	"data":       "Data Professionals: BI + Engineering + Science",
}

// UnknownError indicates a persona key outside the closed set.
type UnknownError struct {
	Key string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown persona %q, valid options: %v", e.Key, Keys())
}

// Keys returns all valid persona keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(folderByKey))
	for k := range folderByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FolderFor resolves a persona key to its data folder name.
func FolderFor(key string) (string, error) {
	folder, ok := folderByKey[key]
	if !ok {
		return "", &UnknownError{Key: key}
	}
	return folder, nil
}

// DisplayName returns the human-readable name for a persona key, falling
// back to the key itself for display purposes only.
func DisplayName(key string) string {
	if name, ok := displayNames[key]; ok {
		return name
	}
	return key
}
