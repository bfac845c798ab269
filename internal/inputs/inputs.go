// Package inputs assembles the list of files a batch works on.
package inputs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// LoadList reads a JSONC file holding an array of paths.
// Relative paths are resolved against the directory of the list file.
func LoadList(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from user-supplied config
	if err != nil {
		return nil, fmt.Errorf("reading list file %q: %w", path, err)
	}

	clean := jsonc.ToJSONInPlace(data)

	var paths []string
	if err := json.Unmarshal(clean, &paths); err != nil {
		return nil, fmt.Errorf("parsing list file %q: %w", path, err)
	}

	base := filepath.Dir(path)

	for i, p := range paths {
		if p == "" {
			return nil, fmt.Errorf("list file %q: entry %d is empty", path, i)
		}

		if !filepath.IsAbs(p) {
			paths[i] = filepath.Join(base, p)
		}
	}

	return paths, nil
}

// Unique returns paths without repetitions, keeping the first occurrence of each.
// Paths are compared after cleaning, so "a.txt" and "./a.txt" are the same file.
func Unique(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		key := filepath.Clean(p)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		out = append(out, p)
	}

	return out
}

// Collect merges positional arguments with the entries of an optional list file,
// in that order, and removes repetitions.
func Collect(args []string, listFile string) ([]string, error) {
	paths := append([]string(nil), args...)

	if listFile != "" {
		listed, err := LoadList(listFile)
		if err != nil {
			return nil, err
		}

		paths = append(paths, listed...)
	}

	return Unique(paths), nil
}
