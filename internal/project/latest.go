package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Resolve returns path itself for a file and the most recently modified
// project file for a directory.
func Resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}
	return FindLatest(path)
}

// FindLatest finds the newest .yaml or .yml file in dir.
func FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read project directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var found []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, name), info.ModTime().UnixNano()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no project files found in %s", dir)
	}

	// newest first, by name on ties
	sort.Slice(found, func(i, j int) bool {
		if found[i].modTime != found[j].modTime {
			return found[i].modTime > found[j].modTime
		}
		return found[i].path < found[j].path
	})
	return found[0].path, nil
}
