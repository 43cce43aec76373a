package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"
)

type FileUtils struct{}

// SourceFile is a file read from disk.
type SourceFile struct {
	Path    string
	Content string
}

// ExpandGlobs expands every pattern (with ** support) and returns the
// distinct matches sorted by path.
func (f *FileUtils) ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			match = filepath.Clean(match)
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				continue
			}
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			paths = append(paths, match)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// ReadFiles expands patterns and reads every match in path order.
func (f *FileUtils) ReadFiles(patterns []string) ([]SourceFile, error) {
	paths, err := f.ExpandGlobs(patterns)
	if err != nil {
		return nil, err
	}

	files := make([]SourceFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, SourceFile{Path: path, Content: string(data)})
	}
	return files, nil
}
