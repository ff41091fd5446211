package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResolveInputs expands the Files patterns against rootPath and returns the
// matching inputs, sorted, with ignored files removed. Relative patterns
// yield paths relative to rootPath.
func (c *Config) ResolveInputs(rootPath string) ([]string, error) {
	fileSet := make(map[string]bool)
	for _, pattern := range c.Files {
		relative := !filepath.IsAbs(pattern)
		if relative {
			pattern = filepath.Join(rootPath, pattern)
		}

		matches, err := expandGlob(pattern)
		if err != nil {
			return nil, &Error{Path: c.Path, Err: err}
		}

		for _, match := range matches {
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				continue
			}
			if relative {
				if rel, err := filepath.Rel(rootPath, match); err == nil {
					match = rel
				}
			}
			if c.ShouldIgnoreFile(match) {
				continue
			}
			fileSet[match] = true
		}
	}

	result := make([]string, 0, len(fileSet))
	for f := range fileSet {
		result = append(result, f)
	}
	sort.Strings(result)
	return result, nil
}

// expandGlob expands a glob pattern, handling ** for recursive matching
func expandGlob(pattern string) ([]string, error) {
	// Check if pattern contains **
	if strings.Contains(pattern, "**") {
		return expandDoubleStarGlob(pattern)
	}

	// Simple glob
	return filepath.Glob(pattern)
}

// expandDoubleStarGlob handles ** patterns by walking the directory tree.
// Dot directories other than the base are not entered.
func expandDoubleStarGlob(pattern string) ([]string, error) {
	parts := strings.SplitN(pattern, "**", 2)
	baseDir := filepath.Clean(parts[0])
	suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

	var results []string
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != baseDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		if suffix == "" || matchSuffix(relPath, suffix) {
			results = append(results, path)
		}
		return nil
	})
	return results, err
}

// matchSuffix reports whether the path below a ** matches the rest of the
// pattern. A pattern without a separator is matched against the base name,
// otherwise against the trailing path elements.
func matchSuffix(path, pattern string) bool {
	if !strings.Contains(pattern, string(filepath.Separator)) {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		return matched
	}

	elems := strings.Split(path, string(filepath.Separator))
	want := strings.Count(pattern, string(filepath.Separator)) + 1
	if len(elems) < want {
		return false
	}
	tail := filepath.Join(elems[len(elems)-want:]...)
	matched, _ := filepath.Match(pattern, tail)
	return matched
}
