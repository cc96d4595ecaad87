// Package discover finds analyzable source files under a path.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/utapyngo/code-analyzer/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Root joined with Rel
	Rel      string // Relative to the walk root, slash-separated
	Language string
}

// Options controls a walk.
type Options struct {
	// MaxDepth limits directory recursion. Files directly under the root
	// are at depth 0, so 1 means "the root only". 0 means unlimited.
	MaxDepth int
	// Exclude holds doublestar patterns matched against relative paths.
	// A matching directory is not entered.
	Exclude []string
	// Classify maps a path to a language identifier. Defaults to
	// lang.Identify. Files classified as "" are skipped.
	Classify func(path string) string
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	"target":       {},
	"__pycache__":  {},
	"vendor":       {},
}

// Files discovers source files under root, sorted by path. If root is a
// file it is returned alone when it classifies as source. Directory read
// errors abort the walk.
func Files(root string, opts Options) ([]FileEntry, error) {
	classify := opts.Classify
	if classify == nil {
		classify = lang.Identify
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("path %s: %w", root, err)
	}
	if !info.IsDir() {
		language := classify(root)
		if language == "" {
			return nil, nil
		}
		return []FileEntry{{Path: root, Rel: filepath.Base(root), Language: language}}, nil
	}

	gi := loadGitignore(root)
	var results []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if path == root {
			return nil
		}

		name := d.Name()
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && depth(rel) >= opts.MaxDepth {
				return filepath.SkipDir
			}
			if excluded(opts.Exclude, rel) || (gi != nil && gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		// File symlinks are followed; directory symlinks are not descended.
		if d.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				return nil
			}
		}
		if excluded(opts.Exclude, rel) || (gi != nil && gi.MatchesPath(rel)) {
			return nil
		}

		language := classify(path)
		if language == "" {
			return nil
		}
		results = append(results, FileEntry{Path: path, Rel: rel, Language: language})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Rel < results[j].Rel
	})
	return results, nil
}

// depth returns how many directories deep rel is: "a" is 1, "a/b" is 2.
func depth(rel string) int {
	return strings.Count(rel, "/") + 1
}

func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
