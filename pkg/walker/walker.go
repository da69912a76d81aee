// Package walker enumerates candidate files under a site root.
//
// The walk is lazy and depth-first with lexical order inside each directory.
// Hidden entries and excluded directory names are never descended into.
// Symlinks whose target lies inside the root are skipped, since the target
// is reached directly. Symlinks leading outside are followed, and every
// file is yielded at most once per resolved real path.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/siteaudit/pkg/core"
)

// ErrRootNotFound is returned when the scan root is missing or not a directory.
var ErrRootNotFound = errors.New("scan root not found")

// DefaultExclude lists directory names that are never scanned.
var DefaultExclude = []string{
	"node_modules",
	"backups",
	"emergency-backups",
	"fix-templates",
	"dist",
	"vendor",
}

// Options configures a Walker.
type Options struct {
	Extensions []string // e.g. ".html"; matched case-insensitively
	Exclude    []string // directory or file base names to skip
	Logger     *slog.Logger
}

// Walker enumerates files under a root. A Walker is single-use per
// iteration and not safe for concurrent iteration.
type Walker struct {
	root    string
	exts    map[string]bool
	exclude map[string]bool
	logger  *slog.Logger
	skipped int
}

// New creates a Walker rooted at root.
func New(root string, opts Options) (*Walker, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".html"}
	}
	w := &Walker{
		root:    filepath.Clean(root),
		exts:    make(map[string]bool, len(exts)),
		exclude: make(map[string]bool, len(opts.Exclude)),
		logger:  opts.Logger,
	}
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		w.exts[e] = true
	}
	for _, x := range opts.Exclude {
		w.exclude[x] = true
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	return w, nil
}

// Root returns the cleaned scan root.
func (w *Walker) Root() string { return w.root }

// Skipped returns the number of directories that could not be read during
// the most recent iteration.
func (w *Walker) Skipped() int { return w.skipped }

type frame struct {
	dir     string
	entries []fs.DirEntry
	next    int
}

// Paths returns a lazy iterator over matching file paths.
func (w *Walker) Paths() iter.Seq[string] {
	return func(yield func(string) bool) {
		w.skipped = 0
		visited := make(map[string]bool)
		seenFiles := make(map[string]bool)
		rootReal, err := filepath.EvalSymlinks(w.root)
		if err != nil {
			rootReal = w.root
		}
		// firstVisit records the real path of a yielded file.
		firstVisit := func(path string) bool {
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				real = path
			}
			if seenFiles[real] {
				w.logger.Debug("skipping already yielded file", "path", path, "real", real)
				return false
			}
			seenFiles[real] = true
			return true
		}

		var stack []*frame
		push := func(dir string) {
			if real, err := filepath.EvalSymlinks(dir); err == nil {
				if visited[real] {
					w.logger.Debug("skipping already visited directory", "path", dir, "real", real)
					return
				}
				visited[real] = true
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				w.skipped++
				w.logger.Warn("skipping unreadable directory", "path", dir, "error", err)
				return
			}
			stack = append(stack, &frame{dir: dir, entries: entries})
		}

		push(w.root)
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next >= len(top.entries) {
				stack = stack[:len(stack)-1]
				continue
			}
			entry := top.entries[top.next]
			top.next++

			name := entry.Name()
			if strings.HasPrefix(name, ".") || w.exclude[name] {
				continue
			}
			path := filepath.Join(top.dir, name)

			mode := entry.Type()
			if mode&fs.ModeSymlink != 0 {
				real, err := filepath.EvalSymlinks(path)
				if err != nil {
					w.logger.Debug("skipping dangling symlink", "path", path, "error", err)
					continue
				}
				if within(rootReal, real) {
					w.logger.Debug("skipping symlink into the root", "path", path, "real", real)
					continue
				}
				info, err := os.Stat(real)
				if err != nil {
					continue
				}
				if info.IsDir() {
					push(path)
					continue
				}
				if !info.Mode().IsRegular() || !w.matches(name) || !firstVisit(path) {
					continue
				}
				if !yield(path) {
					return
				}
				continue
			}

			if entry.IsDir() {
				push(path)
				continue
			}
			if mode.IsRegular() && w.matches(name) && firstVisit(path) {
				if !yield(path) {
					return
				}
			}
		}
	}
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Collect drains Paths into a slice.
func (w *Walker) Collect() []string {
	var out []string
	for p := range w.Paths() {
		out = append(out, p)
	}
	return out
}

// Read loads a file yielded by Paths into a FileRecord.
func (w *Walker) Read(path string) (*core.FileRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	return &core.FileRecord{
		Path:      path,
		RelPath:   filepath.ToSlash(rel),
		Content:   content,
		SizeBytes: int64(len(content)),
	}, nil
}

func (w *Walker) matches(name string) bool {
	return w.exts[strings.ToLower(filepath.Ext(name))]
}
