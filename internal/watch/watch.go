// Package watch reports debounced batches of file changes under a site root.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures Run.
type Options struct {
	Root       string
	Extensions []string // only files with these suffixes are reported
	Exclude    []string // directory names never watched
	Debounce   time.Duration
	Logger     *slog.Logger
}

// Handler receives each batch of changed paths, sorted. It runs on the
// watch goroutine; events arriving meanwhile are batched for the next call.
type Handler func(ctx context.Context, changed []string)

// Run watches the tree under opts.Root until ctx is done. Directories
// created later are watched as they appear.
func Run(ctx context.Context, opts Options, handle Handler) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	w := &watcher{opts: opts, exclude: make(map[string]bool)}
	for _, e := range opts.Exclude {
		w.exclude[e] = true
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()
	w.fw = fw

	if err := w.addTree(opts.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.Root, err)
	}
	return w.loop(ctx, handle)
}

type watcher struct {
	opts    Options
	exclude map[string]bool
	fw      *fsnotify.Watcher
}

// addTree recursively adds a directory to the watcher.
func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.opts.Logger.Warn("cannot watch directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

func (w *watcher) skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || w.exclude[name]
}

func (w *watcher) relevant(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.ContainsFunc(w.opts.Extensions, func(e string) bool {
		return strings.ToLower(e) == ext
	})
}

func (w *watcher) loop(ctx context.Context, handle Handler) error {
	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.skipDir(info.Name()) {
						if err := w.addTree(event.Name); err != nil {
							w.opts.Logger.Warn("cannot watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)
			w.opts.Logger.Debug("change detected", "files", len(changed))
			handle(ctx, changed)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.opts.Logger.Warn("watch events dropped", "error", err)
				continue
			}
			w.opts.Logger.Error("watcher error", "error", err)
		}
	}
}
