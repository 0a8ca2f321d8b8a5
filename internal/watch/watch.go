// Package watch reruns a callback when files under a set of directories change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last event before the
// callback runs.
const DefaultDebounce = 300 * time.Millisecond

// Watcher batches filesystem events under its directories and runs a
// callback once per burst.
type Watcher struct {
	dirs     []string
	ignore   []string
	filter   func(path string) bool
	debounce time.Duration
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore skips events for paths under any of dirs, such as the output
// directory when it lives inside a watched tree.
func WithIgnore(dirs ...string) Option {
	return func(w *Watcher) {
		for _, d := range dirs {
			w.ignore = append(w.ignore, filepath.Clean(d))
		}
	}
}

// WithFilter limits the events that trigger the callback to paths for which
// keep returns true. New directories are watched regardless.
func WithFilter(keep func(path string) bool) Option {
	return func(w *Watcher) {
		w.filter = keep
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New returns a Watcher for dirs. Missing directories are skipped when Run starts.
func New(dirs []string, opts ...Option) *Watcher {
	w := &Watcher{
		dirs:     dirs,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled, calling onChange after each burst of
// events. An error from onChange is logged and does not stop the loop. Run
// returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	watched := 0
	for _, dir := range w.dirs {
		n, err := w.addTree(fw, dir)
		if err != nil {
			return err
		}
		watched += n
	}
	if watched == 0 {
		return errors.New("no directories to watch")
	}
	w.logger.Info("Watching for changes", zap.Int("directories", watched))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if _, err := w.addTree(fw, event.Name); err != nil {
						w.logger.Warn("Watching new directory failed", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			if w.filter != nil && !w.filter(event.Name) {
				continue
			}
			w.logger.Debug("Change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", zap.Error(err))

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				w.logger.Error("Regeneration failed", zap.Error(err))
			}
		}
	}
}

// addTree watches dir and every directory beneath it, returning how many
// were added. A missing dir adds nothing.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == dir {
				w.logger.Debug("Skipping missing directory", zap.String("path", dir))
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) || (p != dir && strings.HasPrefix(d.Name(), ".")) {
			return fs.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		n++
		return nil
	})
	return n, err
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return !w.ignored(event.Name)
}

func (w *Watcher) ignored(p string) bool {
	p = filepath.Clean(p)
	for _, dir := range w.ignore {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
