// Package watch re-runs a callback when files under a set of roots change.
//
// Events arriving within the debounce window are coalesced so the callback
// fires once with every changed path.
package watch

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// defaultIgnores are never watched.
var defaultIgnores = []string{
	"**/.git/**",
	"**/.git",
	"**/node_modules/**",
	"**/node_modules",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// Config holds the parameters for a Watcher
type Config struct {
	// Roots are the directories watched recursively. Missing roots are
	// skipped with a warning.
	Roots []string

	// Ignore holds doublestar patterns, matched against slash-separated
	// absolute paths without the leading slash, in addition to the defaults.
	Ignore []string

	// Debounce is the quiet period before OnChange fires
	Debounce time.Duration

	// OnChange receives the sorted, deduplicated changed paths. It never runs
	// concurrently with itself.
	OnChange func(ctx context.Context, changed []string) error

	Logger *log.Logger
}

// Watcher watches Config.Roots. Run must be called exactly once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	ignores  []string
	debounce time.Duration
	logger   *log.Logger
	started  atomic.Bool
}

// New validates cfg and registers every directory under the roots.
func New(cfg Config) (*Watcher, error) {
	for _, pat := range cfg.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q", pat)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if w.logger == nil {
		w.logger = log.Default()
	}

	watched := 0
	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			fsw.Close() //nolint:errcheck
			return nil, fmt.Errorf("watch: resolve %s: %w", root, err)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			w.logger.Warn("watch root missing, skipping", "path", abs)
			continue
		}
		if err := w.addTree(abs); err != nil {
			fsw.Close() //nolint:errcheck
			return nil, err
		}
		watched++
	}
	if watched == 0 {
		fsw.Close() //nolint:errcheck
		return nil, fmt.Errorf("watch: no directories to watch")
	}
	return w, nil
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			// Previous run still going; try again after another window.
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("watch callback failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: event channel closed")
			}
			if w.isIgnored(evt.Name) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			w.logger.Debug("change", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: error channel closed")
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// addTree registers root and every non-ignored directory below it.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.isIgnored(p) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", root, err)
	}
	return nil
}

func (w *Watcher) maybeAddDir(p string) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() || w.isIgnored(p) {
		return
	}
	if err := w.addTree(p); err != nil {
		w.logger.Warn("watching new directory", "path", p, "err", err)
	}
}

func (w *Watcher) isIgnored(p string) bool {
	normalized := strings.TrimPrefix(filepath.ToSlash(p), "/")
	for _, pat := range w.ignores {
		if ok, err := doublestar.Match(pat, normalized); err == nil && ok {
			return true
		}
	}
	return false
}
