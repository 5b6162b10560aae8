package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	fired chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 10)}
}

func (r *recorder) onChange(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.fired <- struct{}{}
	return nil
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func start(t *testing.T, cfg Config) (cancel func()) {
	t.Helper()
	cfg.Logger = log.New(io.Discard)
	if cfg.Debounce == 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	w, err := New(cfg)
	require.NoError(t, err)

	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	return func() {
		stop()
		require.NoError(t, <-errCh)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rec := newRecorder()
	stop := start(t, Config{Roots: []string{dir}, OnChange: rec.onChange})

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-rec.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(300 * time.Millisecond)
	stop()

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		assert.Contains(t, calls[0], filepath.Join(dir, name))
	}
}

func TestWatcher_Ignore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rec := newRecorder()
	stop := start(t, Config{Roots: []string{dir}, Ignore: []string{"**/*.tmp"}, OnChange: rec.onChange})
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.tmp"), []byte("x"), 0o644))

	select {
	case <-rec.fired:
		t.Fatalf("ignored file triggered callback: %v", rec.snapshot())
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rec := newRecorder()
	stop := start(t, Config{Roots: []string{dir}, OnChange: rec.onChange})
	defer stop()

	sub := filepath.Join(dir, "skills", "new-skill")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	select {
	case <-rec.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for directory callback")
	}

	// Give the watcher time to register the new tree.
	time.Sleep(100 * time.Millisecond)
	target := filepath.Join(sub, "SKILL.md")
	require.NoError(t, os.WriteFile(target, []byte("---\nname: bmad-new-skill\n---\n"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-rec.fired:
			for _, call := range rec.snapshot() {
				for _, p := range call {
					if p == target {
						return
					}
				}
			}
		case <-deadline:
			t.Fatalf("no callback for %s: %v", target, rec.snapshot())
		}
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()
	_, err := New(Config{Roots: []string{t.TempDir()}, Ignore: []string{"[unclosed"}, Logger: log.New(io.Discard)})
	assert.ErrorContains(t, err, "invalid ignore pattern")

	_, err = New(Config{Roots: []string{filepath.Join(t.TempDir(), "missing")}, Logger: log.New(io.Discard)})
	assert.ErrorContains(t, err, "no directories to watch")
}

func TestWatcher_RunTwice(t *testing.T) {
	t.Parallel()
	w, err := New(Config{Roots: []string{t.TempDir()}, Logger: log.New(io.Discard)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))
	assert.ErrorContains(t, w.Run(ctx), "more than once")
}

func TestIsIgnored(t *testing.T) {
	w := &Watcher{ignores: append(defaultIgnores, "**/*.bak")}
	assert.True(t, w.isIgnored("/proj/.upstream/BMAD-METHOD/.git/HEAD"))
	assert.True(t, w.isIgnored("/proj/.upstream/BMAD-METHOD/.git"))
	assert.True(t, w.isIgnored("/proj/node_modules/x/index.js"))
	assert.True(t, w.isIgnored("/proj/plugins/bmad/skills/a/SKILL.md.bak"))
	assert.False(t, w.isIgnored("/proj/plugins/bmad/skills/a/SKILL.md"))
}
