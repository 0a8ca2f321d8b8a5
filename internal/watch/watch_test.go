package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// touchUntil rewrites a file under dir until done is closed or the deadline
// passes, so events are produced after the watch is in place.
func touchUntil(t *testing.T, dir string, done <-chan struct{}) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; ; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "g.md"), []byte(fmt.Sprint(i)), 0o644))
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatal("timed out waiting for change callback")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestRun_CallsOnChange(t *testing.T) {
	dir := t.TempDir()
	w := New([]string{dir}, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	called := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		fired := false
		errc <- w.Run(ctx, func(context.Context) error {
			if !fired {
				fired = true
				close(called)
			}
			return nil
		})
	}()

	touchUntil(t, dir, called)
	cancel()
	assert.NoError(t, <-errc)
}

func TestRun_ErrorDoesNotStopLoop(t *testing.T) {
	dir := t.TempDir()
	w := New([]string{dir}, WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	twice := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		calls := 0
		errc <- w.Run(ctx, func(context.Context) error {
			calls++
			if calls == 2 {
				close(twice)
			}
			return errors.New("render failed")
		})
	}()

	touchUntil(t, dir, twice)
	cancel()
	assert.NoError(t, <-errc)
}

func TestRun_FilterSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w := New([]string{dir},
		WithDebounce(10*time.Millisecond),
		WithFilter(func(p string) bool { return filepath.Ext(p) == ".md" }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	called := make(chan struct{}, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- w.Run(ctx, func(context.Context) error {
			select {
			case called <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(fmt.Sprint(i)), 0o644))
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	select {
	case <-called:
		t.Error("callback ran for a filtered file")
	default:
	}

	cancel()
	assert.NoError(t, <-errc)
}

func TestRun_NoDirectories(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "missing")})
	err := w.Run(context.Background(), func(context.Context) error { return nil })
	assert.EqualError(t, err, "no directories to watch")
}

func TestRelevant(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	w := New([]string{root}, WithIgnore(out))

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: filepath.Join(root, "guidelines", "a.md"), Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: filepath.Join(root, "rulesets", "go.toml"), Op: fsnotify.Create}, true},
		{"chmod only", fsnotify.Event{Name: filepath.Join(root, "a.md"), Op: fsnotify.Chmod}, false},
		{"dotfile", fsnotify.Event{Name: filepath.Join(root, ".a.md.swp"), Op: fsnotify.Write}, false},
		{"backup", fsnotify.Event{Name: filepath.Join(root, "a.md~"), Op: fsnotify.Write}, false},
		{"output dir", fsnotify.Event{Name: filepath.Join(out, "profiles", "x.md"), Op: fsnotify.Write}, false},
		{"output sibling", fsnotify.Event{Name: filepath.Join(root, "distant.md"), Op: fsnotify.Write}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.relevant(tc.event))
		})
	}
}

func TestAddTree_SkipsIgnoredAndHidden(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"guidelines/testing", "dist/site", ".git/objects"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755))
	}
	w := New([]string{root}, WithIgnore(filepath.Join(root, "dist")))

	fw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fw.Close()

	n, err := w.addTree(fw, root)
	require.NoError(t, err)
	assert.Equal(t, 3, n) // root, guidelines, guidelines/testing
	assert.ElementsMatch(t, []string{root, filepath.Join(root, "guidelines"), filepath.Join(root, "guidelines", "testing")}, fw.WatchList())
}
