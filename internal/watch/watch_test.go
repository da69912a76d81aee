package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leapstack-labs/siteaudit/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startWatch runs Run in the background and returns the batch channel and
// a stop function that waits for Run to return.
func startWatch(t *testing.T, opts Options) (<-chan []string, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 8)
	done := make(chan error, 1)
	ready := make(chan struct{})

	go func() {
		close(ready)
		done <- Run(ctx, opts, func(_ context.Context, changed []string) {
			batches <- changed
		})
	}()
	<-ready
	// let the watcher register its directories
	time.Sleep(100 * time.Millisecond)

	stop := func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
	return batches, stop
}

func waitBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch received")
		return nil
	}
}

func TestRun_DebouncesChanges(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{
		"index.html":         "<html></html>",
		"maryland/page.html": "<html></html>",
	})

	batches, stop := startWatch(t, Options{
		Root:       root,
		Extensions: []string{".html"},
		Debounce:   100 * time.Millisecond,
		Logger:     testutil.NewTestLogger(t),
	})
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>1</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "maryland", "page.html"), []byte("<html>2</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644))

	got := waitBatch(t, batches)
	assert.Equal(t, []string{
		filepath.Join(root, "index.html"),
		filepath.Join(root, "maryland", "page.html"),
	}, got)
}

func TestRun_WatchesNewDirectories(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{"index.html": "x"})

	batches, stop := startWatch(t, Options{
		Root:       root,
		Extensions: []string{".html"},
		Debounce:   50 * time.Millisecond,
	})
	defer stop()

	dir := filepath.Join(root, "virginia")
	require.NoError(t, os.Mkdir(dir, 0o755))
	// give the loop a moment to add the new directory
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.html"), []byte("x"), 0o644))

	got := waitBatch(t, batches)
	assert.Contains(t, got, filepath.Join(dir, "new.html"))
}

func TestRun_SkipsExcludedDirectories(t *testing.T) {
	root := testutil.WriteSite(t, map[string]string{
		"index.html":              "x",
		"node_modules/dep/a.html": "x",
	})

	batches, stop := startWatch(t, Options{
		Root:       root,
		Extensions: []string{".html"},
		Exclude:    []string{"node_modules"},
		Debounce:   50 * time.Millisecond,
	})
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep", "a.html"), []byte("y"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("y"), 0o644))

	got := waitBatch(t, batches)
	assert.Equal(t, []string{filepath.Join(root, "index.html")}, got)
}

func TestRun_MissingRoot(t *testing.T) {
	err := Run(context.Background(), Options{Root: filepath.Join(t.TempDir(), "missing")}, func(context.Context, []string) {})
	require.Error(t, err)
}
