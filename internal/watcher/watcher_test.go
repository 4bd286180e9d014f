package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-log-analyzer/internal/model"
)

func TestRelevant(t *testing.T) {
	tcs := map[string]struct {
		event fsnotify.Event
		want  bool
	}{
		"create log":    {event: fsnotify.Event{Name: "/log/nginx-access-ui.log-20230301", Op: fsnotify.Create}, want: true},
		"write gz log":  {event: fsnotify.Event{Name: "/log/nginx-access-ui.log-20230301.gz", Op: fsnotify.Write}, want: true},
		"rename log":    {event: fsnotify.Event{Name: "/log/nginx-access-ui.log-20230301", Op: fsnotify.Rename}, want: true},
		"chmod log":     {event: fsnotify.Event{Name: "/log/nginx-access-ui.log-20230301", Op: fsnotify.Chmod}, want: false},
		"remove log":    {event: fsnotify.Event{Name: "/log/nginx-access-ui.log-20230301", Op: fsnotify.Remove}, want: false},
		"other file":    {event: fsnotify.Event{Name: "/log/error.log", Op: fsnotify.Create}, want: false},
		"registry file": {event: fsnotify.Event{Name: "/log/.processed.txt", Op: fsnotify.Write}, want: false},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, relevant(tc.event))
		})
	}
}

func TestWatchTriggersRun(t *testing.T) {
	logDir := t.TempDir()

	spec := model.DefaultSpec()
	spec.LogDir = logDir

	var runs atomic.Int64
	ran := make(chan struct{}, 1)

	w := New(spec)
	w.Debounce = 50 * time.Millisecond
	w.RunFunc = func(ctx context.Context, runID string, spec model.RunSpec) error {
		runs.Add(1)
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher a moment to arm before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(
		filepath.Join(logDir, "nginx-access-ui.log-20230301"), []byte("x\n"), 0644))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not trigger a run")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}

	assert.GreaterOrEqual(t, runs.Load(), int64(1))
}

func TestWatchMissingDir(t *testing.T) {
	spec := model.DefaultSpec()
	spec.LogDir = filepath.Join(t.TempDir(), "missing")

	err := New(spec).Watch(context.Background())
	assert.Error(t, err)
}
