package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestChangeTriggersSingleRun(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0644))

	var runs atomic.Int32
	w, err := New(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, 100*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Watch(file))
	w.Start(context.Background())
	defer w.Stop()

	// a burst of saves collapses into one run
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(file, []byte("v2"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	st := w.Stats()
	assert.Equal(t, 1, st.Runs)
	assert.GreaterOrEqual(t, st.Events, 1)
}

func TestUnrelatedFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0644))

	var runs atomic.Int32
	w, err := New(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Watch(file))
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
	assert.Equal(t, 0, w.Stats().Events)
}

func TestRunErrorsCounted(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(file, []byte("1"), 0644))

	w, err := New(func(ctx context.Context) error {
		return errors.New("export failed")
	}, 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Watch(file, file))
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(file, []byte("2"), 0644))
	assert.Eventually(t, func() bool { return w.Stats().Runs == 1 }, 3*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, w.Stats().Errors, 1)
}

func TestStopOnCancelledContext(t *testing.T) {
	w, err := New(func(ctx context.Context) error { return nil }, 0, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	w.Start(ctx)
	cancel()
	w.Stop()
	w.Stop()
}
