package tone

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
	repo "github.com/work-piyush006/lifesync-ai/internal/repository/alarms"
)

// newTestPool builds a pool over a throwaway store and tone directory.
func newTestPool(t *testing.T) (*Pool, string) {
	t.Helper()

	dir := t.TempDir()

	store, err := repo.Open(context.Background(), filepath.Join(dir, "alarms.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})

	toneDir := filepath.Join(dir, "tones")

	pool, err := NewPool(context.Background(), store, toneDir)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = pool.Close()
	})

	return pool, toneDir
}

// writeToneFile creates a placeholder audio file.
func writeToneFile(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("riff"), 0o600))

	return path
}

// TestRegisterAndList verifies registration requires an existing file.
func TestRegisterAndList(t *testing.T) {
	t.Parallel()

	pool, toneDir := newTestPool(t)
	ctx := context.Background()

	path := writeToneFile(t, toneDir, "own.mp3")

	record, err := pool.Register(ctx, path, domain.ToneCustom)
	require.NoError(t, err)
	require.Equal(t, path, record.Path)

	// A path with no file behind it is rejected.
	_, err = pool.Register(ctx, filepath.Join(toneDir, "ghost.mp3"), domain.ToneCustom)
	require.Error(t, err)

	tones, err := pool.ListTones(ctx)
	require.NoError(t, err)
	require.Len(t, tones, 1)
}

// TestWatcherPrunesRemovedFiles asserts a deleted audio file drops out of
// the pool without any explicit API call.
func TestWatcherPrunesRemovedFiles(t *testing.T) {
	t.Parallel()

	pool, toneDir := newTestPool(t)
	ctx := context.Background()

	keep := writeToneFile(t, toneDir, "keep.mp3")
	gone := writeToneFile(t, toneDir, "gone.mp3")

	_, err := pool.Register(ctx, keep, domain.ToneCustom)
	require.NoError(t, err)

	_, err = pool.Register(ctx, gone, domain.ToneSelfRecorded)
	require.NoError(t, err)

	require.NoError(t, os.Remove(gone))

	require.Eventually(t, func() bool {
		tones, listErr := pool.ListTones(ctx)

		return listErr == nil && len(tones) == 1 && tones[0].Path == keep
	}, 3*time.Second, 20*time.Millisecond)
}
