package alarms

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
)

// openTestStore opens a store backed by a throwaway database file.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "alarms.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// TestCreateAndGet verifies id allocation, normalization at the boundary and
// round-tripping of the geo target.
func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.Alarm{
		Label:     "Morning run",
		Hour:      6,
		Minute:    15,
		Enabled:   true,
		GeoTarget: &domain.GeoPoint{Latitude: 19.076, Longitude: 72.8777},
	})

	require.NoError(t, err)
	require.Positive(t, created.ID)

	// Empty condition selection was normalized to {Face} on the way in.
	require.Equal(t, []domain.Condition{domain.ConditionFace}, created.Conditions)

	got, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Label, got.Label)
	require.Equal(t, created.Conditions, got.Conditions)
	require.NotNil(t, got.GeoTarget)
	require.InDelta(t, 19.076, got.GeoTarget.Latitude, 1e-9)
	require.True(t, got.Enabled)
}

// TestGetByIDNotFound asserts the sentinel error for unknown ids.
func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	_, err := store.GetByID(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestCreateRejectsInvalid asserts validation happens at the store boundary.
func TestCreateRejectsInvalid(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	_, err := store.Create(context.Background(), &domain.Alarm{Hour: 24})
	require.Error(t, err)

	_, err = store.Create(context.Background(), &domain.Alarm{Hour: 7, Tone: domain.ToneCustom})
	require.Error(t, err)
}

// TestListEnabled verifies the filter the scheduler relies on at startup.
func TestListEnabled(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	on, err := store.Create(ctx, &domain.Alarm{Hour: 6, Enabled: true})
	require.NoError(t, err)

	_, err = store.Create(ctx, &domain.Alarm{Hour: 7, Enabled: false})
	require.NoError(t, err)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	enabled, err := store.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	require.Equal(t, on.ID, enabled[0].ID)
}

// TestSetEnabledAndDelete covers toggling and removal with sentinel errors.
func TestSetEnabledAndDelete(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.Alarm{Hour: 8, Enabled: true})
	require.NoError(t, err)

	updated, err := store.SetEnabled(ctx, created.ID, false)
	require.NoError(t, err)
	require.False(t, updated.Enabled)

	_, err = store.SetEnabled(ctx, 404, true)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, created.ID))
	require.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)
}

// TestReplaceAll verifies the whole-collection swap is atomic and keeps ids.
func TestReplaceAll(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, &domain.Alarm{Hour: 5})
	require.NoError(t, err)

	replacement := []*domain.Alarm{
		{ID: 10, Hour: 6, Minute: 30, Enabled: true},
		{ID: 11, Hour: 22, Minute: 0},
	}

	require.NoError(t, store.ReplaceAll(ctx, replacement))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, int64(10), all[0].ID)
	require.Equal(t, int64(11), all[1].ID)
}

// TestTonePool covers append-only registration, duplicate paths and pruning.
func TestTonePool(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.RegisterTone(ctx, &ToneRecord{Path: "tones/own.mp3", Kind: domain.ToneCustom})
	require.NoError(t, err)

	_, err = store.RegisterTone(ctx, &ToneRecord{Path: "tones/voice.mp3", Kind: domain.ToneSelfRecorded})
	require.NoError(t, err)

	// Re-registering the same path is not an error and does not duplicate.
	_, err = store.RegisterTone(ctx, &ToneRecord{Path: "tones/own.mp3", Kind: domain.ToneCustom})
	require.NoError(t, err)

	tones, err := store.ListTones(ctx)
	require.NoError(t, err)
	require.Len(t, tones, 2)

	// Pool rejects bundled/default entries.
	_, err = store.RegisterTone(ctx, &ToneRecord{Path: "x.mp3", Kind: domain.ToneDefault})
	require.Error(t, err)

	// Pruning an unknown path is a no-op.
	require.NoError(t, store.DeleteToneByPath(ctx, "tones/gone.mp3"))
	require.NoError(t, store.DeleteToneByPath(ctx, "tones/voice.mp3"))

	tones, err = store.ListTones(ctx)
	require.NoError(t, err)
	require.Len(t, tones, 1)
}
