package tone

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
	repo "github.com/work-piyush006/lifesync-ai/internal/repository/alarms"
)

const testBundledTone = "assets/default-alarm.mp3"

var errPoolUnavailable = errors.New("pool unavailable")

// fakePool serves a fixed tone list.
type fakePool struct {
	// tones are returned from ListTones.
	tones []*repo.ToneRecord
	// listErr forces ListTones to fail.
	listErr error
}

func (f *fakePool) ListTones(context.Context) ([]*repo.ToneRecord, error) {
	return f.tones, f.listErr
}

// newTestResolver builds a resolver with deterministic file existence:
// only paths in existing are considered present.
func newTestResolver(pool PoolLister, existing ...string) *Resolver {
	present := make(map[string]struct{}, len(existing))
	for _, path := range existing {
		present[path] = struct{}{}
	}

	r := NewResolver(pool, testBundledTone)
	r.fileExists = func(path string) bool {
		_, ok := present[path]
		return ok
	}
	r.pick = func(int) int { return 0 }

	return r
}

// TestResolveDefault verifies the bundled asset is used as-is.
func TestResolveDefault(t *testing.T) {
	t.Parallel()

	r := newTestResolver(&fakePool{})

	source := r.Resolve(context.Background(), &domain.Alarm{Tone: domain.ToneDefault})
	require.Equal(t, testBundledTone, source.Path)
	require.False(t, source.Fallback)
}

// TestResolveCustom covers the stored reference and its missing-file fallback.
func TestResolveCustom(t *testing.T) {
	t.Parallel()

	r := newTestResolver(&fakePool{}, "tones/own.mp3")

	alarm := &domain.Alarm{Tone: domain.ToneCustom, ToneRef: "tones/own.mp3"}
	source := r.Resolve(context.Background(), alarm)
	require.Equal(t, "tones/own.mp3", source.Path)
	require.False(t, source.Fallback)

	// The referenced file disappeared: never silent, fall back.
	alarm.ToneRef = "tones/gone.mp3"
	source = r.Resolve(context.Background(), alarm)
	require.Equal(t, testBundledTone, source.Path)
	require.True(t, source.Fallback)
}

// TestResolveSelfRecorded verifies self recordings resolve like custom tones.
func TestResolveSelfRecorded(t *testing.T) {
	t.Parallel()

	r := newTestResolver(&fakePool{}, "tones/voice.mp3")

	alarm := &domain.Alarm{Tone: domain.ToneSelfRecorded, ToneRef: "tones/voice.mp3"}
	source := r.Resolve(context.Background(), alarm)
	require.Equal(t, "tones/voice.mp3", source.Path)
}

// TestResolveShuffle covers the pool pick plus every shuffle fallback:
// empty pool, missing chosen file and unavailable pool.
func TestResolveShuffle(t *testing.T) {
	t.Parallel()

	alarm := &domain.Alarm{Tone: domain.ToneShuffle}

	pool := &fakePool{
		tones: []*repo.ToneRecord{
			{Path: "tones/a.mp3", Kind: domain.ToneCustom},
			{Path: "tones/b.mp3", Kind: domain.ToneSelfRecorded},
		},
	}

	r := newTestResolver(pool, "tones/a.mp3", "tones/b.mp3")
	r.pick = func(n int) int {
		require.Equal(t, 2, n)
		return 1
	}

	source := r.Resolve(context.Background(), alarm)
	require.Equal(t, "tones/b.mp3", source.Path)
	require.False(t, source.Fallback)

	// Empty pool.
	r = newTestResolver(&fakePool{})
	source = r.Resolve(context.Background(), alarm)
	require.Equal(t, testBundledTone, source.Path)
	require.True(t, source.Fallback)

	// Chosen file missing.
	r = newTestResolver(pool)
	source = r.Resolve(context.Background(), alarm)
	require.True(t, source.Fallback)

	// Pool unavailable.
	r = newTestResolver(&fakePool{listErr: errPoolUnavailable})
	source = r.Resolve(context.Background(), alarm)
	require.Equal(t, testBundledTone, source.Path)
	require.True(t, source.Fallback)
}

// TestResolveUnknownToneFallsBack asserts resolution is total.
func TestResolveUnknownToneFallsBack(t *testing.T) {
	t.Parallel()

	r := newTestResolver(&fakePool{})

	source := r.Resolve(context.Background(), &domain.Alarm{Tone: domain.Tone("vinyl")})
	require.Equal(t, testBundledTone, source.Path)
	require.True(t, source.Fallback)
}
