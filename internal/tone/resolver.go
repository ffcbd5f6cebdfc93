package tone

import (
	"context"
	"math/rand"
	"os"

	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
	"github.com/work-piyush006/lifesync-ai/internal/logger"
	repo "github.com/work-piyush006/lifesync-ai/internal/repository/alarms"
)

// Source is a resolved, playable audio reference.
type Source struct {
	// Path is the audio file to loop.
	Path string
	// Fallback marks that the intended source was unavailable and the
	// bundled asset was substituted.
	Fallback bool
}

// PoolLister exposes the registered tone sources the shuffle pick draws from.
type PoolLister interface {
	ListTones(ctx context.Context) ([]*repo.ToneRecord, error)
}

// Resolver maps an alarm's tone selection onto a playable source.
type Resolver struct {
	// pool is the registered-tone collection.
	pool PoolLister
	// bundled is the always-available fallback asset.
	bundled string
	// fileExists is injectable for tests.
	fileExists func(path string) bool
	// pick selects a shuffle index, injectable for determinism in tests.
	pick func(n int) int
}

// NewResolver creates a resolver over the provided pool and bundled asset.
func NewResolver(pool PoolLister, bundled string) *Resolver {
	return &Resolver{
		pool:       pool,
		bundled:    bundled,
		fileExists: fileExists,
		pick:       rand.Intn,
	}
}

// Bundled returns the always-available fallback source. Sessions switch to
// it when the resolved source fails to start playing.
func (r *Resolver) Bundled() Source {
	return Source{Path: r.bundled, Fallback: true}
}

// Resolve deterministically maps the alarm's tone selection onto a source,
// substituting the bundled asset whenever the intended file is unavailable.
// Each fallback is logged as its own condition; none of them is an error
// from the caller's perspective.
func (r *Resolver) Resolve(ctx context.Context, alarm *domain.Alarm) Source {
	switch alarm.Tone {
	case domain.ToneDefault:
		return Source{Path: r.bundled}

	case domain.ToneCustom, domain.ToneSelfRecorded:
		if r.fileExists(alarm.ToneRef) {
			return Source{Path: alarm.ToneRef}
		}

		logger.WarnKV(ctx, "Alarm tone file missing, using bundled tone",
			"alarm_id", alarm.ID, "tone_ref", alarm.ToneRef)

		return Source{Path: r.bundled, Fallback: true}

	case domain.ToneShuffle:
		return r.resolveShuffle(ctx, alarm)

	default:
		logger.WarnKV(ctx, "Unknown tone kind, using bundled tone",
			"alarm_id", alarm.ID, "tone", alarm.Tone)

		return Source{Path: r.bundled, Fallback: true}
	}
}

// resolveShuffle picks one pool entry uniformly at random.
func (r *Resolver) resolveShuffle(ctx context.Context, alarm *domain.Alarm) Source {
	tones, err := r.pool.ListTones(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Tone pool unavailable, using bundled tone",
			"alarm_id", alarm.ID, "error", err)

		return Source{Path: r.bundled, Fallback: true}
	}

	if len(tones) == 0 {
		logger.WarnKV(ctx, "Tone pool empty, using bundled tone", "alarm_id", alarm.ID)

		return Source{Path: r.bundled, Fallback: true}
	}

	chosen := tones[r.pick(len(tones))]
	if !r.fileExists(chosen.Path) {
		logger.WarnKV(ctx, "Shuffled tone file missing, using bundled tone",
			"alarm_id", alarm.ID, "path", chosen.Path)

		return Source{Path: r.bundled, Fallback: true}
	}

	return Source{Path: chosen.Path}
}

// fileExists reports whether the path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
