package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/work-piyush006/lifesync-ai/internal/audio"
	"github.com/work-piyush006/lifesync-ai/internal/config"
	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
	"github.com/work-piyush006/lifesync-ai/internal/logger"
	"github.com/work-piyush006/lifesync-ai/internal/tone"
)

// Phase is the ring-session state.
type Phase string

const (
	// PhaseLoading is the transient state while the alarm is resolved.
	PhaseLoading Phase = "loading"
	// PhaseRinging is the active state: tone looping, gate open for signals.
	PhaseRinging Phase = "ringing"
	// PhaseSnoozed is terminal: the session ended with a superseding
	// five-minute reschedule.
	PhaseSnoozed Phase = "snoozed"
	// PhaseDismissed is terminal: the unlock gate was satisfied.
	PhaseDismissed Phase = "dismissed"
)

var (
	// ErrGateNotSatisfied rejects a dismiss attempt while unlock conditions
	// are unmet. The action is refused, never silently swallowed.
	ErrGateNotSatisfied = errors.New("unlock conditions not satisfied")
	// ErrNotRinging rejects actions on a session that already terminated.
	ErrNotRinging = errors.New("session is not ringing")
	// ErrNoGeoTarget reports a geo re-check on an alarm that never captured
	// a target; the condition is permanently unsatisfiable until one is set.
	ErrNoGeoTarget = errors.New("no geo target set for this alarm")
)

// ToneResolver selects the audio source for an alarm.
type ToneResolver interface {
	Resolve(ctx context.Context, alarm *domain.Alarm) tone.Source
	Bundled() tone.Source
}

// Rescheduler is the slice of the scheduler a session needs for snoozing.
type Rescheduler interface {
	ScheduleSnooze(ctx context.Context, alarmID int64) (time.Time, error)
}

// Snapshot is the observable session state consumed by the presentation
// layer. It is a value copy; mutating it affects nothing.
type Snapshot struct {
	// EpisodeID identifies this ringing episode.
	EpisodeID string
	// AlarmID is the resolved alarm's id; zero for the fallback alarm.
	AlarmID int64
	// Label is the alarm's display name.
	Label string
	// Phase is the current state-machine phase.
	Phase Phase
	// Signals is the accumulated unlock-signal snapshot.
	Signals domain.Signals
	// PlaybackActive reports whether the tone loop is running.
	PlaybackActive bool
	// GateSatisfied reports whether a dismiss attempt would currently succeed.
	GateSatisfied bool
	// GeoTargetMissing flags the permanently-unsatisfiable geo case so the
	// UI can show "no target set" instead of pretending progress is possible.
	GeoTargetMissing bool
	// PenaltyNoticeEligible reports whether snoozing surfaces the
	// informational penalty notice.
	PenaltyNoticeEligible bool
	// FallbackAlarm marks a session ringing the synthesized default alarm.
	FallbackAlarm bool
	// StartedAt is when the session entered Ringing.
	StartedAt time.Time
}

// SnoozeResult reports the outcome of a snooze.
type SnoozeResult struct {
	// PenaltyNotice tells the presentation layer to show the informational
	// penalty text. No funds move, ever.
	PenaltyNotice bool
	// WakeAt is when the superseding trigger fires.
	WakeAt time.Time
}

// Session is one alarm-ringing episode. All state mutations go through its
// mutex so concurrent signal updates and dismiss/snooze attempts cannot race
// into an inconsistent signal snapshot.
type Session struct {
	// episodeID identifies this episode across the API boundary.
	episodeID string
	// alarm is the resolved (or fallback) alarm, owned by the session.
	alarm *domain.Alarm
	// fallbackAlarm marks that resolution missed and the safe default rang.
	fallbackAlarm bool
	// settings is the user-preferences block for the penalty notice check.
	settings config.Settings
	// resolver picks the audio source.
	resolver ToneResolver
	// player starts tone loops; the session keeps its own handle so two
	// alarms ringing at once cannot stop each other's audio.
	player audio.Player
	// rescheduler registers the superseding snooze trigger.
	rescheduler Rescheduler
	// onTerminal is invoked once after the session leaves Ringing.
	onTerminal func(s *Session, terminal Phase)

	// mu is the single-writer discipline for everything below.
	mu sync.Mutex
	// phase is the state-machine position.
	phase Phase
	// playback is this session's tone loop; nil when nothing is playing.
	playback audio.Playback
	// signals accumulates unlock measurements.
	signals domain.Signals
	// playbackActive mirrors whether the player loop is running.
	playbackActive bool
	// startedAt is when the session entered Ringing.
	startedAt time.Time
}

// newSession builds a session in the Loading phase.
func newSession(
	alarm *domain.Alarm,
	fallbackAlarm bool,
	settings config.Settings,
	resolver ToneResolver,
	player audio.Player,
	rescheduler Rescheduler,
	onTerminal func(s *Session, terminal Phase),
) *Session {
	return &Session{
		episodeID:     uuid.NewString(),
		alarm:         alarm.Clone(),
		fallbackAlarm: fallbackAlarm,
		settings:      settings,
		resolver:      resolver,
		player:        player,
		rescheduler:   rescheduler,
		onTerminal:    onTerminal,
		phase:         PhaseLoading,
	}
}

// ring starts tone playback and enters Ringing. From the router's point of
// view resolution and ringing are atomic: there is no observable Loading
// window beyond this call. A session never stays silent on purpose; if the
// resolved source fails to start, the bundled tone is tried before giving up.
func (s *Session) ring(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.resolver.Resolve(ctx, s.alarm)

	playback, err := s.player.Start(ctx, source.Path)
	if err != nil {
		logger.WarnKV(ctx, "Tone failed to start, falling back to bundled tone",
			"episode_id", s.episodeID, "path", source.Path, "error", err)

		source = s.resolver.Bundled()

		playback, err = s.player.Start(ctx, source.Path)
		if err != nil {
			// A ringing alarm with no audible signal should never occur;
			// there is nothing further to fall back to, so record it loudly.
			logger.ErrorKV(ctx, "Bundled tone failed to start, session is silent",
				"episode_id", s.episodeID, "error", err)
		}
	}

	if err == nil {
		s.playback = playback
		s.playbackActive = true
	}

	s.phase = PhaseRinging
	s.startedAt = time.Now()

	logger.InfoKV(ctx, "Ring session started",
		"episode_id", s.episodeID, "alarm_id", s.alarm.ID,
		"fallback_alarm", s.fallbackAlarm, "tone", source.Path)
}

// EpisodeID returns the episode identifier.
func (s *Session) EpisodeID() string {
	return s.episodeID
}

// AlarmID returns the resolved alarm's id.
func (s *Session) AlarmID() int64 {
	return s.alarm.ID
}

// ConfirmFace records a successful biometric confirmation. One-shot: it
// never reverts.
func (s *Session) ConfirmFace(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRinging {
		return ErrNotRinging
	}

	s.signals.FaceConfirmed = true

	logger.DebugKV(ctx, "Face confirmed", "episode_id", s.episodeID)

	return nil
}

// AddSteps accumulates walked steps. Negative increments are ignored so the
// count stays monotonically non-decreasing.
func (s *Session) AddSteps(ctx context.Context, steps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRinging {
		return ErrNotRinging
	}

	if steps > 0 {
		s.signals.StepCount += steps
	}

	logger.DebugKV(ctx, "Steps accumulated",
		"episode_id", s.episodeID, "step_count", s.signals.StepCount)

	return nil
}

// CheckGeo re-evaluates the geofence against the provided position. The
// check is user-triggered and may be re-attempted any number of times; once
// it confirms, the signal sticks. An alarm that requires geo proof but never
// captured a target is reported via ErrNoGeoTarget, not silently bypassed.
func (s *Session) CheckGeo(ctx context.Context, current domain.GeoPoint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRinging {
		return false, ErrNotRinging
	}

	if s.alarm.GeoTargetMissing() {
		return false, ErrNoGeoTarget
	}

	if s.alarm.WithinGeoTarget(current) {
		s.signals.GeoConfirmed = true
	}

	logger.DebugKV(ctx, "Geo re-check",
		"episode_id", s.episodeID, "confirmed", s.signals.GeoConfirmed)

	return s.signals.GeoConfirmed, nil
}

// Dismiss ends the session if the unlock gate is satisfied. An attempt while
// unsatisfied is rejected with ErrGateNotSatisfied. On success playback is
// released unconditionally and the phase becomes Dismissed; the daily
// schedule for the alarm id stays intact for the next day.
func (s *Session) Dismiss(ctx context.Context) error {
	s.mu.Lock()

	if s.phase != PhaseRinging {
		s.mu.Unlock()
		return ErrNotRinging
	}

	if !domain.GateSatisfied(s.alarm.Conditions, s.signals) {
		s.mu.Unlock()
		return ErrGateNotSatisfied
	}

	s.stopPlaybackLocked(ctx)
	s.phase = PhaseDismissed
	s.mu.Unlock()

	logger.InfoKV(ctx, "Alarm dismissed",
		"episode_id", s.episodeID, "alarm_id", s.alarm.ID)

	s.notifyTerminal(PhaseDismissed)

	return nil
}

// Snooze ends the session with a superseding five-minute reschedule. It is
// accepted unconditionally while Ringing: the escape valve is never gated.
// The superseding registration is placed first; if the wake subsystem
// refuses it the session keeps ringing and the failure propagates, because
// silently losing the next trigger is worse than an extra minute of noise.
func (s *Session) Snooze(ctx context.Context) (*SnoozeResult, error) {
	s.mu.Lock()

	if s.phase != PhaseRinging {
		s.mu.Unlock()
		return nil, ErrNotRinging
	}

	wakeAt, err := s.rescheduler.ScheduleSnooze(ctx, s.alarm.ID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	result := &SnoozeResult{
		PenaltyNotice: s.penaltyNoticeEligibleLocked(),
		WakeAt:        wakeAt,
	}

	s.stopPlaybackLocked(ctx)
	s.phase = PhaseSnoozed
	s.mu.Unlock()

	logger.InfoKV(ctx, "Alarm snoozed",
		"episode_id", s.episodeID, "alarm_id", s.alarm.ID,
		"penalty_notice", result.PenaltyNotice)

	s.notifyTerminal(PhaseSnoozed)

	return result, nil
}

// Shutdown releases playback during abnormal teardown (daemon stopping while
// a session rings). The phase is left as-is; the episode simply dies with
// the process.
func (s *Session) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopPlaybackLocked(ctx)
}

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		EpisodeID:             s.episodeID,
		AlarmID:               s.alarm.ID,
		Label:                 s.alarm.Label,
		Phase:                 s.phase,
		Signals:               s.signals,
		PlaybackActive:        s.playbackActive,
		GateSatisfied:         domain.GateSatisfied(s.alarm.Conditions, s.signals),
		GeoTargetMissing:      s.alarm.GeoTargetMissing(),
		PenaltyNoticeEligible: s.penaltyNoticeEligibleLocked(),
		FallbackAlarm:         s.fallbackAlarm,
		StartedAt:             s.startedAt,
	}
}

// penaltyNoticeEligibleLocked evaluates the notice rule: UPI selected on the
// alarm, auto-cut consented, penalty not waived. Display-only. Caller holds mu.
func (s *Session) penaltyNoticeEligibleLocked() bool {
	return s.alarm.Requires(domain.ConditionUPI) &&
		s.settings.UPIAutoCutAllowed &&
		!s.settings.PenaltyWaived
}

// stopPlaybackLocked releases this session's playback handle. The attempt is
// unconditional on every exit path; a failing stop is logged and the active
// flag cleared regardless. Caller holds mu.
func (s *Session) stopPlaybackLocked(ctx context.Context) {
	if s.playback != nil {
		if err := s.playback.Stop(); err != nil {
			logger.ErrorKV(ctx, "Failed to stop playback",
				"episode_id", s.episodeID, "error", err)
		}

		s.playback = nil
	}

	s.playbackActive = false
}

// notifyTerminal runs the manager hook outside the session mutex.
func (s *Session) notifyTerminal(terminal Phase) {
	if s.onTerminal != nil {
		s.onTerminal(s, terminal)
	}
}
