package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/work-piyush006/lifesync-ai/internal/audio"
	"github.com/work-piyush006/lifesync-ai/internal/config"
	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
	"github.com/work-piyush006/lifesync-ai/internal/logger"
	"github.com/work-piyush006/lifesync-ai/internal/wake"
)

// ErrSessionNotFound is returned for actions on an unknown episode id.
var ErrSessionNotFound = errors.New("session not found")

// DailyScheduler restores the daily trigger after a snooze registration was
// consumed by the episode it superseded.
type DailyScheduler interface {
	ScheduleNext(ctx context.Context, alarm *domain.Alarm) error
}

// WakeIntrospector checks whether a registration is still pending for an id.
type WakeIntrospector interface {
	Pending(id int64) (time.Time, bool)
}

// Manager consumes wake deliveries and owns the live sessions.
// It guarantees at most one live session per alarm id; a duplicate delivery
// for an id that is already ringing is dropped, while a delivery for an id
// with no live session always starts a fresh one (idempotent re-entry).
type Manager struct {
	// router resolves wake payloads to alarms.
	router *Router
	// resolver picks audio sources for new sessions.
	resolver ToneResolver
	// player hands each session its own playback loop.
	player audio.Player
	// rescheduler registers snooze triggers.
	rescheduler Rescheduler
	// daily restores daily triggers after dismissals that followed a snooze.
	daily DailyScheduler
	// pending introspects the wake subsystem's registrations.
	pending WakeIntrospector
	// settings is handed to each session for the penalty-notice rule.
	settings config.Settings

	// mu protects the session maps.
	mu sync.Mutex
	// byAlarm maps alarm id to its single live session.
	byAlarm map[int64]*Session
	// byEpisode maps episode id to the session for API lookups.
	byEpisode map[string]*Session
}

// NewManager wires the session manager's collaborators.
func NewManager(
	router *Router,
	resolver ToneResolver,
	player audio.Player,
	rescheduler Rescheduler,
	daily DailyScheduler,
	pending WakeIntrospector,
	settings config.Settings,
) *Manager {
	return &Manager{
		router:      router,
		resolver:    resolver,
		player:      player,
		rescheduler: rescheduler,
		daily:       daily,
		pending:     pending,
		settings:    settings,
		byAlarm:     make(map[int64]*Session),
		byEpisode:   make(map[string]*Session),
	}
}

// Run consumes wake deliveries until the context is canceled.
// On shutdown any live session's playback is released.
func (m *Manager) Run(ctx context.Context, deliveries <-chan wake.Delivery) {
	ctx = logger.WithName(ctx, "sessions")

	for {
		select {
		case <-ctx.Done():
			m.shutdown(ctx)
			return

		case delivery, ok := <-deliveries:
			if !ok {
				m.shutdown(ctx)
				return
			}

			m.HandleDelivery(ctx, delivery)
		}
	}
}

// HandleDelivery turns one wake delivery into a ringing session.
func (m *Manager) HandleDelivery(ctx context.Context, delivery wake.Delivery) {
	alarm, fallbackUsed := m.router.Resolve(ctx, delivery.Payload)

	m.mu.Lock()

	if live, ok := m.byAlarm[alarm.ID]; ok {
		m.mu.Unlock()

		logger.WarnKV(ctx, "Duplicate wake delivery for ringing alarm, ignored",
			"alarm_id", alarm.ID, "episode_id", live.EpisodeID())

		return
	}

	s := newSession(alarm, fallbackUsed, m.settings, m.resolver, m.player, m.rescheduler, m.onTerminal(ctx))
	m.byAlarm[alarm.ID] = s
	m.byEpisode[s.EpisodeID()] = s
	m.mu.Unlock()

	s.ring(ctx)
}

// onTerminal builds the hook run when a session leaves Ringing: it frees the
// per-alarm slot and, after a dismissal, makes sure the daily trigger was
// not lost to a consumed snooze registration.
func (m *Manager) onTerminal(ctx context.Context) func(s *Session, terminal Phase) {
	return func(s *Session, terminal Phase) {
		m.mu.Lock()
		delete(m.byAlarm, s.AlarmID())
		delete(m.byEpisode, s.EpisodeID())
		m.mu.Unlock()

		if terminal != PhaseDismissed {
			return
		}

		m.restoreDailyAfterDismiss(ctx, s)
	}
}

// restoreDailyAfterDismiss re-registers the daily trigger when nothing is
// pending for the alarm id. A session born from a daily trigger leaves its
// re-armed registration intact; one born from a snooze one-off consumed the
// registration that superseded the daily entry, so the next day's trigger
// must be put back.
func (m *Manager) restoreDailyAfterDismiss(ctx context.Context, s *Session) {
	alarmID := s.AlarmID()

	if _, ok := m.pending.Pending(alarmID); ok {
		return
	}

	alarm, err := m.router.store.GetByID(ctx, alarmID)
	if err != nil {
		// Fallback or deleted alarm: nothing to restore.
		return
	}

	if !alarm.Enabled {
		return
	}

	if err = m.daily.ScheduleNext(ctx, alarm); err != nil {
		logger.ErrorKV(ctx, "Failed to restore daily trigger after dismissal",
			"alarm_id", alarmID, "error", err)
	}
}

// Get returns the live session for the episode id.
func (m *Manager) Get(episodeID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byEpisode[episodeID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return s, nil
}

// Active returns snapshots of every live session.
func (m *Manager) Active() []Snapshot {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.byEpisode))

	for _, s := range m.byEpisode {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	snapshots := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		snapshots = append(snapshots, s.Snapshot())
	}

	return snapshots
}

// shutdown releases playback of any session still ringing.
func (m *Manager) shutdown(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.byEpisode))

	for _, s := range m.byEpisode {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Shutdown(ctx)
	}
}
