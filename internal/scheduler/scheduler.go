package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
	"github.com/work-piyush006/lifesync-ai/internal/logger"
	repo "github.com/work-piyush006/lifesync-ai/internal/repository/alarms"
)

// SnoozeDuration is how far a snooze pushes the next trigger.
const SnoozeDuration = 5 * time.Minute

// WakeRegistrar abstracts the platform wake-event subsystem. Registering an
// id that is already scheduled replaces the prior entry; Cancel is idempotent.
type WakeRegistrar interface {
	Schedule(id int64, at time.Time, payload string, repeatDaily bool) error
	Cancel(id int64)
}

// Lister is the slice of the alarm store the scheduler needs at startup.
type Lister interface {
	ListEnabled(ctx context.Context) ([]*domain.Alarm, error)
}

// Scheduler translates alarm definitions into wake registrations.
type Scheduler struct {
	// registrar is the wake-event subsystem.
	registrar WakeRegistrar
	// store lists enabled alarms for the startup sync.
	store Lister
	// now is injectable for tests.
	now func() time.Time
}

// New creates a scheduler over the provided wake registrar and store.
func New(registrar WakeRegistrar, store Lister) *Scheduler {
	return &Scheduler{
		registrar: registrar,
		store:     store,
		now:       time.Now,
	}
}

// NextTrigger computes the next occurrence of the alarm's wall-clock time
// strictly after now: today at hour:minute, or the same time tomorrow when
// that instant has already passed. The result is always within 24 hours.
func NextTrigger(alarm *domain.Alarm, now time.Time) time.Time {
	trigger := time.Date(now.Year(), now.Month(), now.Day(), alarm.Hour, alarm.Minute, 0, 0, now.Location())
	if !trigger.After(now) {
		trigger = time.Date(now.Year(), now.Month(), now.Day()+1, alarm.Hour, alarm.Minute, 0, 0, now.Location())
	}

	return trigger
}

// ScheduleNext registers the alarm's daily trigger, replacing whatever was
// pending under its id. The payload is the alarm id, which WakeRouter uses
// to correlate the delivery back to the record.
func (s *Scheduler) ScheduleNext(ctx context.Context, alarm *domain.Alarm) error {
	trigger := NextTrigger(alarm, s.now())

	if err := s.registrar.Schedule(alarm.ID, trigger, payloadFor(alarm.ID), true); err != nil {
		return fmt.Errorf("schedule alarm %d: %w", alarm.ID, err)
	}

	logger.InfoKV(ctx, "Alarm scheduled",
		"alarm_id", alarm.ID, "trigger", trigger.Format(time.RFC3339))

	return nil
}

// ScheduleSnooze registers a one-off trigger five minutes out under the same
// alarm id, superseding the daily registration until it fires. It returns
// the instant the superseding trigger fires at.
func (s *Scheduler) ScheduleSnooze(ctx context.Context, alarmID int64) (time.Time, error) {
	trigger := s.now().Add(SnoozeDuration)

	if err := s.registrar.Schedule(alarmID, trigger, payloadFor(alarmID), false); err != nil {
		return time.Time{}, fmt.Errorf("schedule snooze for alarm %d: %w", alarmID, err)
	}

	logger.InfoKV(ctx, "Snooze scheduled",
		"alarm_id", alarmID, "trigger", trigger.Format(time.RFC3339))

	return trigger, nil
}

// Cancel removes any pending wake event for the alarm id. Idempotent.
func (s *Scheduler) Cancel(ctx context.Context, alarmID int64) {
	s.registrar.Cancel(alarmID)

	logger.DebugKV(ctx, "Alarm registration canceled", "alarm_id", alarmID)
}

// Sync registers every enabled alarm. Run at daemon startup so persisted
// alarms survive a restart; any registration failure aborts the sync.
func (s *Scheduler) Sync(ctx context.Context) error {
	alarms, err := s.store.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled alarms: %w", err)
	}

	for _, alarm := range alarms {
		if err = s.ScheduleNext(ctx, alarm); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Alarm schedule synced", "count", len(alarms))

	return nil
}

// payloadFor encodes the wake payload: the decimal alarm id.
func payloadFor(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ Lister = (repo.Repository)(nil)
