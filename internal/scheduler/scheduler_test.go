package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
)

var errRegistrarRefused = errors.New("registrar refused")

// fakeRegistration records one Schedule call.
type fakeRegistration struct {
	// at is the requested trigger instant.
	at time.Time
	// payload is the opaque correlation data.
	payload string
	// repeatDaily mirrors the recurrence flag.
	repeatDaily bool
}

// fakeRegistrar is an in-memory WakeRegistrar with replace semantics.
type fakeRegistrar struct {
	// entries maps id to the latest registration.
	entries map[int64]fakeRegistration
	// scheduleErr forces Schedule to fail.
	scheduleErr error
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{entries: make(map[int64]fakeRegistration)}
}

// Schedule stores the registration, replacing any prior entry for the id.
func (f *fakeRegistrar) Schedule(id int64, at time.Time, payload string, repeatDaily bool) error {
	if f.scheduleErr != nil {
		return f.scheduleErr
	}

	f.entries[id] = fakeRegistration{at: at, payload: payload, repeatDaily: repeatDaily}

	return nil
}

// Cancel drops the registration if present.
func (f *fakeRegistrar) Cancel(id int64) {
	delete(f.entries, id)
}

// fakeLister serves a fixed set of enabled alarms.
type fakeLister struct {
	// alarms are returned from ListEnabled.
	alarms []*domain.Alarm
	// listErr forces ListEnabled to fail.
	listErr error
}

func (f *fakeLister) ListEnabled(context.Context) ([]*domain.Alarm, error) {
	return f.alarms, f.listErr
}

// TestNextTrigger checks the strictly-after-now contract across boundaries.
func TestNextTrigger(t *testing.T) {
	t.Parallel()

	alarm := &domain.Alarm{ID: 1, Hour: 7, Minute: 0}

	// Before today's occurrence: trigger is later today.
	now := time.Date(2025, 6, 10, 6, 0, 0, 0, time.Local)
	trigger := NextTrigger(alarm, now)
	require.Equal(t, time.Date(2025, 6, 10, 7, 0, 0, 0, time.Local), trigger)

	// One second past 07:00: trigger rolls to tomorrow.
	now = time.Date(2025, 6, 10, 7, 0, 1, 0, time.Local)
	trigger = NextTrigger(alarm, now)
	require.Equal(t, time.Date(2025, 6, 11, 7, 0, 0, 0, time.Local), trigger)

	// Exactly 07:00: not strictly after, rolls to tomorrow.
	now = time.Date(2025, 6, 10, 7, 0, 0, 0, time.Local)
	trigger = NextTrigger(alarm, now)
	require.Equal(t, time.Date(2025, 6, 11, 7, 0, 0, 0, time.Local), trigger)
}

// TestNextTriggerProperties sweeps a grid of times: the result is strictly
// after now, at most 24h later and matches the requested time-of-day.
func TestNextTriggerProperties(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)

	for hour := 0; hour < 24; hour += 5 {
		for minute := 0; minute < 60; minute += 17 {
			alarm := &domain.Alarm{Hour: hour, Minute: minute}

			for _, offset := range []time.Duration{0, 3 * time.Hour, 23*time.Hour + 59*time.Minute} {
				now := base.Add(offset)
				trigger := NextTrigger(alarm, now)

				require.True(t, trigger.After(now), "trigger %v not after now %v", trigger, now)
				require.LessOrEqual(t, trigger.Sub(now), 24*time.Hour)
				require.Equal(t, hour, trigger.Hour())
				require.Equal(t, minute, trigger.Minute())
			}
		}
	}
}

// TestScheduleNextRegistersDaily verifies the daily registration carries the
// alarm id as payload.
func TestScheduleNextRegistersDaily(t *testing.T) {
	t.Parallel()

	registrar := newFakeRegistrar()
	s := New(registrar, &fakeLister{})

	require.NoError(t, s.ScheduleNext(context.Background(), &domain.Alarm{ID: 42, Hour: 7}))

	entry, ok := registrar.entries[42]
	require.True(t, ok)
	require.True(t, entry.repeatDaily)
	require.Equal(t, "42", entry.payload)
}

// TestScheduleSnoozeSupersedesDaily verifies the snooze one-off lands five
// minutes out under the same id, replacing the daily entry.
func TestScheduleSnoozeSupersedesDaily(t *testing.T) {
	t.Parallel()

	registrar := newFakeRegistrar()
	s := New(registrar, &fakeLister{})
	s.now = func() time.Time {
		return time.Date(2025, 6, 10, 7, 0, 0, 0, time.Local)
	}

	require.NoError(t, s.ScheduleNext(context.Background(), &domain.Alarm{ID: 42, Hour: 7}))

	wakeAt, err := s.ScheduleSnooze(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 10, 7, 5, 0, 0, time.Local), wakeAt)

	require.Len(t, registrar.entries, 1)

	entry := registrar.entries[42]
	require.False(t, entry.repeatDaily)
	require.Equal(t, wakeAt, entry.at)
	require.Equal(t, "42", entry.payload)
}

// TestScheduleFailurePropagates asserts a refused registration reaches the
// caller instead of degrading silently.
func TestScheduleFailurePropagates(t *testing.T) {
	t.Parallel()

	registrar := newFakeRegistrar()
	registrar.scheduleErr = errRegistrarRefused
	s := New(registrar, &fakeLister{})

	err := s.ScheduleNext(context.Background(), &domain.Alarm{ID: 1, Hour: 6})
	require.ErrorIs(t, err, errRegistrarRefused)

	_, err = s.ScheduleSnooze(context.Background(), 1)
	require.ErrorIs(t, err, errRegistrarRefused)
}

// TestSyncRegistersEnabledAlarms covers the startup re-registration path.
func TestSyncRegistersEnabledAlarms(t *testing.T) {
	t.Parallel()

	registrar := newFakeRegistrar()
	lister := &fakeLister{
		alarms: []*domain.Alarm{
			{ID: 1, Hour: 6, Enabled: true},
			{ID: 2, Hour: 22, Minute: 30, Enabled: true},
		},
	}

	s := New(registrar, lister)

	require.NoError(t, s.Sync(context.Background()))
	require.Len(t, registrar.entries, 2)

	lister.listErr = errRegistrarRefused
	require.Error(t, s.Sync(context.Background()))
}

// TestCancel verifies the disable/delete path clears the pending entry.
func TestCancel(t *testing.T) {
	t.Parallel()

	registrar := newFakeRegistrar()
	s := New(registrar, &fakeLister{})

	require.NoError(t, s.ScheduleNext(context.Background(), &domain.Alarm{ID: 5, Hour: 9}))
	s.Cancel(context.Background(), 5)

	require.Empty(t, registrar.entries)

	// Canceling again is fine.
	s.Cancel(context.Background(), 5)
}
