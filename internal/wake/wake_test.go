package wake

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// waitForDelivery blocks until a wake event arrives or the test times out.
func waitForDelivery(t *testing.T, s *Subsystem) Delivery {
	t.Helper()

	select {
	case d := <-s.Deliveries():
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for wake delivery")
		return Delivery{}
	}
}

// TestScheduleDeliversPayload verifies a one-shot registration fires exactly
// once with its payload and is gone afterwards.
func TestScheduleDeliversPayload(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	defer s.Close()

	require.NoError(t, s.Schedule(42, time.Now().Add(20*time.Millisecond), "42", false))

	d := waitForDelivery(t, s)
	require.Equal(t, int64(42), d.ID)
	require.Equal(t, "42", d.Payload)

	_, pending := s.Pending(42)
	require.False(t, pending)
}

// TestScheduleRejectsPastInstant asserts the strictly-future contract.
func TestScheduleRejectsPastInstant(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	defer s.Close()

	err := s.Schedule(1, time.Now().Add(-time.Second), "1", false)
	require.ErrorIs(t, err, ErrInstantNotInFuture)

	err = s.Schedule(1, time.Now(), "1", false)
	require.ErrorIs(t, err, ErrInstantNotInFuture)
}

// TestRescheduleReplaces verifies registering an id twice supersedes the
// first entry instead of duplicating it.
func TestRescheduleReplaces(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	defer s.Close()

	// A distant daily entry, then a near one-off under the same id.
	daily := time.Now().Add(time.Hour)
	require.NoError(t, s.Schedule(7, daily, "daily", true))
	require.NoError(t, s.Schedule(7, time.Now().Add(20*time.Millisecond), "snooze", false))

	at, pending := s.Pending(7)
	require.True(t, pending)
	require.True(t, at.Before(daily))

	d := waitForDelivery(t, s)
	require.Equal(t, "snooze", d.Payload)

	// Only one delivery: the daily entry was replaced, not kept alongside.
	select {
	case extra := <-s.Deliveries():
		t.Fatalf("unexpected extra delivery: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestCancelIsIdempotent asserts canceling unknown ids is not an error and a
// canceled registration never fires.
func TestCancelIsIdempotent(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	defer s.Close()

	s.Cancel(404)

	require.NoError(t, s.Schedule(9, time.Now().Add(30*time.Millisecond), "9", false))
	s.Cancel(9)
	s.Cancel(9)

	select {
	case d := <-s.Deliveries():
		t.Fatalf("canceled registration fired: %+v", d)
	case <-time.After(120 * time.Millisecond):
	}
}

// TestDailyRegistrationReArms verifies a daily entry stays pending 24h out
// after it fires.
func TestDailyRegistrationReArms(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	defer s.Close()

	first := time.Now().Add(20 * time.Millisecond)
	require.NoError(t, s.Schedule(3, first, "3", true))

	waitForDelivery(t, s)

	next, pending := s.Pending(3)
	require.True(t, pending)
	require.Equal(t, first.AddDate(0, 0, 1), next)
}

// TestDailyReArmKeepsWallClockAcrossDST asserts recurrence is by calendar
// day and time-of-day, not by elapsed duration: a 07:00 alarm firing the
// day before a spring-forward transition re-arms at 07:00 the next day,
// even though only 23 hours elapse.
func TestDailyReArmKeepsWallClockAcrossDST(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	s := New(context.Background())
	defer s.Close()

	// 2026-03-08 02:00 EST jumps to 03:00 EDT.
	trigger := time.Date(2026, 3, 7, 7, 0, 0, 0, loc)
	s.now = func() time.Time {
		return trigger.Add(-20 * time.Millisecond)
	}

	require.NoError(t, s.Schedule(3, trigger, "3", true))

	waitForDelivery(t, s)

	next, pending := s.Pending(3)
	require.True(t, pending)
	require.True(t, next.Equal(time.Date(2026, 3, 8, 7, 0, 0, 0, loc)))
	require.Equal(t, 23*time.Hour, next.Sub(trigger))
}

// TestBurstOfTriggersAllDelivered fires more simultaneous registrations
// than the delivery buffer holds and checks none are lost while the
// consumer lags behind.
func TestBurstOfTriggersAllDelivered(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	defer s.Close()

	const total = deliveryBufferSize + 8

	at := time.Now().Add(30 * time.Millisecond)
	for id := int64(1); id <= total; id++ {
		require.NoError(t, s.Schedule(id, at, strconv.FormatInt(id, 10), false))
	}

	// Let every trigger fire before the first read.
	time.Sleep(200 * time.Millisecond)

	seen := make(map[int64]bool, total)
	for i := 0; i < total; i++ {
		seen[waitForDelivery(t, s).ID] = true
	}

	require.Len(t, seen, total)
}

// TestClosedSubsystemRejectsScheduling asserts the terminal state.
func TestClosedSubsystemRejectsScheduling(t *testing.T) {
	t.Parallel()

	s := New(context.Background())
	s.Close()

	err := s.Schedule(1, time.Now().Add(time.Minute), "1", false)
	require.ErrorIs(t, err, ErrClosed)
}
