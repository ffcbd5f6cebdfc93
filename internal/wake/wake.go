package wake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/work-piyush006/lifesync-ai/internal/logger"
)

// Delivery is one fired wake event. The payload is opaque to the subsystem;
// the session layer correlates it back to an alarm.
type Delivery struct {
	// ID is the registration key the event fired under.
	ID int64
	// Payload is the opaque correlation data supplied at registration.
	Payload string
	// FiredAt is when the trigger fired.
	FiredAt time.Time
}

// deliveryBufferSize smooths bursts of simultaneous triggers; once it is
// full the firing goroutines block until the consumer catches up, so no
// event is ever lost.
const deliveryBufferSize = 16

var (
	// ErrClosed is returned when scheduling on a closed subsystem.
	ErrClosed = errors.New("wake subsystem is closed")
	// ErrInstantNotInFuture is returned when the requested trigger instant
	// is not strictly after the current time.
	ErrInstantNotInFuture = errors.New("trigger instant must be in the future")
)

// registration is one pending wake entry.
type registration struct {
	// at is the next trigger instant.
	at time.Time
	// payload is delivered verbatim when the trigger fires.
	payload string
	// repeatDaily re-arms the entry 24 hours after each firing.
	repeatDaily bool
	// timer drives the firing.
	timer *time.Timer
}

// Subsystem is an in-process exact wake-event service.
type Subsystem struct {
	// ctx carries the named logger for event diagnostics.
	ctx context.Context
	// now is injectable for tests.
	now func() time.Time

	// mu protects registrations and the closed flag.
	mu sync.Mutex
	// registrations maps alarm id to its single pending entry.
	registrations map[int64]*registration
	// deliveries carries fired events to the consumer.
	deliveries chan Delivery
	// closed blocks further scheduling once Close ran.
	closed bool
}

// New creates a wake subsystem ready to accept registrations.
func New(ctx context.Context) *Subsystem {
	return &Subsystem{
		ctx:           logger.WithName(ctx, "wake"),
		now:           time.Now,
		registrations: make(map[int64]*registration),
		deliveries:    make(chan Delivery, deliveryBufferSize),
	}
}

// Deliveries returns the channel fired wake events arrive on.
func (s *Subsystem) Deliveries() <-chan Delivery {
	return s.deliveries
}

// Schedule registers an exact trigger for the id. An existing registration
// under the same id is replaced, never duplicated. The instant must be
// strictly in the future; a refused registration is reported to the caller
// because an alarm that silently never fires is the worst failure mode.
func (s *Subsystem) Schedule(id int64, at time.Time, payload string, repeatDaily bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if !at.After(s.now()) {
		return ErrInstantNotInFuture
	}

	// Replace semantics: drop the previous entry first.
	s.cancelLocked(id)

	reg := &registration{
		at:          at,
		payload:     payload,
		repeatDaily: repeatDaily,
	}
	reg.timer = time.AfterFunc(at.Sub(s.now()), func() {
		s.fire(id, reg)
	})

	s.registrations[id] = reg

	logger.DebugKV(s.ctx, "Wake event registered",
		"id", id, "at", at.Format(time.RFC3339), "repeat_daily", repeatDaily)

	return nil
}

// Cancel removes any pending registration for the id. It is idempotent:
// canceling an unknown id is not an error.
func (s *Subsystem) Cancel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(id)
}

// cancelLocked stops and removes the registration. Caller holds mu.
func (s *Subsystem) cancelLocked(id int64) {
	reg, ok := s.registrations[id]
	if !ok {
		return
	}

	reg.timer.Stop()
	delete(s.registrations, id)
}

// Pending reports the next trigger instant registered for the id.
func (s *Subsystem) Pending(id int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[id]
	if !ok {
		return time.Time{}, false
	}

	return reg.at, true
}

// Close cancels every registration and stops accepting new ones.
// The deliveries channel stays open so late consumers do not panic.
func (s *Subsystem) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.registrations {
		s.cancelLocked(id)
	}

	s.closed = true
}

// fire delivers one trigger and re-arms daily registrations.
func (s *Subsystem) fire(id int64, reg *registration) {
	s.mu.Lock()

	// The registration may have been replaced or canceled between the timer
	// firing and this callback acquiring the lock; only the current entry
	// is allowed to deliver.
	if s.closed || s.registrations[id] != reg {
		s.mu.Unlock()
		return
	}

	if reg.repeatDaily {
		// Next calendar day at the same wall-clock time. Adding a flat 24h
		// would shift the alarm by an hour across a DST transition.
		reg.at = reg.at.AddDate(0, 0, 1)
		reg.timer = time.AfterFunc(reg.at.Sub(s.now()), func() {
			s.fire(id, reg)
		})
	} else {
		delete(s.registrations, id)
	}

	delivery := Delivery{
		ID:      id,
		Payload: reg.payload,
		FiredAt: s.now(),
	}

	s.mu.Unlock()

	// Deliver outside the mutex and wait for the consumer: dropping the
	// event would mean an alarm that never rings.
	select {
	case s.deliveries <- delivery:
	case <-s.ctx.Done():
		logger.WarnKV(s.ctx, "Wake event abandoned during shutdown", "id", id)
	}
}
