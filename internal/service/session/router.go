package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
	"github.com/work-piyush006/lifesync-ai/internal/logger"
	repo "github.com/work-piyush006/lifesync-ai/internal/repository/alarms"
)

// AlarmGetter is the slice of the alarm store the router needs.
type AlarmGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Alarm, error)
}

// Router resolves inbound wake payloads to alarms.
type Router struct {
	// store looks up alarms by id.
	store AlarmGetter
	// now is injectable for tests.
	now func() time.Time
}

// NewRouter creates a router over the provided store.
func NewRouter(store AlarmGetter) *Router {
	return &Router{
		store: store,
		now:   time.Now,
	}
}

// Resolve maps an opaque wake payload to its alarm. A malformed payload, a
// stale id (alarm deleted after scheduling) or a failing store all produce
// the synthesized fallback alarm so a ring session always has a well-formed
// record; each case is logged as a distinct recovered condition. The second
// result reports whether the fallback was used.
func (r *Router) Resolve(ctx context.Context, payload string) (*domain.Alarm, bool) {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		logger.WarnKV(ctx, "Malformed wake payload, ringing fallback alarm",
			"payload", payload, "error", err)

		return domain.Fallback(r.now()), true
	}

	alarm, err := r.store.GetByID(ctx, id)
	switch {
	case err == nil:
		return alarm, false
	case errors.Is(err, repo.ErrNotFound):
		logger.WarnKV(ctx, "Wake payload references unknown alarm, ringing fallback alarm",
			"alarm_id", id)
	default:
		logger.ErrorKV(ctx, "Alarm lookup failed, ringing fallback alarm",
			"alarm_id", id, "error", err)
	}

	return domain.Fallback(r.now()), true
}
