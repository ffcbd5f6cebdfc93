package alarm

import (
	"errors"
	"fmt"
	"time"
)

// Tone selects the audio source an alarm rings with.
type Tone string

const (
	// ToneDefault plays the bundled asset.
	ToneDefault Tone = "default"
	// ToneCustom plays a user-picked audio file referenced by ToneRef.
	ToneCustom Tone = "custom"
	// ToneSelfRecorded plays a recording made by the user, referenced by ToneRef.
	ToneSelfRecorded Tone = "self_recorded"
	// ToneShuffle picks a random entry from the registered tone pool.
	ToneShuffle Tone = "shuffle"
)

// Condition is a proof-of-wakefulness requirement gating alarm dismissal.
type Condition string

const (
	// ConditionFace requires a biometric confirmation.
	ConditionFace Condition = "face"
	// ConditionWalk requires the user to accumulate steps.
	ConditionWalk Condition = "walk"
	// ConditionGeo requires the user to be near the alarm's geo target.
	ConditionGeo Condition = "geo"
	// ConditionUPI never gates dismissal; it only enables the penalty notice.
	ConditionUPI Condition = "upi"
)

// WalkStepThreshold is the step count required to satisfy ConditionWalk.
const WalkStepThreshold = 25

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	// Latitude in decimal degrees, positive north.
	Latitude float64
	// Longitude in decimal degrees, positive east.
	Longitude float64
}

// Alarm is the persisted definition of a single wake time.
// Its ID doubles as the wake-event correlation token.
type Alarm struct {
	// ID is the process-unique identifier, stable for the alarm's lifetime.
	ID int64
	// Label is an optional display name.
	Label string
	// Hour is the wall-clock trigger hour, 0-23.
	Hour int
	// Minute is the wall-clock trigger minute, 0-59.
	Minute int
	// Tone selects the audio source.
	Tone Tone
	// ToneRef points at a stored audio file; required for custom and
	// self-recorded tones.
	ToneRef string
	// Conditions is the set of required unlock conditions. Never empty
	// after Normalize.
	Conditions []Condition
	// GeoTarget is the geofence center; present only when the user captured
	// a location for ConditionGeo.
	GeoTarget *GeoPoint
	// Enabled controls whether a wake event is kept registered.
	Enabled bool
	// CreatedAt is when the record was created.
	CreatedAt time.Time
}

var (
	// errHourOutOfRange is returned when the trigger hour is not 0-23.
	errHourOutOfRange = errors.New("hour must be between 0 and 23")
	// errMinuteOutOfRange is returned when the trigger minute is not 0-59.
	errMinuteOutOfRange = errors.New("minute must be between 0 and 59")
	// errToneRefRequired is returned when a tone kind needs a file reference.
	errToneRefRequired = errors.New("tone reference is required for custom and self-recorded tones")
)

// Clone returns a deep copy of the alarm to avoid leaking internal references.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a

	if a.GeoTarget != nil {
		target := *a.GeoTarget
		cloned.GeoTarget = &target
	}

	cloned.Conditions = append([]Condition(nil), a.Conditions...)

	return &cloned
}

// Requires reports whether the condition is part of the alarm's required set.
func (a *Alarm) Requires(c Condition) bool {
	for _, required := range a.Conditions {
		if required == c {
			return true
		}
	}

	return false
}

// GeoTargetMissing reports the permanently-unsatisfiable case: geo proof is
// required but no target was ever captured. Callers surface this to the user
// as "no target set"; it is never bypassed.
func (a *Alarm) GeoTargetMissing() bool {
	return a.Requires(ConditionGeo) && a.GeoTarget == nil
}

// Normalize applies the default-filling rules enforced at creation time:
// an empty or nil condition selection becomes {Face}, duplicates are dropped
// and an unused tone reference is cleared.
func (a *Alarm) Normalize() {
	seen := make(map[Condition]struct{}, len(a.Conditions))
	deduplicated := a.Conditions[:0]

	for _, c := range a.Conditions {
		if _, ok := seen[c]; ok {
			continue
		}

		seen[c] = struct{}{}
		deduplicated = append(deduplicated, c)
	}

	a.Conditions = deduplicated

	if len(a.Conditions) == 0 {
		a.Conditions = []Condition{ConditionFace}
	}

	if a.Tone == "" {
		a.Tone = ToneDefault
	}

	if a.Tone != ToneCustom && a.Tone != ToneSelfRecorded {
		a.ToneRef = ""
	}
}

// Validate checks field ranges and cross-field requirements.
// It does not normalize; call Normalize first.
func (a *Alarm) Validate() error {
	if a.Hour < 0 || a.Hour > 23 {
		return errHourOutOfRange
	}

	if a.Minute < 0 || a.Minute > 59 {
		return errMinuteOutOfRange
	}

	switch a.Tone {
	case ToneDefault, ToneShuffle:
	case ToneCustom, ToneSelfRecorded:
		if a.ToneRef == "" {
			return errToneRefRequired
		}
	default:
		return fmt.Errorf("unknown tone %q", a.Tone)
	}

	for _, c := range a.Conditions {
		switch c {
		case ConditionFace, ConditionWalk, ConditionGeo, ConditionUPI:
		default:
			return fmt.Errorf("unknown unlock condition %q", c)
		}
	}

	return nil
}

// Fallback synthesizes the safe-default alarm used when a wake payload cannot
// be resolved to a stored record. It rings with the bundled tone at the
// current wall-clock time and requires only a face confirmation.
func Fallback(now time.Time) *Alarm {
	return &Alarm{
		ID:         0,
		Label:      "Alarm",
		Hour:       now.Hour(),
		Minute:     now.Minute(),
		Tone:       ToneDefault,
		Conditions: []Condition{ConditionFace},
		Enabled:    true,
		CreatedAt:  now,
	}
}
