package alarm

// Signals is the snapshot of unlock-condition measurements accumulated by a
// ring session. Face confirmation is one-shot and step count only grows, so
// a satisfied gate can never regress from a signal update alone.
type Signals struct {
	// FaceConfirmed is set once the biometric check succeeds.
	FaceConfirmed bool
	// StepCount is the accumulated step total, monotonically non-decreasing.
	StepCount int
	// GeoConfirmed is set once a user-triggered location re-check lands
	// inside the geofence.
	GeoConfirmed bool
}

// Merge folds an update into the snapshot while enforcing monotonicity:
// booleans never revert to false and the step count never shrinks.
func (s *Signals) Merge(update Signals) {
	if update.FaceConfirmed {
		s.FaceConfirmed = true
	}

	if update.StepCount > s.StepCount {
		s.StepCount = update.StepCount
	}

	if update.GeoConfirmed {
		s.GeoConfirmed = true
	}
}

// GateSatisfied evaluates the unlock-gate policy: the logical AND over the
// required conditions, excluding UPI which never gates dismissal.
//
// If the required set is empty after excluding UPI, the gate defaults to
// satisfied. That state is unreachable for normalized alarms (an empty
// selection defaults to {Face}) but the policy is total anyway.
func GateSatisfied(required []Condition, signals Signals) bool {
	for _, c := range required {
		switch c {
		case ConditionFace:
			if !signals.FaceConfirmed {
				return false
			}
		case ConditionWalk:
			if signals.StepCount < WalkStepThreshold {
				return false
			}
		case ConditionGeo:
			if !signals.GeoConfirmed {
				return false
			}
		case ConditionUPI:
			// Never part of the conjunction.
		}
	}

	return true
}
