// Package scheduler computes exact trigger instants for alarms and keeps the
// wake subsystem's registrations in step with the alarm store.
//
// The one rule that matters: registration failures always propagate to the
// caller. Every other component degrades gracefully, but an alarm that
// silently never fires is the system's worst failure mode.
package scheduler
