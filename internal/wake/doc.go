// Package wake implements the exact wake-event subsystem the scheduler
// registers alarms with.
//
// Registrations are keyed by alarm id: re-registering an id replaces the
// previous entry, which is what lets a one-off snooze trigger supersede the
// daily trigger for the same alarm. Daily registrations re-arm themselves
// 24 hours after each firing so a single registration recurs by time-of-day
// without re-computation. Fired events are handed to the consumer on the
// Deliveries channel as opaque payloads.
package wake
