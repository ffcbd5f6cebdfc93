// Package alarm contains core domain types for the alarm business logic.
//
// It defines the persisted Alarm record, the per-session Signals snapshot,
// the pure unlock-gate policy and the haversine distance helper used for
// geofence confirmation. Everything here is side-effect free; scheduling,
// playback and persistence live in their own packages.
package alarm
