// Package session owns alarm-ringing episodes.
//
// The Router correlates an inbound wake payload back to its persisted alarm,
// synthesizing a safe fallback when the id is stale or malformed. A Session
// is the state machine for one episode (Loading, Ringing, Snoozed,
// Dismissed): it drives tone playback, accumulates unlock signals under a
// single-writer mutex and evaluates the unlock gate on dismiss attempts.
// The Manager consumes wake deliveries and guarantees at most one live
// session per alarm id.
package session
