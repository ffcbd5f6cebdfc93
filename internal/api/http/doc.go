// Package http exposes the daemon's loopback REST API: alarm CRUD, the tone
// pool, live ring-session actions, and the read-only settings view. It is a
// thin presentation layer over the scheduling core; all policy decisions
// (unlock gate, snooze supersession, penalty notice) live below it.
package http
