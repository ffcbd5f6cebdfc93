// Package alarms implements persistence for alarm records and the tone pool.
//
// The SQLite store keeps a versioned schema with explicit columns so that
// default filling (for example a missing enabled flag) happens here, at the
// storage boundary, and nowhere else. Callers always read-modify-write whole
// records; there are no partial field updates.
package alarms
