// Package daemon wires the alarm core together: configuration, storage,
// the wake subsystem, the scheduler, tone resolution, audio playback, the
// session manager, and the loopback HTTP API. It is the composition root
// behind the lifesync-daemon binary.
package daemon
