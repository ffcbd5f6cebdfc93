// Package audio treats playback as an opaque capability: a Player starts a
// looping audio source and guarantees it can be stopped. The exec player
// shells out to a configurable system command; the nop player keeps tests
// and headless setups silent.
package audio
