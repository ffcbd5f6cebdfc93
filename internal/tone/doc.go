// Package tone decides which audio source an alarm rings with and maintains
// the pool of user-registered sources available to the shuffle tone.
//
// Resolution never fails: every missing file, empty pool or unknown tone
// kind falls back to the bundled asset, because a ringing alarm with no
// audible signal must never occur. The pool watches the tone directory and
// prunes entries whose backing file disappears.
package tone
