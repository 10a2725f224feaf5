// Package engine implements the playback core: the clip state machine, the
// sequence scheduler, the timeline stepper, effect composition, and the
// layered config resolver.
//
// Progress advances cooperatively: each playback runs on its own goroutine
// but suspends at explicit points (clock sleeps, pause gates, roadblocks),
// and a target is only ever mutated by the clip holding an active phase for
// it. External callers reach this package through the root webchalk facade.
package engine
