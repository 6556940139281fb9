// SPDX-License-Identifier: MIT
package analysis

// maxLoudCounter caps the counter so a long sustained sound cannot wind
// it up arbitrarily far and then take seconds of silence to release.
const maxLoudCounter = 64

// debouncer converts raw per-frame verdicts into a stable trigger state.
// It is a small hysteresis state machine over a counter: a true verdict
// increments, a false verdict decays by one rather than resetting, and
// the exposed state is counter >= frames. A single spurious loud frame
// can never flip the state on (for frames >= 2), and a single quiet
// dropout inside a sustained loud period does not immediately cancel it.
type debouncer struct {
	counter int // Current evidence level, >= 0.
	frames  int // Confirmations required for the trigger to be on.
}

// update feeds one raw verdict and returns the debounced state.
func (d *debouncer) update(raw bool) bool {
	if raw {
		if d.counter < maxLoudCounter {
			d.counter++
		}
	} else if d.counter > 0 {
		d.counter--
	}
	return d.counter >= d.frames
}

// triggered returns the debounced state without consuming a verdict.
func (d *debouncer) triggered() bool {
	return d.counter >= d.frames
}

// setFrames changes the confirmation requirement mid-session. The
// counter is deliberately left alone so accumulated evidence persists
// across sensitivity changes.
func (d *debouncer) setFrames(frames int) {
	if frames < minDebounceFrames {
		frames = minDebounceFrames
	}
	d.frames = frames
}
