// SPDX-License-Identifier: MIT
package analysis

import "math"

// energyEpsilon floors every denominator in the pipeline so degenerate
// (all-zero) input yields defined values instead of NaN or Inf.
const energyEpsilon = 1e-10

// neutralOnset is the onset strength reported for the first frame, when
// there is no previous frame to compare against.
const neutralOnset = 1.0

// EnergyTracker computes per-frame RMS and onset strength, keeping only
// the previous frame's energy. An onset is a sudden energy increase
// relative to the immediately preceding frame: intentional sounds have
// sharp attacks, ambient noise rises gradually.
type EnergyTracker struct {
	prevEnergy float64
	hasPrev    bool
}

// Track consumes one frame and returns its RMS amplitude and onset
// strength (current energy over previous energy). The first frame has no
// defined onset and reports the neutral value 1.0.
func (t *EnergyTracker) Track(frame []float64) (rms, onset float64) {
	var energy float64
	for _, s := range frame {
		energy += s * s
	}
	if n := len(frame); n > 0 {
		rms = math.Sqrt(energy / float64(n))
	}

	if t.hasPrev {
		onset = energy / math.Max(t.prevEnergy, energyEpsilon)
	} else {
		onset = neutralOnset
	}

	t.prevEnergy = energy
	t.hasPrev = true
	return rms, onset
}

// Reset forgets the previous frame, as after a gap in the input stream.
// The next frame then reports a neutral onset instead of comparing
// against stale energy.
func (t *EnergyTracker) Reset() {
	t.prevEnergy = 0
	t.hasPrev = false
}
