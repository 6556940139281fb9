// SPDX-License-Identifier: MIT
/*
Package analysis implements the real-time decision core that turns a
stream of audio frames into a debounced boolean trigger: FFT band-energy
and centroid analysis, energy onset tracking, an adaptive noise floor,
a tiered decision rule, and a hysteresis filter.

Frames are processed strictly sequentially by a single producer (the
capture callback). Detector state is never safe to read concurrently;
use Snapshot to copy state out for diagnostics.
*/
package analysis

// Detector is the contract between the decision core and its callers.
// Two variants implement it: the full pipeline and a reduced-cost one
// (see config.ModeFull / config.ModeReduced).
type Detector interface {
	// Process feeds one frame of mono samples in [-1, 1] and updates all
	// internal state. Implementations must be efficient as this is called
	// from the real-time audio callback. Empty frames are treated as
	// silence; a frame of any other unexpected length is a programmer
	// error and returns a descriptive error.
	Process(frame []float64) error

	// Triggered returns the current debounced trigger state.
	Triggered() bool

	// SetSensitivity re-derives the decision thresholds from a single
	// knob in [0, 1] without resetting history or counters. Values
	// outside the range are rejected, not clamped.
	SetSensitivity(s float64) error

	// Snapshot returns a read-only copy of the detector state for
	// diagnostics and tuning UIs.
	Snapshot() Snapshot
}

// Snapshot is a copied view of detector state, safe to hand to another
// goroutine.
type Snapshot struct {
	IsLoud          bool
	LoudCounter     int
	NoiseFloor      float64
	RMS             float64
	BandRatio       float64
	RecentCentroids []float64 // oldest first
	RecentOnsets    []float64 // oldest first
}

// Compile-time checks for interface implementations.
var _ Detector = (*TriggerDetector)(nil)
var _ Detector = (*ReducedDetector)(nil)
