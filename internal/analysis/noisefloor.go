// SPDX-License-Identifier: MIT
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// floorPercentile is the percentile of recent RMS history used as the
// ambient noise estimate. A low percentile tracks the quiet gaps between
// sounds rather than the sounds themselves.
const floorPercentile = 0.10

// FloorEstimator maintains a rolling low-percentile estimate of ambient
// RMS energy over a fixed-capacity window. In a quiet room the floor sits
// near zero; in a sustained loud room it rises, raising the effective
// trigger bar. Memory and per-frame cost are bounded by the window size
// regardless of session length.
type FloorEstimator struct {
	ring    []float64 // Fixed-capacity RMS history.
	next    int       // Next write position.
	filled  int       // Number of valid entries, up to len(ring).
	scratch []float64 // Reused sort buffer for the percentile.
	floor   float64   // Last computed estimate.
}

// NewFloorEstimator creates an estimator over the last window RMS values.
// The window must be at least 2; config validation enforces this.
func NewFloorEstimator(window int) *FloorEstimator {
	return &FloorEstimator{
		ring:    make([]float64, window),
		scratch: make([]float64, 0, window),
	}
}

// Update appends the frame's RMS, evicting the oldest entry when the
// window is full, and returns the recomputed noise floor. With fewer than
// two samples the floor falls back to zero or the sole sample.
func (e *FloorEstimator) Update(rms float64) float64 {
	e.ring[e.next] = rms
	e.next = (e.next + 1) % len(e.ring)
	if e.filled < len(e.ring) {
		e.filled++
	}

	switch e.filled {
	case 0:
		e.floor = 0
	case 1:
		e.floor = rms
	default:
		e.scratch = e.scratch[:e.filled]
		copy(e.scratch, e.ring[:e.filled])
		sort.Float64s(e.scratch)
		e.floor = stat.Quantile(floorPercentile, stat.Empirical, e.scratch, nil)
	}
	return e.floor
}

// Floor returns the last computed noise floor estimate.
func (e *FloorEstimator) Floor() float64 {
	return e.floor
}
