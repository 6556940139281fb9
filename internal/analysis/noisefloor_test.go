// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func TestFloorFallbackWithSparseHistory(t *testing.T) {
	e := NewFloorEstimator(50)

	if e.Floor() != 0 {
		t.Errorf("cold estimator floor = %g, want 0", e.Floor())
	}

	// A single sample is its own floor.
	if got := e.Update(0.02); got != 0.02 {
		t.Errorf("floor with one sample = %g, want the sole sample 0.02", got)
	}
}

func TestFloorConvergesOnConstantNoise(t *testing.T) {
	e := NewFloorEstimator(50)

	const level = 0.03
	var floor float64
	for ri := 0; ri < 50; ri++ {
		floor = e.Update(level)
	}

	// With a constant-level history, any percentile is the level itself.
	if math.Abs(floor-level) > 1e-9 {
		t.Errorf("floor after 50 constant frames = %g, want %g", floor, level)
	}
}

func TestFloorTracksQuietGaps(t *testing.T) {
	e := NewFloorEstimator(20)

	// Mostly quiet history with occasional loud frames: the low percentile
	// must stay near the quiet level, not the loud spikes.
	var floor float64
	for i := 0; i < 20; i++ {
		level := 0.01
		if i%5 == 0 {
			level = 0.5
		}
		floor = e.Update(level)
	}

	if floor > 0.02 {
		t.Errorf("floor %g pulled up by loud spikes, want near the quiet level 0.01", floor)
	}
}

func TestFloorRisesInSustainedLoudRoom(t *testing.T) {
	e := NewFloorEstimator(20)

	for ri := 0; ri < 20; ri++ {
		e.Update(0.005)
	}
	quietFloor := e.Floor()

	// A sustained loud environment must push the old quiet history out of
	// the window and raise the floor with it.
	for ri := 0; ri < 20; ri++ {
		e.Update(0.1)
	}
	loudFloor := e.Floor()

	if loudFloor <= quietFloor {
		t.Errorf("floor did not adapt upward: quiet %g, loud %g", quietFloor, loudFloor)
	}
	if math.Abs(loudFloor-0.1) > 0.01 {
		t.Errorf("floor after full loud window = %g, want ~0.1", loudFloor)
	}
}

func TestFloorSilentHistory(t *testing.T) {
	e := NewFloorEstimator(30)

	var floor float64
	for ri := 0; ri < 60; ri++ {
		floor = e.Update(0)
	}
	if floor != 0 {
		t.Errorf("all-silent history floor = %g, want 0", floor)
	}
}

func TestFloorWindowEviction(t *testing.T) {
	e := NewFloorEstimator(10)

	// Fill with a high level, then overwrite the whole window with a low
	// one. Nothing of the old level may survive.
	for ri := 0; ri < 10; ri++ {
		e.Update(1.0)
	}
	var floor float64
	for ri := 0; ri < 10; ri++ {
		floor = e.Update(0.001)
	}
	if floor != 0.001 {
		t.Errorf("evicted history still influences floor: got %g, want 0.001", floor)
	}
}

func BenchmarkFloorUpdate(b *testing.B) {
	e := NewFloorEstimator(50)
	b.ReportAllocs()
	for bi := 0; bi < b.N; bi++ {
		e.Update(0.02)
	}
}
