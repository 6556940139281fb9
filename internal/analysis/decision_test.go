// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"testing"
)

func TestDeriveThresholdsMonotonic(t *testing.T) {
	// For any s1 < s2, every threshold at s2 must be <= its value at s1:
	// higher sensitivity is always easier to trigger.
	grid := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

	for i := 0; i < len(grid)-1; i++ {
		lo, hi := deriveThresholds(grid[i]), deriveThresholds(grid[i+1])
		name := fmt.Sprintf("s=%.1f vs s=%.1f", grid[i], grid[i+1])

		if hi.bandRatio > lo.bandRatio {
			t.Errorf("%s: band ratio threshold rose with sensitivity: %.3f > %.3f", name, hi.bandRatio, lo.bandRatio)
		}
		if hi.onset > lo.onset {
			t.Errorf("%s: onset threshold rose with sensitivity: %.3f > %.3f", name, hi.onset, lo.onset)
		}
		if hi.floorMargin > lo.floorMargin {
			t.Errorf("%s: floor margin rose with sensitivity: %.3f > %.3f", name, hi.floorMargin, lo.floorMargin)
		}
		if hi.reducedRMS > lo.reducedRMS {
			t.Errorf("%s: reduced RMS threshold rose with sensitivity: %.4f > %.4f", name, hi.reducedRMS, lo.reducedRMS)
		}
		if hi.debounceFrames > lo.debounceFrames {
			t.Errorf("%s: debounce frames rose with sensitivity: %d > %d", name, hi.debounceFrames, lo.debounceFrames)
		}
	}
}

func TestDeriveThresholdsDebounceFloor(t *testing.T) {
	for _, s := range []float64{0, 0.5, 0.9, 1.0} {
		th := deriveThresholds(s)
		if th.debounceFrames < minDebounceFrames {
			t.Errorf("s=%.1f: debounce frames %d below floor %d", s, th.debounceFrames, minDebounceFrames)
		}
	}
}

func TestValidateSensitivity(t *testing.T) {
	for _, s := range []float64{0, 0.5, 1} {
		if err := validateSensitivity(s); err != nil {
			t.Errorf("sensitivity %g should be valid, got: %v", s, err)
		}
	}
	for _, s := range []float64{-0.01, 1.01, 5} {
		if err := validateSensitivity(s); err == nil {
			t.Errorf("sensitivity %g should be rejected", s)
		}
	}
}

func TestDecideTiers(t *testing.T) {
	th := deriveThresholds(0.5)
	const centroidMin, centroidMax = 800.0, 5000.0

	tests := []struct {
		name string
		f    features
		want bool
	}{
		{
			name: "tier 1: sharp in-band onset triggers regardless of centroid",
			f:    features{rms: 0.2, floor: 0.1, bandRatio: 0.40, centroid: 7000, onset: 3.0},
			want: true,
		},
		{
			name: "band gate: strong onset outside the band never triggers",
			f:    features{rms: 0.5, floor: 0.001, bandRatio: 0.05, centroid: 120, onset: 10.0},
			want: false,
		},
		{
			name: "tier 2: loud, in-band, bright frame corroborates",
			f:    features{rms: 0.1, floor: 0.01, bandRatio: 0.5, centroid: 2000, onset: 1.0},
			want: true,
		},
		{
			name: "tier 2: centroid above window rejects",
			f:    features{rms: 0.1, floor: 0.01, bandRatio: 0.5, centroid: 6000, onset: 1.0},
			want: false,
		},
		{
			name: "tier 2: centroid below window rejects",
			f:    features{rms: 0.1, floor: 0.01, bandRatio: 0.5, centroid: 500, onset: 1.0},
			want: false,
		},
		{
			name: "tier 2: RMS inside the floor margin rejects",
			f:    features{rms: 0.1, floor: 0.08, bandRatio: 0.5, centroid: 2000, onset: 1.0},
			want: false,
		},
		{
			name: "silence: all-zero features reject",
			f:    features{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decide(tt.f, th, centroidMin, centroidMax)
			if got != tt.want {
				t.Errorf("decide(%+v) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}

func TestDecideOnsetShortCircuit(t *testing.T) {
	// A frame with 3x the previous frame's energy and 40% of its energy in
	// the target band must pass tier 1 at default and higher sensitivities,
	// whatever the centroid says.
	for _, s := range []float64{0.5, 0.6, 0.8, 1.0} {
		th := deriveThresholds(s)
		f := features{rms: 0.2, floor: 0.05, bandRatio: 0.40, centroid: 20000, onset: 3.0}
		if !decide(f, th, 800, 5000) {
			t.Errorf("s=%.1f: onset short-circuit did not fire for onset=3.0, bandRatio=0.40", s)
		}
	}
}

func BenchmarkDecide(b *testing.B) {
	th := deriveThresholds(0.5)
	f := features{rms: 0.1, floor: 0.01, bandRatio: 0.5, centroid: 2000, onset: 1.2}

	b.ReportAllocs()
	for bi := 0; bi < b.N; bi++ {
		decide(f, th, 800, 5000)
	}
}
