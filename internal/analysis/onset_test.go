// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"chirp/pkg/synth"
)

const testSampleRate = 44100.0
const testBlockSize = 2048

func TestTrackFirstFrameNeutral(t *testing.T) {
	var tracker EnergyTracker
	_, onset := tracker.Track(synth.Sine(testBlockSize, testSampleRate, 1000, 0.5))
	if onset != neutralOnset {
		t.Errorf("first frame onset = %g, want neutral %g", onset, neutralOnset)
	}
}

func TestTrackRMS(t *testing.T) {
	var tracker EnergyTracker

	// RMS of a full-cycle sine at amplitude a is a/sqrt(2).
	rms, _ := tracker.Track(synth.Sine(testBlockSize, testSampleRate, 1000, 0.8))
	want := 0.8 / math.Sqrt2
	if math.Abs(rms-want) > 0.01 {
		t.Errorf("sine RMS = %.4f, want ~%.4f", rms, want)
	}

	rms, _ = tracker.Track(synth.Silence(testBlockSize))
	if rms != 0 {
		t.Errorf("silent frame RMS = %g, want 0", rms)
	}
}

func TestTrackOnsetRatio(t *testing.T) {
	var tracker EnergyTracker

	quiet := synth.Sine(testBlockSize, testSampleRate, 1000, 0.1)
	loud := synth.Sine(testBlockSize, testSampleRate, 1000, 0.3)

	tracker.Track(quiet)
	_, onset := tracker.Track(loud)

	// 3x the amplitude is 9x the energy.
	if math.Abs(onset-9.0) > 0.2 {
		t.Errorf("onset strength = %.3f, want ~9.0", onset)
	}
}

func TestTrackDivisionSafety(t *testing.T) {
	var tracker EnergyTracker

	// All-zero frame after all-zero frame: onset must be defined, no NaN.
	tracker.Track(synth.Silence(testBlockSize))
	rms, onset := tracker.Track(synth.Silence(testBlockSize))

	if rms != 0 {
		t.Errorf("zero frame RMS = %g, want 0", rms)
	}
	if math.IsNaN(onset) || math.IsInf(onset, 0) {
		t.Errorf("onset after silence is not finite: %g", onset)
	}
}

func TestTrackOnsetFromSilence(t *testing.T) {
	var tracker EnergyTracker

	tracker.Track(synth.Silence(testBlockSize))
	_, onset := tracker.Track(synth.Sine(testBlockSize, testSampleRate, 1000, 0.5))

	// Sound after silence is the strongest possible onset.
	if onset < 100 {
		t.Errorf("onset from silence = %g, expected a very large ratio", onset)
	}
}

func TestTrackReset(t *testing.T) {
	var tracker EnergyTracker

	tracker.Track(synth.Sine(testBlockSize, testSampleRate, 1000, 0.01))
	tracker.Reset()

	// After a reset the next frame has no comparison baseline.
	_, onset := tracker.Track(synth.Sine(testBlockSize, testSampleRate, 1000, 0.9))
	if onset != neutralOnset {
		t.Errorf("onset after Reset = %g, want neutral %g", onset, neutralOnset)
	}
}

func BenchmarkTrack(b *testing.B) {
	var tracker EnergyTracker
	frame := synth.Sine(testBlockSize, testSampleRate, 1000, 0.5)

	b.ReportAllocs()
	for bi := 0; bi < b.N; bi++ {
		tracker.Track(frame)
	}
}
