// SPDX-License-Identifier: MIT
//
// Package synth generates deterministic test signals for the analysis
// pipeline. Frames are mono float64 samples in [-1, 1], matching the
// format the capture engine hands to the detector.
package synth

import (
	"math"
	"math/rand"
)

// Silence returns a frame of n zero samples.
func Silence(n int) []float64 {
	return make([]float64, n)
}

// Sine returns an n-sample sine wave at the given frequency and amplitude.
func Sine(n int, sampleRate, frequency, amplitude float64) []float64 {
	frame := make([]float64, n)
	for i := range frame {
		t := float64(i) / sampleRate
		frame[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}
	return frame
}

// Harmonics returns an n-sample signal built from a fundamental and two
// harmonics, roughly the spectral shape of a voiced sound.
func Harmonics(n int, sampleRate, fundamental, amplitude float64) []float64 {
	frame := make([]float64, n)
	for i := range frame {
		t := float64(i) / sampleRate
		s := math.Sin(2*math.Pi*fundamental*t)*0.5 +
			math.Sin(2*math.Pi*2*fundamental*t)*0.3 +
			math.Sin(2*math.Pi*3*fundamental*t)*0.2
		frame[i] = amplitude * s
	}
	return frame
}

// Noise returns n samples of uniform white noise at the given amplitude,
// seeded for reproducibility.
func Noise(n int, amplitude float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	frame := make([]float64, n)
	for i := range frame {
		frame[i] = amplitude * (2*rng.Float64() - 1)
	}
	return frame
}

// Mix sums any number of equal-length frames sample by sample.
// Panics on length mismatch since that is always a test bug.
func Mix(frames ...[]float64) []float64 {
	if len(frames) == 0 {
		return nil
	}
	out := make([]float64, len(frames[0]))
	for _, f := range frames {
		if len(f) != len(out) {
			panic("synth: Mix requires equal-length frames")
		}
		for i, s := range f {
			out[i] += s
		}
	}
	return out
}

// RMS returns the root-mean-square amplitude of a frame. Test helper for
// asserting energy relationships between generated signals.
func RMS(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}
