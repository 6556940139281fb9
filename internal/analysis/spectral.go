// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"chirp/pkg/bitint"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	Hann
	Hamming
	Nuttall
)

// Pre-allocated buffers for FFT calculations. Owned by a single
// SpectralAnalyzer and reused every frame, so the hot path allocates
// nothing.
type spectralWorkspace struct {
	input     []float64    // Windowed input signal.
	fftOutput []complex128 // FFT complex results.
	magnitude []float64    // Calculated magnitudes.
	window    []float64    // Pre-calculated window coefficients.
}

// Spectrum holds the per-frame features derived from one FFT pass.
type Spectrum struct {
	// BandRatio is the fraction of total spectral energy inside the
	// configured target band. Zero for a silent frame.
	BandRatio float64
	// Centroid is the magnitude-weighted mean frequency in Hz.
	// Zero for a silent frame.
	Centroid float64
}

// SpectralAnalyzer converts one time-domain frame into the band-energy
// ratio and spectral centroid the decision engine consumes. It is a pure
// function of the frame: no state survives between calls beyond the
// reused workspace buffers.
type SpectralAnalyzer struct {
	fft        *fourier.FFT
	size       int
	sampleRate float64
	binHz      float64 // Frequency resolution: sampleRate / size.
	bandLow    int     // First bin inside [freqMin, freqMax].
	bandHigh   int     // Last bin inside [freqMin, freqMax].
	workspace  spectralWorkspace
}

// NewSpectralAnalyzer builds an analyzer for frames of exactly size
// samples. The target band [freqMin, freqMax] is resolved to bin indices
// once, here, rather than per frame.
func NewSpectralAnalyzer(size int, sampleRate, freqMin, freqMax float64, windowType WindowFunc) (*SpectralAnalyzer, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("analysis block size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if freqMin <= 0 || freqMin >= freqMax {
		return nil, fmt.Errorf("invalid frequency band [%.0f, %.0f]", freqMin, freqMax)
	}

	windowCoeffs := make([]float64, size)
	applyWindow(windowCoeffs, windowType)

	// FFT output size for real input is N/2 + 1 bins.
	bins := size/2 + 1
	binHz := sampleRate / float64(size)

	bandLow := bins // Sentinel: empty band if nothing falls inside.
	bandHigh := -1
	for i := 0; i < bins; i++ {
		freq := float64(i) * binHz
		if freq >= freqMin && freq <= freqMax {
			if i < bandLow {
				bandLow = i
			}
			bandHigh = i
		}
	}
	if bandHigh < bandLow {
		return nil, fmt.Errorf("frequency band [%.0f, %.0f] contains no FFT bins at resolution %.1f Hz", freqMin, freqMax, binHz)
	}

	return &SpectralAnalyzer{
		fft:        fourier.NewFFT(size),
		size:       size,
		sampleRate: sampleRate,
		binHz:      binHz,
		bandLow:    bandLow,
		bandHigh:   bandHigh,
		workspace: spectralWorkspace{
			input:     make([]float64, size),
			fftOutput: make([]complex128, bins),
			magnitude: make([]float64, bins),
			window:    windowCoeffs,
		},
	}, nil
}

// Analyze windows the frame, performs the FFT, and reduces the magnitude
// spectrum to band ratio and centroid. The frame length must equal the
// configured size; callers validate before reaching here.
func (a *SpectralAnalyzer) Analyze(frame []float64) Spectrum {
	for i := 0; i < a.size; i++ {
		a.workspace.input[i] = frame[i] * a.workspace.window[i]
	}

	a.fft.Coefficients(a.workspace.fftOutput, a.workspace.input)

	for i, c := range a.workspace.fftOutput {
		a.workspace.magnitude[i] = cmplx.Abs(c)
	}

	var bandEnergy, totalEnergy, magSum, weighted float64
	for i, mag := range a.workspace.magnitude {
		energy := mag * mag
		totalEnergy += energy
		if i >= a.bandLow && i <= a.bandHigh {
			bandEnergy += energy
		}
		magSum += mag
		weighted += float64(i) * a.binHz * mag
	}

	var s Spectrum
	// Epsilon guards: a silent frame yields defined zero features rather
	// than NaN.
	if totalEnergy > energyEpsilon {
		s.BandRatio = bandEnergy / totalEnergy
	}
	if magSum > energyEpsilon {
		s.Centroid = weighted / magSum
	}
	return s
}

// FrequencyForBin returns the center frequency (Hz) for an FFT bin index.
func (a *SpectralAnalyzer) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex > a.size/2 {
		return 0.0
	}
	return float64(binIndex) * a.binHz
}

// Size returns the configured frame size in samples.
func (a *SpectralAnalyzer) Size() int {
	return a.size
}

// ParseWindowFunc converts a string name (case-insensitive) to a
// WindowFunc enum, returning Hann and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window function.
// Unknown types fall back to Hann.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// Window funcs multiply in place, so start from unity gain.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}
