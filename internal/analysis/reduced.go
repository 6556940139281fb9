// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"chirp/internal/config"
	applog "chirp/internal/log"
)

// ReducedDetector is the reduced-cost variant: a band-ratio-gated RMS
// threshold with the same debounce filter, skipping the centroid, onset
// and adaptive-floor machinery. It trades false-positive resistance for
// lower per-frame cost.
type ReducedDetector struct {
	spectral  *SpectralAnalyzer
	deb       debouncer
	th        thresholds
	blockSize int

	lastRMS       float64
	lastBandRatio float64
}

// NewReducedDetector constructs the reduced variant from a validated
// configuration.
func NewReducedDetector(cfg *config.Config) (*ReducedDetector, error) {
	windowType, err := ParseWindowFunc(cfg.Audio.Window)
	if err != nil {
		return nil, err
	}

	d := &cfg.Detector
	spectral, err := NewSpectralAnalyzer(cfg.Audio.BlockSize, cfg.Audio.SampleRate, d.FreqMin, d.FreqMax, windowType)
	if err != nil {
		return nil, err
	}
	if err := validateSensitivity(d.Sensitivity); err != nil {
		return nil, err
	}

	applog.Infof("Analysis: Initializing ReducedDetector (Block: %d, Rate: %.0f Hz, Band: %.0f-%.0f Hz)",
		cfg.Audio.BlockSize, cfg.Audio.SampleRate, d.FreqMin, d.FreqMax)

	r := &ReducedDetector{
		spectral:  spectral,
		th:        deriveThresholds(d.Sensitivity),
		blockSize: cfg.Audio.BlockSize,
	}
	r.deb.setFrames(r.th.debounceFrames)
	return r, nil
}

// Process classifies one frame with the reduced rule: enough energy
// overall and enough of it inside the target band.
func (r *ReducedDetector) Process(frame []float64) error {
	if len(frame) == 0 {
		r.lastRMS = 0
		r.lastBandRatio = 0
		r.deb.update(false)
		return nil
	}
	if len(frame) != r.blockSize {
		return fmt.Errorf("frame length %d does not match configured block size %d", len(frame), r.blockSize)
	}

	var energy float64
	for _, s := range frame {
		energy += s * s
	}
	rms := math.Sqrt(energy / float64(len(frame)))
	spectrum := r.spectral.Analyze(frame)

	r.lastRMS = rms
	r.lastBandRatio = spectrum.BandRatio

	raw := spectrum.BandRatio > r.th.bandRatio && rms > r.th.reducedRMS
	r.deb.update(raw)
	return nil
}

// Triggered returns the debounced trigger state.
func (r *ReducedDetector) Triggered() bool {
	return r.deb.triggered()
}

// SetSensitivity re-derives the thresholds without resetting the counter.
func (r *ReducedDetector) SetSensitivity(s float64) error {
	if err := validateSensitivity(s); err != nil {
		return err
	}
	r.th = deriveThresholds(s)
	r.deb.setFrames(r.th.debounceFrames)
	return nil
}

// Snapshot copies the reduced state. The reduced variant keeps no floor
// estimate or feature rings, so those fields are zero.
func (r *ReducedDetector) Snapshot() Snapshot {
	return Snapshot{
		IsLoud:      r.deb.triggered(),
		LoudCounter: r.deb.counter,
		RMS:         r.lastRMS,
		BandRatio:   r.lastBandRatio,
	}
}
