// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"chirp/internal/config"
	applog "chirp/internal/log"
)

// History ring capacities for the debug snapshot. Sized to cover roughly
// the last half second of frames at the default block size.
const (
	centroidHistoryLen = 10
	onsetHistoryLen    = 8
)

// history is a tiny fixed-capacity ring of recent scalar values, kept
// only for diagnostics.
type history struct {
	buf    []float64
	next   int
	filled int
}

func newHistory(capacity int) history {
	return history{buf: make([]float64, capacity)}
}

func (h *history) push(v float64) {
	h.buf[h.next] = v
	h.next = (h.next + 1) % len(h.buf)
	if h.filled < len(h.buf) {
		h.filled++
	}
}

// values returns a copy ordered oldest first.
func (h *history) values() []float64 {
	out := make([]float64, h.filled)
	start := h.next - h.filled
	for i := range out {
		out[i] = h.buf[(start+i+len(h.buf))%len(h.buf)]
	}
	return out
}

// New builds the detector variant selected by the configuration.
func New(cfg *config.Config) (Detector, error) {
	switch cfg.Detector.Mode {
	case config.ModeReduced:
		return NewReducedDetector(cfg)
	default:
		return NewTriggerDetector(cfg)
	}
}

// TriggerDetector is the full decision pipeline: spectral band ratio and
// centroid, onset tracking, adaptive noise floor, tiered decision rule
// and debounce filter. One instance per audio session; frames must be
// fed strictly sequentially.
type TriggerDetector struct {
	spectral *SpectralAnalyzer
	energy   EnergyTracker
	floor    *FloorEstimator
	deb      debouncer

	th          thresholds
	centroidMin float64
	centroidMax float64
	blockSize   int

	// Last-frame values and small rings, for Snapshot only.
	lastRMS       float64
	lastBandRatio float64
	centroids     history
	onsets        history
}

// NewTriggerDetector constructs the full variant from a validated
// configuration.
func NewTriggerDetector(cfg *config.Config) (*TriggerDetector, error) {
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

	applog.Infof("Analysis: Initializing TriggerDetector (Block: %d, Rate: %.0f Hz, Band: %.0f-%.0f Hz, Sensitivity: %.2f)",
		cfg.Audio.BlockSize, cfg.Audio.SampleRate, d.FreqMin, d.FreqMax, d.Sensitivity)

	t := &TriggerDetector{
		spectral:    spectral,
		floor:       NewFloorEstimator(d.FloorWindow),
		th:          deriveThresholds(d.Sensitivity),
		centroidMin: d.CentroidMin,
		centroidMax: d.CentroidMax,
		blockSize:   cfg.Audio.BlockSize,
		centroids:   newHistory(centroidHistoryLen),
		onsets:      newHistory(onsetHistoryLen),
	}
	t.deb.setFrames(t.th.debounceFrames)
	return t, nil
}

// Process runs the whole pipeline for one frame: energy and onset, floor
// update, spectral features, tiered decision, debounce. An empty frame is
// treated as silence so a gap in the capture stream decays the trigger
// instead of crashing or freezing it.
func (t *TriggerDetector) Process(frame []float64) error {
	if len(frame) == 0 {
		t.processSilence()
		return nil
	}
	if len(frame) != t.blockSize {
		return fmt.Errorf("frame length %d does not match configured block size %d", len(frame), t.blockSize)
	}

	rms, onset := t.energy.Track(frame)
	floor := t.floor.Update(rms)
	spectrum := t.spectral.Analyze(frame)

	t.lastRMS = rms
	t.lastBandRatio = spectrum.BandRatio
	t.centroids.push(spectrum.Centroid)
	t.onsets.push(onset)

	raw := decide(features{
		rms:       rms,
		floor:     floor,
		bandRatio: spectrum.BandRatio,
		centroid:  spectrum.Centroid,
		onset:     onset,
	}, t.th, t.centroidMin, t.centroidMax)

	t.deb.update(raw)
	return nil
}

// processSilence advances all stateful components as if a silent frame
// had arrived, without paying for an FFT.
func (t *TriggerDetector) processSilence() {
	t.energy.Reset()
	t.floor.Update(0)
	t.lastRMS = 0
	t.lastBandRatio = 0
	t.centroids.push(0)
	t.onsets.push(neutralOnset)
	t.deb.update(false)
}

// Triggered returns the debounced trigger state.
func (t *TriggerDetector) Triggered() bool {
	return t.deb.triggered()
}

// SetSensitivity re-derives all thresholds from the knob without touching
// the floor history, rings, or the debounce counter.
func (t *TriggerDetector) SetSensitivity(s float64) error {
	if err := validateSensitivity(s); err != nil {
		return err
	}
	t.th = deriveThresholds(s)
	t.deb.setFrames(t.th.debounceFrames)
	applog.Debugf("Analysis: Sensitivity set to %.2f (band %.2f, onset %.2f, margin %.2f, debounce %d)",
		s, t.th.bandRatio, t.th.onset, t.th.floorMargin, t.th.debounceFrames)
	return nil
}

// Snapshot copies the current state out for diagnostics. The copy is the
// only sanctioned way to read detector state from another goroutine.
func (t *TriggerDetector) Snapshot() Snapshot {
	return Snapshot{
		IsLoud:          t.deb.triggered(),
		LoudCounter:     t.deb.counter,
		NoiseFloor:      t.floor.Floor(),
		RMS:             t.lastRMS,
		BandRatio:       t.lastBandRatio,
		RecentCentroids: t.centroids.values(),
		RecentOnsets:    t.onsets.values(),
	}
}
