// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// Threshold mapping constants. The two-tier rule structure is the
// contract; these numbers are tunable starting points, not load-bearing.
const (
	// Band ratio: fraction of spectral energy required inside the target
	// band. Maps 0.45 (s=0) down to 0.20 (s=1).
	bandRatioBase = 0.45
	bandRatioSpan = 0.25

	// Onset: energy multiplier over the previous frame that counts as a
	// sharp attack. Maps 2.0 down to 1.5.
	onsetBase = 2.0
	onsetSpan = 0.5

	// Floor margin: how far above the adaptive noise floor the RMS must
	// sit for the corroboration path. Maps 2.0 down to 1.5.
	floorMarginBase = 2.0
	floorMarginSpan = 0.5

	// Debounce: consecutive confirmations required before triggering.
	// Maps 3 down to the floor of 1.
	debounceBase      = 3.0
	debounceSpan      = 2.0
	minDebounceFrames = 1

	// Reduced mode: absolute RMS threshold. Maps 0.05 down to 0.01.
	reducedRMSBase = 0.05
	reducedRMSSpan = 0.04
)

// thresholds are the derived trigger parameters. All of them are produced
// from the single sensitivity knob by deriveThresholds.
type thresholds struct {
	bandRatio      float64 // Minimum in-band energy fraction, both tiers.
	onset          float64 // Tier 1 onset strength.
	floorMargin    float64 // Tier 2 multiplier over the noise floor.
	reducedRMS     float64 // Reduced mode absolute RMS gate.
	debounceFrames int     // Confirmations before the trigger flips on.
}

// deriveThresholds maps sensitivity s in [0,1] to the underlying
// thresholds. Higher sensitivity monotonically lowers every threshold
// (easier to trigger); debounceFrames never drops below its floor.
func deriveThresholds(s float64) thresholds {
	return thresholds{
		bandRatio:      bandRatioBase - bandRatioSpan*s,
		onset:          onsetBase - onsetSpan*s,
		floorMargin:    floorMarginBase - floorMarginSpan*s,
		reducedRMS:     reducedRMSBase - reducedRMSSpan*s,
		debounceFrames: max(minDebounceFrames, int(math.Round(debounceBase-debounceSpan*s))),
	}
}

// validateSensitivity rejects out-of-range values rather than clamping,
// since silent clamping would hide a caller bug.
func validateSensitivity(s float64) error {
	if s < 0 || s > 1 || math.IsNaN(s) {
		return fmt.Errorf("sensitivity must be in [0, 1], got %g", s)
	}
	return nil
}

// features are the per-frame inputs to the decision rule, produced by the
// spectral analyzer, energy tracker and floor estimator.
type features struct {
	rms       float64
	floor     float64
	bandRatio float64
	centroid  float64
	onset     float64
}

// decide applies the tiered rule and returns the raw per-frame verdict.
// Both tiers are gated on the band ratio so broadband bass (traffic,
// rumble) cannot trigger no matter how loud or sudden it is.
//
// Tier 1: sharp onset inside the target band.
// Tier 2: RMS clear of the adaptive floor, with the centroid inside the
// acceptance window, corroborating a sustained intentional sound.
func decide(f features, th thresholds, centroidMin, centroidMax float64) bool {
	if f.bandRatio <= th.bandRatio {
		return false
	}
	if f.onset > th.onset {
		return true
	}
	return f.rms > f.floor*th.floorMargin &&
		f.centroid >= centroidMin && f.centroid <= centroidMax
}
