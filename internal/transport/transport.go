// SPDX-License-Identifier: MIT
//
// Package transport defines how trigger state and debug snapshots leave
// the engine: a generic Send/Close interface with WebSocket and logging
// implementations, plus a binary UDP publisher in the udp subpackage.
package transport

// Transport is a generic interface for publishing events and snapshots.
// Implementations must be thread-safe and must never block the caller:
// Send is invoked from the real-time audio callback.
type Transport interface {
	Send(data any) error
	Close() error
}

// FlapEvent is emitted once per rising edge of the debounced trigger,
// one event per flap.
type FlapEvent struct {
	Type  string `json:"type"`  // Always "flap".
	Count uint32 `json:"count"` // Total flaps this session.
}

// StateEvent is a periodic dump of detector state for tuning UIs.
type StateEvent struct {
	Type        string    `json:"type"` // Always "state".
	Triggered   bool      `json:"triggered"`
	LoudCounter int       `json:"loud_counter"`
	NoiseFloor  float64   `json:"noise_floor"`
	RMS         float64   `json:"rms"`
	BandRatio   float64   `json:"band_ratio"`
	Centroids   []float64 `json:"recent_centroids"`
	Onsets      []float64 `json:"recent_onsets"`
}
