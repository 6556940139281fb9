// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"time"

	"chirp/pkg/bitint"
)

// Core configuration constants that define the boundaries and defaults
// for the trigger engine.
const (
	// Default values for the capture and analysis configuration
	DefaultChannels    = 1     // Mono audio
	DefaultDeviceID    = MinDeviceID
	DefaultSampleRate  = 44100 // CD-quality audio
	DefaultBlockSize   = 2048  // ~46ms per block at 44100 Hz
	DefaultLowLatency  = true  // Reflex game wants low capture latency
	DefaultWindow      = "Hann"
	DefaultSensitivity = 0.5
	DefaultFreqMin     = 500.0  // Hz - voice fundamentals and clap energy start here
	DefaultFreqMax     = 4000.0 // Hz - upper edge of the target band
	DefaultCentroidMin = 800.0  // Hz - below this the frame is rumble
	DefaultCentroidMax = 5000.0 // Hz - above this the frame is hiss
	DefaultFloorWindow = 50     // RMS history frames for the noise floor
	DefaultMode        = ModeFull

	// Detector variants
	ModeFull    = "full"    // FFT + centroid + adaptive floor + onset
	ModeReduced = "reduced" // band-ratio gated RMS only

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxBlockSize  = 8192   // Maximum samples per block (power of 2)
	MinFloorWindow = 2     // Percentile needs at least two samples
)

// Config holds all runtime configuration, loaded from YAML and/or flags.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	// One-off command to execute instead of running the engine (e.g. "list").
	Command string `yaml:"-"`
	// Meter enables the interactive tuning meter TUI.
	Meter bool `yaml:"-"`

	Audio     AudioConfig     `yaml:"audio"`
	Detector  DetectorConfig  `yaml:"detector"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds capture device settings.
type AudioConfig struct {
	InputDevice int     `yaml:"input_device"` // PortAudio device index (-1 for default)
	SampleRate  float64 `yaml:"sample_rate"`  // Hz
	BlockSize   int     `yaml:"block_size"`   // Samples per analysis block (power of 2)
	Channels    int     `yaml:"channels"`     // Captured channels; analysis is always mono
	LowLatency  bool    `yaml:"low_latency"`  // Request low latency from the device
	Window      string  `yaml:"fft_window"`   // Window function name (e.g. "Hann")
}

// DetectorConfig holds the decision-core tuning knobs. Sensitivity is the
// single knob callers are expected to touch; the band and centroid limits
// exist for unusual rooms.
type DetectorConfig struct {
	Sensitivity float64 `yaml:"sensitivity"`  // 0..1, higher triggers easier
	FreqMin     float64 `yaml:"freq_min"`     // Hz - bottom of the target band
	FreqMax     float64 `yaml:"freq_max"`     // Hz - top of the target band
	CentroidMin float64 `yaml:"centroid_min"` // Hz - centroid acceptance window
	CentroidMax float64 `yaml:"centroid_max"` // Hz
	FloorWindow int     `yaml:"floor_window"` // RMS history length for the noise floor
	Mode        string  `yaml:"mode"`         // "full" or "reduced"
}

// RecordingConfig holds settings for capturing sessions to WAV for
// offline threshold tuning.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // Empty means auto-generated name
}

// TransportConfig holds settings for publishing trigger state to the game
// or a tuning UI.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddr    string        `yaml:"websocket_addr"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
}

// NewConfig creates a Config with documented defaults. This is the base
// configuration before applying a YAML file, environment overrides, or
// command-line flags.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice: DefaultDeviceID,
			SampleRate:  DefaultSampleRate,
			BlockSize:   DefaultBlockSize,
			Channels:    DefaultChannels,
			LowLatency:  DefaultLowLatency,
			Window:      DefaultWindow,
		},
		Detector: DetectorConfig{
			Sensitivity: DefaultSensitivity,
			FreqMin:     DefaultFreqMin,
			FreqMax:     DefaultFreqMax,
			CentroidMin: DefaultCentroidMin,
			CentroidMax: DefaultCentroidMax,
			FloorWindow: DefaultFloorWindow,
			Mode:        DefaultMode,
		},
		Recording: RecordingConfig{
			Enabled:    false,
			OutputFile: "",
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond, // ~30Hz
		},
	}
}

// Validate checks the configuration once, at load time. Out-of-range values
// are rejected with a descriptive error rather than silently clamped, since
// clamping would hide a caller bug.
func (c *Config) Validate() error {
	a := &c.Audio
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f out of range [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(a.BlockSize) {
		return fmt.Errorf("audio.block_size must be a power of 2, got %d (nearest valid: %d)",
			a.BlockSize, bitint.NextPowerOfTwo(a.BlockSize))
	}
	if a.BlockSize > MaxBlockSize {
		return fmt.Errorf("audio.block_size must be <= %d, got %d", MaxBlockSize, a.BlockSize)
	}
	if a.Channels < 1 {
		return fmt.Errorf("audio.channels must be >= 1, got %d", a.Channels)
	}
	if a.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice)
	}

	d := &c.Detector
	if d.Sensitivity < 0 || d.Sensitivity > 1 {
		return fmt.Errorf("detector.sensitivity must be in [0, 1], got %g", d.Sensitivity)
	}
	if d.FreqMin <= 0 || d.FreqMin >= d.FreqMax {
		return fmt.Errorf("detector frequency band invalid: freq_min %.0f must be positive and below freq_max %.0f", d.FreqMin, d.FreqMax)
	}
	nyquist := a.SampleRate / 2
	if d.FreqMax > nyquist {
		return fmt.Errorf("detector.freq_max %.0f exceeds Nyquist %.0f for sample rate %.0f", d.FreqMax, nyquist, a.SampleRate)
	}
	if d.CentroidMin >= d.CentroidMax {
		return fmt.Errorf("detector centroid window invalid: centroid_min %.0f must be below centroid_max %.0f", d.CentroidMin, d.CentroidMax)
	}
	if d.FloorWindow < MinFloorWindow {
		return fmt.Errorf("detector.floor_window must be >= %d, got %d", MinFloorWindow, d.FloorWindow)
	}
	if d.Mode != ModeFull && d.Mode != ModeReduced {
		return fmt.Errorf("detector.mode must be %q or %q, got %q", ModeFull, ModeReduced, d.Mode)
	}

	t := &c.Transport
	if t.UDPEnabled {
		if t.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if t.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if t.WebSocketEnabled && t.WebSocketAddr == "" {
		return fmt.Errorf("transport.websocket_addr must be set when the WebSocket server is enabled")
	}

	return nil
}
