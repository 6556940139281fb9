// SPDX-License-Identifier: MIT
/*
Package audio implements the real-time capture engine that feeds the
trigger detector:
- Audio capture using PortAudio with pre-allocated buffers
- Mono extraction and normalization for the analysis pipeline
- Flap counting on rising edges of the debounced trigger
- Optional WAV recording for offline threshold tuning

Thread Safety:
- The detector is mutated only inside the capture callback
- Readers get copies via atomically published snapshots
- Sensitivity changes are queued and applied at frame boundaries
*/
package audio

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"chirp/internal/analysis"
	"chirp/internal/config"
	applog "chirp/internal/log"
	"chirp/internal/transport"
	"chirp/internal/transport/udp"
)

// int32Norm scales int32 samples into [-1.0, 1.0) floats.
const int32Norm = 1.0 / float64(0x80000000)

type Engine struct {
	// Core configuration and collaborators.
	config    *config.Config
	detector  analysis.Detector
	transport transport.Transport

	// Audio input handling.
	inputBuffer  []int32   // Raw interleaved samples from the device.
	monoFrame    []float64 // Normalized mono frame handed to the detector.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Trigger state published for other goroutines.
	wasTriggered bool // Callback-local edge memory.
	flapCount    atomic.Uint32
	lastSnap     atomic.Pointer[analysis.Snapshot]

	// Sensitivity changes arrive from the UI goroutine and are applied
	// at the next frame boundary inside the callback.
	pendingSens atomic.Pointer[float64]

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state.
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *goaudio.IntBuffer // Reusable buffer for format conversion.
}

// Engine is the state source for the UDP trigger publisher and the
// WebSocket state broadcaster.
var _ udp.StateSource = (*Engine)(nil)
var _ transport.StateSource = (*Engine)(nil)

// NewEngine wires a capture engine to a detector and a transport.
// The configuration must already be validated.
func NewEngine(cfg *config.Config, detector analysis.Detector, tr transport.Transport) (*Engine, error) {
	if detector == nil {
		return nil, fmt.Errorf("engine requires a detector")
	}

	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cfg,
		detector:    detector,
		transport:   tr,
		inputBuffer: make([]int32, cfg.Audio.BlockSize*cfg.Audio.Channels),
		monoFrame:   make([]float64, cfg.Audio.BlockSize),
		inputDevice: inputDevice,
	}

	if cfg.Audio.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return engine, nil
}

// StartInputStream opens and starts the PortAudio input stream. From the
// first callback on, the hot path is live.
func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Audio.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // Capture only.
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.BlockSize,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	applog.Infof("Audio: input stream started (%s, %.0f Hz, block %d)",
		e.inputDevice.Name, e.config.Audio.SampleRate, e.config.Audio.BlockSize)
	return nil
}

// StopInputStream stops and closes the input stream if running.
func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}
		if err := e.inputStream.Close(); err != nil {
			return err
		}
		e.inputStream = nil
	}
	return nil
}

// processInputStream is the capture callback.
// Performance Critical:
// - Runs on a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - The whole pipeline runs to completion before the next block arrives
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer)

	// Write to WAV file if recording.
	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		for i, sample := range e.inputBuffer {
			e.sampleBuf.Data[i] = int(sample)
		}
		e.sampleBuf.Data = e.sampleBuf.Data[:len(e.inputBuffer)]

		if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
			applog.Errorf("Audio: error writing to WAV file: %v", err)
		}
	}
}

// processBuffer runs the analysis pipeline for one block: apply any
// queued sensitivity change, extract a normalized mono frame, feed the
// detector, count rising edges, publish a fresh snapshot.
func (e *Engine) processBuffer(buffer []int32) {
	if s := e.pendingSens.Swap(nil); s != nil {
		if err := e.detector.SetSensitivity(*s); err != nil {
			applog.Warnf("Audio: rejected sensitivity change: %v", err)
		}
	}

	// Mono extraction: first channel of each interleaved sample group.
	channels := e.config.Audio.Channels
	for i := 0; i < e.config.Audio.BlockSize; i++ {
		idx := i * channels
		if idx < len(buffer) {
			e.monoFrame[i] = float64(buffer[idx]) * int32Norm
		} else {
			e.monoFrame[i] = 0 // Safety fallback for short device buffers.
		}
	}

	if err := e.detector.Process(e.monoFrame); err != nil {
		// Only reachable through a frame-size misconfiguration. Keep the
		// stream alive and surface the error.
		applog.Errorf("Audio: detector rejected frame: %v", err)
		return
	}

	triggered := e.detector.Triggered()
	if triggered && !e.wasTriggered {
		count := e.flapCount.Add(1)
		if e.transport != nil {
			e.transport.Send(transport.FlapEvent{Type: "flap", Count: count})
		}
	}
	e.wasTriggered = triggered

	snap := e.detector.Snapshot()
	e.lastSnap.Store(&snap)
}

// Triggered reports the debounced trigger state from the last published
// snapshot. Safe from any goroutine.
func (e *Engine) Triggered() bool {
	if snap := e.lastSnap.Load(); snap != nil {
		return snap.IsLoud
	}
	return false
}

// FlapCount returns the number of rising trigger edges this session.
// Safe from any goroutine.
func (e *Engine) FlapCount() uint32 {
	return e.flapCount.Load()
}

// Snapshot returns the last published detector snapshot.
// Safe from any goroutine; returns a zero snapshot before the first block.
func (e *Engine) Snapshot() analysis.Snapshot {
	if snap := e.lastSnap.Load(); snap != nil {
		return *snap
	}
	return analysis.Snapshot{}
}

// SetSensitivity queues a sensitivity change to be applied at the next
// frame boundary. Out-of-range values are rejected immediately.
func (e *Engine) SetSensitivity(s float64) error {
	if s < 0 || s > 1 {
		return fmt.Errorf("sensitivity must be in [0, 1], got %g", s)
	}
	e.pendingSens.Store(&s)
	return nil
}

// Close stops recording and the input stream.
func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}
	return e.StopInputStream()
}
