// SPDX-License-Identifier: MIT
package audio

import (
	"testing"

	"chirp/internal/analysis"
	"chirp/internal/config"
	"chirp/internal/transport"
	"chirp/pkg/synth"
)

const (
	testSampleRate = 44100.0
	testBlockSize  = 2048
)

// captureTransport records flap events for assertions.
type captureTransport struct {
	events []transport.FlapEvent
}

func (c *captureTransport) Send(data any) error {
	if ev, ok := data.(transport.FlapEvent); ok {
		c.events = append(c.events, ev)
	}
	return nil
}

func (c *captureTransport) Close() error { return nil }

// newTestEngine builds an engine around a real detector without opening
// a capture stream, so the callback pipeline can be driven directly.
func newTestEngine(tb testing.TB, channels int) (*Engine, *captureTransport) {
	tb.Helper()

	cfg := config.NewConfig()
	cfg.Audio.Channels = channels
	cfg.Detector.Sensitivity = 0.6

	detector, err := analysis.New(cfg)
	if err != nil {
		tb.Fatalf("Failed to create detector: %v", err)
	}

	sink := &captureTransport{}
	return &Engine{
		config:      cfg,
		detector:    detector,
		transport:   sink,
		inputBuffer: make([]int32, cfg.Audio.BlockSize*cfg.Audio.Channels),
		monoFrame:   make([]float64, cfg.Audio.BlockSize),
	}, sink
}

// toInt32 converts a normalized float frame to device-format samples.
func toInt32(frame []float64) []int32 {
	out := make([]int32, len(frame))
	for i, v := range frame {
		out[i] = int32(v * 0x7fffffff)
	}
	return out
}

func clapBlock() []int32 {
	return toInt32(synth.Mix(
		synth.Harmonics(testBlockSize, testSampleRate, 1000, 0.6),
		synth.Sine(testBlockSize, testSampleRate, 150, 0.15),
	))
}

func silenceBlock() []int32 {
	return make([]int32, testBlockSize)
}

func TestEngineFlapEdgeCounting(t *testing.T) {
	engine, sink := newTestEngine(t, 1)

	// Quiet room, then a sustained burst.
	for ri := 0; ri < 3; ri++ {
		engine.processBuffer(silenceBlock())
	}
	clap := clapBlock()
	engine.processBuffer(clap)
	engine.processBuffer(clap)

	if !engine.Triggered() {
		t.Fatal("Engine should report triggered after two consecutive loud blocks")
	}
	if got := engine.FlapCount(); got != 1 {
		t.Fatalf("FlapCount = %d, want 1", got)
	}

	// Holding the trigger high must not produce additional flaps.
	engine.processBuffer(clap)
	if got := engine.FlapCount(); got != 1 {
		t.Errorf("Sustained trigger produced extra flaps: count = %d, want 1", got)
	}

	// Let the counter decay, then burst again for a second flap.
	for ri := 0; ri < 4; ri++ {
		engine.processBuffer(silenceBlock())
	}
	if engine.Triggered() {
		t.Error("Trigger should have released after silence")
	}
	engine.processBuffer(clap)
	engine.processBuffer(clap)

	if got := engine.FlapCount(); got != 2 {
		t.Errorf("FlapCount = %d, want 2", got)
	}
	if len(sink.events) != 2 {
		t.Fatalf("Transport received %d flap events, want 2", len(sink.events))
	}
	if sink.events[1].Count != 2 {
		t.Errorf("Second flap event count = %d, want 2", sink.events[1].Count)
	}
}

func TestEngineMonoExtraction(t *testing.T) {
	engine, _ := newTestEngine(t, 2)

	// Interleaved stereo: a known left channel, garbage on the right.
	left := synth.Sine(testBlockSize, testSampleRate, 1000, 0.5)
	buffer := make([]int32, testBlockSize*2)
	for i, v := range left {
		buffer[i*2] = int32(v * 0x7fffffff)
		buffer[i*2+1] = int32(i * 1000003) // Right channel must be ignored.
	}

	engine.processBuffer(buffer)

	for i, want := range left {
		got := engine.monoFrame[i]
		if diff := got - want; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("monoFrame[%d] = %g, want %g", i, got, want)
		}
	}
}

func TestEngineStateBeforeFirstBlock(t *testing.T) {
	engine, _ := newTestEngine(t, 1)

	if engine.Triggered() {
		t.Error("Triggered should be false before any audio arrives")
	}
	if engine.FlapCount() != 0 {
		t.Error("FlapCount should be zero before any audio arrives")
	}
	snap := engine.Snapshot()
	if snap.IsLoud || snap.RMS != 0 || snap.NoiseFloor != 0 {
		t.Errorf("Snapshot should be zero before any audio arrives, got %+v", snap)
	}
}

func TestEngineSetSensitivity(t *testing.T) {
	engine, _ := newTestEngine(t, 1)

	for _, s := range []float64{-0.1, 1.5} {
		if err := engine.SetSensitivity(s); err == nil {
			t.Errorf("SetSensitivity(%g) should be rejected", s)
		}
	}
	if engine.pendingSens.Load() != nil {
		t.Fatal("Rejected sensitivity must not be queued")
	}

	if err := engine.SetSensitivity(0.9); err != nil {
		t.Fatalf("SetSensitivity(0.9) failed: %v", err)
	}
	if engine.pendingSens.Load() == nil {
		t.Fatal("Accepted sensitivity should be queued")
	}

	engine.processBuffer(silenceBlock())
	if engine.pendingSens.Load() != nil {
		t.Error("Queued sensitivity should be consumed at the frame boundary")
	}
}

func TestEngineSilenceStability(t *testing.T) {
	engine, _ := newTestEngine(t, 1)

	for ri := 0; ri < 100; ri++ {
		engine.processBuffer(silenceBlock())
	}

	if engine.Triggered() {
		t.Error("Silence must never trigger")
	}
	if engine.FlapCount() != 0 {
		t.Errorf("Silence produced %d flaps, want 0", engine.FlapCount())
	}
}

func BenchmarkEngineProcessBuffer(b *testing.B) {
	engine, _ := newTestEngine(b, 1)
	block := clapBlock()

	b.ReportAllocs()
	b.ResetTimer()

	for bi := 0; bi < b.N; bi++ {
		engine.processBuffer(block)
	}
}
