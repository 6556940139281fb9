// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestRecordingStartStop(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "session.wav")
	engine, _ := newTestEngine(t, 2)

	if err := engine.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	if atomic.LoadInt32(&engine.isRecording) != 1 {
		t.Error("Engine should be in recording state")
	}

	if engine.outputFile == nil {
		t.Error("Output file should be initialized")
	}

	if engine.wavEncoder == nil {
		t.Error("WAV encoder should be initialized")
	}

	if engine.sampleBuf == nil {
		t.Fatal("Sample buffer should be initialized")
	}

	if engine.sampleBuf.Format.NumChannels != engine.config.Audio.Channels {
		t.Errorf("Buffer channels mismatch: got %d, want %d",
			engine.sampleBuf.Format.NumChannels, engine.config.Audio.Channels)
	}

	if engine.sampleBuf.Format.SampleRate != int(engine.config.Audio.SampleRate) {
		t.Errorf("Buffer sample rate mismatch: got %d, want %d",
			engine.sampleBuf.Format.SampleRate, int(engine.config.Audio.SampleRate))
	}

	if len(engine.sampleBuf.Data) != engine.config.Audio.BlockSize*engine.config.Audio.Channels {
		t.Errorf("Buffer size mismatch: got %d, want %d",
			len(engine.sampleBuf.Data), engine.config.Audio.BlockSize*engine.config.Audio.Channels)
	}

	// Store reference to check file closure.
	outputFile := engine.outputFile

	if err := engine.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	if atomic.LoadInt32(&engine.isRecording) != 0 {
		t.Error("Engine should not be in recording state after stopping")
	}

	if engine.outputFile != nil {
		t.Error("Output file should be nil after stopping")
	}

	if engine.wavEncoder != nil {
		t.Error("WAV encoder should be nil after stopping")
	}

	if err := outputFile.Close(); err == nil {
		t.Error("File should already be closed")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Error("Recording file was not created")
	}
}

func TestRecordingErrorCases(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		desc          string
		filename      string
		isRecording   int32
		expectError   bool
		errorContains string
	}{
		{"Already recording", "valid.wav", 1, true, "already recording"},
		{"Invalid path", "/nonexistent/path/file.wav", 0, true, ""},
		{"Valid path", "session.wav", 0, false, ""},
		{"Stop when not recording", "", 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var err error
			engine, _ := newTestEngine(t, 2)

			atomic.StoreInt32(&engine.isRecording, tt.isRecording)

			if tt.desc == "Stop when not recording" {
				err = engine.StopRecording()
			} else {
				filename := tt.filename
				if tt.errorContains == "" && !tt.expectError {
					filename = filepath.Join(dir, tt.filename)
				}

				err = engine.StartRecording(filename)
				if err == nil {
					_ = engine.StopRecording()
				}
			}

			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}

			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}

			if tt.errorContains != "" && err != nil {
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Error %q does not contain %q", err.Error(), tt.errorContains)
				}
			}
		})
	}
}

func TestCloseEngineWithRecording(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "close.wav")
	engine, _ := newTestEngine(t, 2)

	if err := engine.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Failed to close engine: %v", err)
	}

	if atomic.LoadInt32(&engine.isRecording) != 0 {
		t.Error("Engine should not be in recording state after Close()")
	}

	if engine.outputFile != nil {
		t.Error("Output file should be nil after Close()")
	}

	if engine.wavEncoder != nil {
		t.Error("WAV encoder should be nil after Close()")
	}
}
