package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"chirp/cmd"
	"chirp/internal/analysis"
	"chirp/internal/audio"
	applog "chirp/internal/log"
	"chirp/internal/transport"
	"chirp/internal/transport/udp"
	"chirp/internal/tui"
	"chirp/pkg/build"
)

// main is the entry point for the trigger engine.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information and logging
//   - Initialize PortAudio
//   - Load configuration and parse command line arguments
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the capture engine and detector pipeline
//   - Begin input stream processing
//   - Start recording, transports and the tuning meter if enabled
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop publishers and recording
//   - Clean up resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}

	// Limit OS threads to optimize for real-time audio processing:
	// - One thread dedicated to the capture callback (time-critical)
	// - One thread for UI, transports and I/O
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	// One-off commands run without the capture engine.
	if cfg.Command == "list" {
		if err := audio.ListDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	detector, err := analysis.New(cfg)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	var sink transport.Transport
	if cfg.Transport.WebSocketEnabled {
		sink = transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr)
	} else {
		sink = transport.NewLoggingTransport()
	}

	engine, err := audio.NewEngine(cfg, detector, sink)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	var statePub *transport.StatePublisher
	if cfg.Transport.WebSocketEnabled {
		statePub = transport.NewStatePublisher(0, sink, engine)
	}

	// CRITICAL: Start of real-time audio processing. From the first
	// callback on, every block flows through the detector.
	if err := engine.StartInputStream(); err != nil {
		applog.Fatalf("%v", err)
	}

	if cfg.Recording.Enabled {
		if err := engine.StartRecording(cfg.Recording.OutputFile); err != nil {
			applog.Fatalf("%v", err)
		}
	}

	var publisher *udp.Publisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		defer sender.Close()

		publisher, err = udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, engine)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher.Start()
	}

	if statePub != nil {
		statePub.Start()
	}

	if cfg.Meter {
		// The meter owns the terminal; quitting it shuts the engine down.
		if err := tui.StartMeter(engine, cfg.Detector.Sensitivity); err != nil {
			applog.Errorf("Meter error: %v", err)
		}
	} else {
		fmt.Printf("Listening. '%s --help' for usage information.\n", build.GetBuildFlags().Name)
		<-done
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if statePub != nil {
		statePub.Stop()
	}

	if publisher != nil {
		publisher.Stop()
	}

	if cfg.Recording.Enabled {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		} else {
			fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.OutputFile)
		}
	}

	if err := engine.Close(); err != nil {
		applog.Errorf("Error closing audio engine: %v", err)
	}

	if err := sink.Close(); err != nil {
		applog.Errorf("Error closing transport: %v", err)
	}

	fmt.Printf("Session flaps: %d\n", engine.FlapCount())
}
