package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chirp/internal/config"
	"chirp/pkg/build"
)

// configPathFromArgs pre-scans the raw arguments for --config so the file
// can be loaded before flag registration. Flag defaults then come from the
// file, and only flags the user actually passes override it.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// ParseArgs loads the YAML configuration and applies command-line flags on
// top of it. The returned Config is validated and ready to run.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	options, err := config.LoadConfig(configPathFromArgs(os.Args[1:]))
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	// The --config flag is consumed by the pre-scan above; registered here
	// so cobra accepts and documents it.
	var configPath string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML configuration file")

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&options.Audio.InputDevice, "device", "d", options.Audio.InputDevice,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&options.Audio.Channels, "channels", "c", options.Audio.Channels,
		"Number of channels to capture (1=mono, 2=stereo); analysis is always mono")
	rootCmd.PersistentFlags().Float64VarP(&options.Audio.SampleRate, "sample-rate", "s", options.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&options.Audio.BlockSize, "block-size", "b", options.Audio.BlockSize,
		"Samples per analysis block, power of 2 (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&options.Audio.LowLatency, "low-latency", "l", options.Audio.LowLatency,
		"Use low latency mode for real-time processing")

	// Detector Configuration
	rootCmd.PersistentFlags().Float64VarP(&options.Detector.Sensitivity, "sensitivity", "n", options.Detector.Sensitivity,
		"Trigger sensitivity in [0, 1]; higher triggers easier")
	rootCmd.PersistentFlags().Float64Var(&options.Detector.FreqMin, "freq-min", options.Detector.FreqMin,
		"Bottom of the target frequency band (Hz)")
	rootCmd.PersistentFlags().Float64Var(&options.Detector.FreqMax, "freq-max", options.Detector.FreqMax,
		"Top of the target frequency band (Hz)")
	rootCmd.PersistentFlags().StringVarP(&options.Detector.Mode, "mode", "m", options.Detector.Mode,
		"Detector variant: 'full' or 'reduced'")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Recording.Enabled, "record", "r", options.Recording.Enabled,
		"Record captured audio to a WAV file for offline tuning")
	rootCmd.PersistentFlags().StringVarP(&options.Recording.OutputFile, "output", "o", options.Recording.OutputFile,
		"Output file name. Default is chirp-MM-DD-YYYY-HHMMSS.wav")

	// Transport Configuration
	rootCmd.PersistentFlags().BoolVar(&options.Transport.WebSocketEnabled, "websocket", options.Transport.WebSocketEnabled,
		"Broadcast flap events over a WebSocket server")
	rootCmd.PersistentFlags().StringVar(&options.Transport.WebSocketAddr, "websocket-addr", options.Transport.WebSocketAddr,
		"Listen address for the WebSocket server")
	rootCmd.PersistentFlags().BoolVar(&options.Transport.UDPEnabled, "udp", options.Transport.UDPEnabled,
		"Publish trigger state packets over UDP")
	rootCmd.PersistentFlags().StringVar(&options.Transport.UDPTargetAddress, "udp-target", options.Transport.UDPTargetAddress,
		"Target address for UDP trigger packets")

	// UI and Debug Configuration
	rootCmd.PersistentFlags().BoolVar(&options.Meter, "meter", options.Meter,
		"Show the interactive tuning meter")
	rootCmd.PersistentFlags().BoolVarP(&options.Debug, "verbose", "v", options.Debug,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	if options.Recording.Enabled && options.Recording.OutputFile == "" {
		options.Recording.OutputFile = "chirp-" +
			time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	return options, nil
}
