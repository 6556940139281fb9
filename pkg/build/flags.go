// SPDX-License-Identifier: MIT
//
// Package build manages build metadata embedded into the binary at compile
// time via linker flags. The application name, build timestamp, Git commit
// and semantic version are injected with -ldflags and surfaced through
// GetBuildFlags for version output and logging.
package build

import "fmt"

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information. These are populated by
// -ldflags during compilation. Default values are used during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "chirp",
		Description: "Voice/clap trigger engine for reflex games",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies build information from the ldflags variables into the
// buildFlags struct. Call early in program startup. Fields left unset by the
// build keep their development defaults.
func Initialize() error {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
	if buildFlags.Name == "" {
		return fmt.Errorf("build name is required")
	}
	return nil
}

// GetBuildFlags returns the resolved build metadata.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String returns a single-line summary suitable for --version output.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (%s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
