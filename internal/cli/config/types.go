// Package config provides configuration management for the depcheck CLI.
//
// Values are layered, highest priority first: command line flags, DEPCHECK_*
// environment variables, depcheck.yaml, built-in defaults.
package config

import (
	"time"

	"github.com/leapstack-labs/depcheck/internal/devtools"
)

// Config holds all CLI configuration options.
type Config struct {
	ProfilesDir   string           `koanf:"profiles_dir"`
	RuntimeCutoff string           `koanf:"runtime_cutoff"`
	Concurrency   int              `koanf:"concurrency"`
	OutputFormat  string           `koanf:"output"`
	Verbose       bool             `koanf:"verbose"`
	Check         CheckConfig      `koanf:"check"`
	Watch         WatchConfig      `koanf:"watch"`
	Devtools      devtools.Options `koanf:"devtools"`

	// ProjectRoot is the directory holding depcheck.yaml, or the working
	// directory when there is none.
	ProjectRoot string `koanf:"-"`
}

// CheckConfig holds defaults applied to every checked manifest. Non-empty
// values override the depcheck field in package.json.
type CheckConfig struct {
	Write          bool     `koanf:"write"`
	Kind           string   `koanf:"kind"`
	Capabilities   []string `koanf:"capabilities"`
	HostVersion    string   `koanf:"host_version"`
	DevHostVersion string   `koanf:"dev_host_version"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Default configuration values.
const (
	ConfigFileName    = "depcheck.yaml"
	ConfigFileNameAlt = "depcheck.yml"

	DefaultConcurrency  = 4
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultDebounce     = 200 * time.Millisecond
	DefaultDevtoolsPort = devtools.DefaultPort

	envPrefix = "DEPCHECK_"
)
