package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/depcheck/internal/cli/output"
	"github.com/leapstack-labs/depcheck/pkg/manifest"
	"github.com/leapstack-labs/depcheck/pkg/semver"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	if c.RuntimeCutoff != "" {
		if _, err := semver.ParseVersion(c.RuntimeCutoff); err != nil {
			errs = append(errs, fmt.Errorf("runtime_cutoff: %w", err))
		}
	}
	if c.Check.Kind != "" {
		if _, err := manifest.ParseKind(c.Check.Kind); err != nil {
			errs = append(errs, fmt.Errorf("check.kind: %w", err))
		}
	}
	for name, v := range map[string]string{
		"check.host_version":     c.Check.HostVersion,
		"check.dev_host_version": c.Check.DevHostVersion,
	} {
		if v == "" {
			continue
		}
		if _, err := semver.ParseConstraint(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if c.Devtools.Port < 0 || c.Devtools.Port > 65535 {
		errs = append(errs, fmt.Errorf("devtools.port out of range: %d", c.Devtools.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ValidateDirectories checks that a configured profiles directory exists.
func (c *Config) ValidateDirectories() error {
	if c.ProfilesDir == "" {
		return nil
	}
	info, err := os.Stat(c.ProfilesDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("profiles directory does not exist: %s\nHint: Create the directory or use --profiles-dir to specify a different path", c.ProfilesDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("profiles path is not a directory: %s", c.ProfilesDir)
	}
	return nil
}

// Cutoff returns the parsed runtime cutoff; the zero Version when unset.
func (c *Config) Cutoff() semver.Version {
	if c.RuntimeCutoff == "" {
		return semver.Version{}
	}
	v, err := semver.ParseVersion(c.RuntimeCutoff)
	if err != nil {
		return semver.Version{}
	}
	return v
}
