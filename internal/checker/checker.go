// Package checker runs the manifest updater against package.json files on
// disk: it reads each manifest, picks the profiles the package supports,
// computes the updated dependency buckets and reports or writes the result.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/depcheck/pkg/manifest"
	"github.com/leapstack-labs/depcheck/pkg/profile"
	"github.com/leapstack-labs/depcheck/pkg/semver"
)

// ErrNotConfigured means a manifest has no kind or capabilities, either in
// its depcheck field or from the command line.
var ErrNotConfigured = errors.New("package is not configured for depcheck")

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 4

// Options control a Checker. Non-empty values override the per-package kit
// config read from each manifest.
type Options struct {
	Write          bool
	Kind           manifest.Kind
	Capabilities   []string
	HostVersion    string
	DevHostVersion string
	RuntimeCutoff  semver.Version
	Concurrency    int
}

// Result describes one checked manifest.
type Result struct {
	Path    string           `json:"path"`
	Name    string           `json:"name,omitempty"`
	Kind    manifest.Kind    `json:"kind,omitempty"`
	Changed bool             `json:"changed"`
	Written bool             `json:"written"`
	Skipped bool             `json:"skipped"`
	Before  manifest.Buckets `json:"before"`
	After   manifest.Buckets `json:"after"`
	Diff    string           `json:"diff,omitempty"`

	// Profiles are the host versions the package supports; Applicable the
	// subset its development setup is pinned against.
	Profiles   []string `json:"profiles,omitempty"`
	Applicable []string `json:"applicable,omitempty"`
}

// Checker checks manifests against a profile registry.
type Checker struct {
	registry *profile.Registry
	opts     Options
	logger   *slog.Logger
}

// New creates a checker. A nil logger discards output.
func New(reg *profile.Registry, opts Options, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Checker{registry: reg, opts: opts, logger: logger}
}

// Check runs the updater for the manifest at path. For an unconfigured
// package it returns a skipped result and an error wrapping ErrNotConfigured.
func (c *Checker) Check(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // manifest path is user input
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	doc, err := manifest.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, err := doc.Manifest()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	res := &Result{Path: path, Name: m.Name, Before: m.Buckets()}

	kit := c.kitFor(m)
	if kit.Kind == "" || len(kit.Capabilities) == 0 {
		res.Skipped = true
		res.After = res.Before
		return res, fmt.Errorf("%s: %w", path, ErrNotConfigured)
	}
	kind, err := manifest.ParseKind(string(kit.Kind))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Kind = kind

	supported, applicable, err := c.selectProfiles(kit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Profiles = profile.HostVersions(supported)
	res.Applicable = profile.HostVersions(applicable)

	c.logger.Debug("checking manifest",
		slog.String("path", path),
		slog.String("kind", string(kind)),
		slog.Any("capabilities", kit.Capabilities),
		slog.Any("profiles", res.Profiles),
		slog.Any("applicable", res.Applicable))

	buckets, err := manifest.UpdatePackageManifest(m, kit.Capabilities, supported, applicable, kind, manifest.UpdateOptions{
		RuntimeCutoff: c.opts.RuntimeCutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.After = buckets

	before, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	updated, err := doc.Apply(buckets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	after, err := updated.Encode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Diff, err = manifest.Diff(path, before, after)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to diff manifest: %w", path, err)
	}
	res.Changed = res.Diff != ""

	if res.Changed && c.opts.Write {
		if err := writeFile(path, after); err != nil {
			return nil, err
		}
		res.Written = true
		c.logger.Info("manifest updated", slog.String("path", path))
	}
	return res, nil
}

// CheckAll checks every path concurrently. Results are returned in the order
// of paths. Unconfigured packages are reported as skipped; any other error
// stops the run.
func (c *Checker) CheckAll(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			res, err := c.Check(gctx, path)
			if err != nil && !errors.Is(err, ErrNotConfigured) {
				return err
			}
			if err != nil {
				c.logger.Debug("skipping manifest", slog.String("path", path), slog.String("reason", err.Error()))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// kitFor merges the manifest's depcheck field with the command line
// overrides.
func (c *Checker) kitFor(m manifest.Manifest) manifest.Kit {
	var kit manifest.Kit
	if m.Kit != nil {
		kit = *m.Kit
	}
	if c.opts.Kind != "" {
		kit.Kind = c.opts.Kind
	}
	if len(c.opts.Capabilities) > 0 {
		kit.Capabilities = c.opts.Capabilities
	}
	if c.opts.HostVersion != "" {
		kit.HostVersion = c.opts.HostVersion
	}
	if c.opts.DevHostVersion != "" {
		kit.DevHostVersion = c.opts.DevHostVersion
	}
	kit.Capabilities = dedupe(kit.Capabilities)
	return kit
}

// selectProfiles returns the profiles the package supports and the subset
// its development setup targets.
func (c *Checker) selectProfiles(kit manifest.Kit) (supported, applicable []profile.Profile, err error) {
	supported = c.registry.Profiles()
	if kit.HostVersion != "" {
		supported, err = c.registry.Select(kit.HostVersion)
		if err != nil {
			return nil, nil, fmt.Errorf("supported host versions: %w", err)
		}
	}
	if len(supported) == 0 {
		return nil, nil, fmt.Errorf("%w: registry is empty", profile.ErrNoApplicableProfiles)
	}
	if kit.DevHostVersion == "" {
		return supported, supported, nil
	}
	dev, err := semver.ParseConstraint(kit.DevHostVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("development host version: %w", err)
	}
	applicable, err = profile.Applicable(supported, dev)
	if err != nil {
		return nil, nil, fmt.Errorf("development host version: %w", err)
	}
	return supported, applicable, nil
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func writeFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
