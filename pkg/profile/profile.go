// Package profile holds the compatibility matrix: one Profile per supported
// host platform version, each mapping capability names to the package
// version required at that host version.
//
// Profiles are immutable once loaded. A Registry keeps them ordered from
// oldest to newest host version; that order is what the resolver relies on
// when it picks the "oldest" or "newest" version of a capability.
package profile

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/depcheck/pkg/semver"
)

// Descriptor describes the package a capability resolves to in one profile.
type Descriptor struct {
	// Name is the package name written into the manifest. Empty means the
	// capability name itself.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Version is the version or range required by the profile's host version.
	Version string `yaml:"version" json:"version"`

	// DevOnly marks tooling packages that are only ever pinned for local
	// development (test apps, bundler plugins).
	DevOnly bool `yaml:"devOnly,omitempty" json:"devOnly,omitempty"`

	// Runtime is an optional constraint on the local toolchain runtime
	// (e.g. ">=12") that this package version needs.
	Runtime string `yaml:"runtime,omitempty" json:"runtime,omitempty"`
}

// Profile is the compatibility snapshot for one host platform version.
type Profile struct {
	HostVersion string
	Packages    map[string]Descriptor

	version semver.Version
}

// New builds a profile from a host version and its capability table.
// Descriptors without a package name take the capability name.
func New(hostVersion string, packages map[string]Descriptor) (Profile, error) {
	v, err := semver.ParseVersion(hostVersion)
	if err != nil {
		return Profile{}, err
	}
	pkgs := make(map[string]Descriptor, len(packages))
	for capability, d := range packages {
		if d.Name == "" {
			d.Name = capability
		}
		if d.Runtime != "" {
			if _, err := semver.ParseConstraint(d.Runtime); err != nil {
				return Profile{}, fmt.Errorf("capability %s: %w", capability, err)
			}
		}
		pkgs[capability] = d
	}
	return Profile{HostVersion: hostVersion, Packages: pkgs, version: v}, nil
}

// MustNew is New for static tables; it panics on an invalid host version.
func MustNew(hostVersion string, packages map[string]Descriptor) Profile {
	p, err := New(hostVersion, packages)
	if err != nil {
		panic(err)
	}
	return p
}

// Version returns the parsed host version.
func (p Profile) Version() semver.Version { return p.version }

// Lookup returns the descriptor for capability, if the profile defines it.
func (p Profile) Lookup(capability string) (Descriptor, bool) {
	d, ok := p.Packages[capability]
	return d, ok
}

// Capabilities returns the capability names defined by p, sorted.
func (p Profile) Capabilities() []string {
	names := make([]string, 0, len(p.Packages))
	for name := range p.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PackageNames returns the set of package names p sources.
func (p Profile) PackageNames() map[string]struct{} {
	names := make(map[string]struct{}, len(p.Packages))
	for _, d := range p.Packages {
		names[d.Name] = struct{}{}
	}
	return names
}

// Collect returns the descriptors for capability across profiles, in
// profile order, skipping profiles that do not define it.
func Collect(profiles []Profile, capability string) []Descriptor {
	var out []Descriptor
	for _, p := range profiles {
		if d, ok := p.Lookup(capability); ok {
			out = append(out, d)
		}
	}
	return out
}

// Sources returns every package name sourced by any of profiles.
func Sources(profiles []Profile) map[string]struct{} {
	names := make(map[string]struct{})
	for _, p := range profiles {
		for name := range p.PackageNames() {
			names[name] = struct{}{}
		}
	}
	return names
}

// HostVersions returns the host versions of profiles, in order.
func HostVersions(profiles []Profile) []string {
	out := make([]string, len(profiles))
	for i, p := range profiles {
		out[i] = p.HostVersion
	}
	return out
}
