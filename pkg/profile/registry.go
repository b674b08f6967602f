package profile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/leapstack-labs/depcheck/pkg/semver"
)

// ErrNoApplicableProfiles is returned when a host version filter leaves no
// profile. No host platform version can be supported in that case.
var ErrNoApplicableProfiles = errors.New("no applicable profiles")

// Registry is an ordered, read-only collection of profiles.
type Registry struct {
	profiles []Profile
}

// NewRegistry sorts profiles by ascending host version. Two profiles for the
// same host version are rejected.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	sorted := make([]Profile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return semver.Compare(sorted[i].version, sorted[j].version) < 0
	})
	for i := 1; i < len(sorted); i++ {
		if semver.Compare(sorted[i-1].version, sorted[i].version) == 0 {
			return nil, fmt.Errorf("duplicate profile for host version %s", sorted[i].HostVersion)
		}
	}
	return &Registry{profiles: sorted}, nil
}

// Merge returns a registry with overrides replacing profiles of the same
// host version and adding the rest.
func Merge(base *Registry, overrides ...Profile) (*Registry, error) {
	var merged []Profile
	for _, p := range base.Profiles() {
		replaced := false
		for _, o := range overrides {
			if semver.Compare(p.version, o.version) == 0 {
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, p)
		}
	}
	merged = append(merged, overrides...)
	return NewRegistry(merged...)
}

// Profiles returns a copy of the ordered profile list.
func (r *Registry) Profiles() []Profile {
	if r == nil {
		return nil
	}
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Len returns the number of profiles.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.profiles)
}

// Select returns the profiles whose host version satisfies constraint.
func (r *Registry) Select(constraint string) ([]Profile, error) {
	c, err := semver.ParseConstraint(constraint)
	if err != nil {
		return nil, err
	}
	return Applicable(r.Profiles(), c)
}

// Applicable keeps the profiles whose host version satisfies c, preserving
// order. An empty result is ErrNoApplicableProfiles.
func Applicable(profiles []Profile, c semver.Constraint) ([]Profile, error) {
	var out []Profile
	for _, p := range profiles {
		if semver.Satisfies(p.version, c) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: host version %q matches none of %v", ErrNoApplicableProfiles, c.String(), HostVersions(profiles))
	}
	return out, nil
}
