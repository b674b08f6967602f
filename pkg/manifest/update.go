package manifest

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/depcheck/pkg/profile"
	"github.com/leapstack-labs/depcheck/pkg/resolve"
	"github.com/leapstack-labs/depcheck/pkg/semver"
)

// UpdateOptions tunes UpdatePackageManifest.
type UpdateOptions struct {
	// RuntimeCutoff is the local toolchain runtime version that must still be
	// supported. Descriptors whose runtime constraint it does not satisfy are
	// ignored. The zero value disables the cutoff.
	RuntimeCutoff semver.Version
}

// UpdateDependencies returns existing with every package in resolved set to
// its version under mode. Other keys are carried through unchanged.
//
// Descriptors rejected by cutoff are ignored, as are dev-only descriptors
// outside Development mode. A package left without descriptors is treated as
// absent and keeps whatever value existing already had.
func UpdateDependencies(existing Bucket, resolved map[string][]profile.Descriptor, mode resolve.Mode, cutoff semver.Version) Bucket {
	out := make(Bucket, len(existing)+len(resolved))
	for k, v := range existing {
		out[k] = v
	}
	for name, descriptors := range resolved {
		usable := applicableDescriptors(descriptors, mode, cutoff)
		if len(usable) == 0 {
			continue
		}
		out[name] = resolve.Resolve(usable, mode)
	}
	return out
}

func applicableDescriptors(descriptors []profile.Descriptor, mode resolve.Mode, cutoff semver.Version) []profile.Descriptor {
	out := make([]profile.Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.DevOnly && mode != resolve.Development {
			continue
		}
		if !cutoff.IsZero() && d.Runtime != "" {
			c, err := semver.ParseConstraint(d.Runtime)
			if err != nil || !semver.Satisfies(cutoff, c) {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

// UpdatePackageManifest computes the three dependency buckets of m for the
// given required capabilities.
//
// all is every profile the package supports; applicable is the subset that
// must be exercised locally. Pins come from applicable, peer ranges span all.
// Packages sourced by any profile but no longer required are removed from
// every bucket; keys no profile knows about are left alone.
func UpdatePackageManifest(m Manifest, capabilities []string, all, applicable []profile.Profile, kind Kind, opts UpdateOptions) (Buckets, error) {
	policy, ok := placements[kind]
	if !ok {
		return Buckets{}, fmt.Errorf("unknown package kind %q", kind)
	}
	if len(applicable) == 0 {
		return Buckets{}, fmt.Errorf("%w: nothing left to resolve against", ErrNoApplicableProfiles)
	}

	pkgs, err := collectPackages(capabilities, all, applicable)
	if err != nil {
		return Buckets{}, err
	}
	stale := staleKeys(pkgs, all, applicable)

	in := m.Buckets()
	var out Buckets
	for _, id := range bucketIDs {
		b := RemoveKeys(in.get(id), stale...)
		b = RemoveKeys(b, pkgs.namesOutside(policy.classesFor(id))...)
		for _, a := range policy.assignments {
			if a.bucket != id {
				continue
			}
			resolved := pkgs.descriptors(a.class, a.span)
			if len(resolved) == 0 {
				continue
			}
			b = UpdateDependencies(b, resolved, a.mode, opts.RuntimeCutoff)
		}
		out.set(id, b)
	}
	return out, nil
}

// resolvedPackage is one package derived from the required capabilities.
type resolvedPackage struct {
	name       string
	class      packageClass
	applicable []profile.Descriptor
	all        []profile.Descriptor
}

type packageSet map[string]*resolvedPackage

func collectPackages(capabilities []string, all, applicable []profile.Profile) (packageSet, error) {
	caps := append([]string(nil), capabilities...)
	sort.Strings(caps)

	pkgs := make(packageSet, len(caps))
	for _, capability := range caps {
		found := profile.Collect(applicable, capability)
		if len(found) == 0 {
			return nil, &MissingCapabilityError{
				Capability:   capability,
				HostVersions: profile.HostVersions(applicable),
			}
		}
		newest := found[len(found)-1]
		name := packageName(capability, newest)
		if _, ok := pkgs[name]; ok {
			// Several capabilities can map to one package (core-ios and
			// core-android both mean react-native); first one wins.
			continue
		}
		class := runtimePackage
		if newest.DevOnly {
			class = devOnlyPackage
		}
		pkgs[name] = &resolvedPackage{
			name:       name,
			class:      class,
			applicable: found,
			all:        profile.Collect(all, capability),
		}
	}
	return pkgs, nil
}

func packageName(capability string, d profile.Descriptor) string {
	if d.Name == "" {
		return capability
	}
	return d.Name
}

// descriptors returns the descriptor lists of every package of class, over
// the requested profile span.
func (s packageSet) descriptors(class packageClass, sp span) map[string][]profile.Descriptor {
	out := make(map[string][]profile.Descriptor)
	for name, p := range s {
		if p.class != class {
			continue
		}
		list := p.applicable
		if sp == spanAll {
			list = p.all
		}
		if len(list) == 0 {
			continue
		}
		out[name] = list
	}
	return out
}

// namesOutside returns the derived package names whose class is not in keep.
func (s packageSet) namesOutside(keep map[packageClass]bool) []string {
	var out []string
	for name, p := range s {
		if !keep[p.class] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// staleKeys returns the package names sourced by the profiles that the
// required capabilities no longer produce.
func staleKeys(pkgs packageSet, all, applicable []profile.Profile) []string {
	sources := profile.Sources(all)
	for name := range profile.Sources(applicable) {
		sources[name] = struct{}{}
	}
	var out []string
	for name := range sources {
		if _, ok := pkgs[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
