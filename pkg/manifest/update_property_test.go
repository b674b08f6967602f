//go:build property
// +build property

package manifest

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/leapstack-labs/depcheck/pkg/profile"
)

var propertyCapabilities = []string{"core", "core-ios", "react", "svg", "animation", "test-app"}

var propertyKeys = []string{
	"react", "react-native", "react-native-svg", "react-native-reanimated",
	"react-native-test-app", "lodash", "typescript", "invariant",
}

func pickCapabilities(idx []int) []string {
	var out []string
	for _, i := range idx {
		out = append(out, propertyCapabilities[i])
	}
	return out
}

func pickBucket(idx []int, values []string) Bucket {
	if len(idx) == 0 {
		return nil
	}
	b := make(Bucket, len(idx))
	for n, i := range idx {
		v := "1.0.0"
		if n < len(values) && values[n] != "" {
			v = values[n]
		}
		b[propertyKeys[i]] = v
	}
	return b
}

func propertyManifest(deps, dev, peer []int, values []string) Manifest {
	return Manifest{
		Dependencies:     pickBucket(deps, values),
		DevDependencies:  pickBucket(dev, values),
		PeerDependencies: pickBucket(peer, values),
	}
}

// encodedBucketKeys returns the keys of the top-level object field in the
// order they appear in data.
func encodedBucketKeys(data []byte, field string) ([]string, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		if tok != field {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, false
			}
			continue
		}
		if _, err := dec.Token(); err != nil {
			return nil, false
		}
		var keys []string
		for dec.More() {
			k, err := dec.Token()
			if err != nil {
				return nil, false
			}
			keys = append(keys, k.(string))
			var v string
			if err := dec.Decode(&v); err != nil {
				return nil, false
			}
		}
		return keys, true
	}
	return nil, false
}

func capabilityIndexes() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(propertyCapabilities)-1))
}

func keyIndexes() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(propertyKeys)-1))
}

func derivedNames(capabilities []string) map[string]profile.Descriptor {
	out := make(map[string]profile.Descriptor)
	for _, c := range capabilities {
		d, _ := p64.Lookup(c)
		out[d.Name] = d
	}
	return out
}

// TestUpdatePackageManifestIdempotent verifies a second update changes nothing.
func TestUpdatePackageManifestIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	for _, kind := range Kinds() {
		kind := kind
		properties.Property(string(kind)+" update is idempotent", prop.ForAll(
			func(caps, deps, dev, peer []int, values []string) bool {
				m := propertyManifest(deps, dev, peer, values)
				capabilities := pickCapabilities(caps)

				once, err := UpdatePackageManifest(m, capabilities, bothProfiles, bothProfiles, kind, UpdateOptions{})
				if err != nil {
					return false
				}
				m2 := m
				m2.Dependencies = once.Dependencies
				m2.DevDependencies = once.DevDependencies
				m2.PeerDependencies = once.PeerDependencies
				twice, err := UpdatePackageManifest(m2, capabilities, bothProfiles, bothProfiles, kind, UpdateOptions{})
				if err != nil {
					return false
				}
				return reflect.DeepEqual(once, twice)
			},
			capabilityIndexes(), keyIndexes(), keyIndexes(), keyIndexes(), gen.SliceOf(gen.AlphaString()),
		))
	}

	properties.TestingRun(t)
}

// TestUpdatePackageManifestNoMutation verifies inputs are left untouched.
func TestUpdatePackageManifestNoMutation(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("input buckets are unchanged", prop.ForAll(
		func(caps, deps, dev, peer []int, values []string) bool {
			m := propertyManifest(deps, dev, peer, values)
			snapshot := m.Buckets()

			out, err := UpdatePackageManifest(m, pickCapabilities(caps), bothProfiles, bothProfiles, KindLibrary, UpdateOptions{})
			if err != nil {
				return false
			}
			for _, b := range []Bucket{out.Dependencies, out.DevDependencies, out.PeerDependencies} {
				if b != nil {
					b["__probe__"] = "x"
				}
			}
			return reflect.DeepEqual(snapshot, m.Buckets())
		},
		capabilityIndexes(), keyIndexes(), keyIndexes(), keyIndexes(), gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestUpdatePackageManifestBucketRules checks app exclusivity and library
// duality for every derived package.
func TestUpdatePackageManifestBucketRules(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("apps declare a derived package in one bucket", prop.ForAll(
		func(caps, deps, dev, peer []int, values []string) bool {
			capabilities := pickCapabilities(caps)
			out, err := UpdatePackageManifest(propertyManifest(deps, dev, peer, values), capabilities, bothProfiles, bothProfiles, KindApp, UpdateOptions{})
			if err != nil {
				return false
			}
			for name := range derivedNames(capabilities) {
				seen := 0
				for _, b := range []Bucket{out.Dependencies, out.DevDependencies, out.PeerDependencies} {
					if _, ok := b[name]; ok {
						seen++
					}
				}
				if seen != 1 {
					return false
				}
			}
			return true
		},
		capabilityIndexes(), keyIndexes(), keyIndexes(), keyIndexes(), gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("libraries declare runtime packages as peer and dev", prop.ForAll(
		func(caps, deps, dev, peer []int, values []string) bool {
			capabilities := pickCapabilities(caps)
			out, err := UpdatePackageManifest(propertyManifest(deps, dev, peer, values), capabilities, bothProfiles, bothProfiles, KindLibrary, UpdateOptions{})
			if err != nil {
				return false
			}
			for name, d := range derivedNames(capabilities) {
				if _, ok := out.Dependencies[name]; ok {
					return false
				}
				if _, ok := out.DevDependencies[name]; !ok {
					return false
				}
				_, inPeer := out.PeerDependencies[name]
				if inPeer == d.DevOnly {
					return false
				}
			}
			return true
		},
		capabilityIndexes(), keyIndexes(), keyIndexes(), keyIndexes(), gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("encoded buckets list keys sorted", prop.ForAll(
		func(deps []int, values []string) bool {
			doc, err := ParseDocument([]byte(`{"name": "x", "version": "1.0.0"}`))
			if err != nil {
				return false
			}
			b := pickBucket(deps, values)
			updated, err := doc.Apply(Buckets{Dependencies: b})
			if err != nil {
				return false
			}
			out, err := updated.Encode()
			if err != nil {
				return false
			}
			keys, found := encodedBucketKeys(out, "dependencies")
			if len(b) == 0 {
				return !found
			}
			return found && len(keys) == len(b) && sort.StringsAreSorted(keys)
		},
		keyIndexes(), gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
