// Package manifest updates the dependency buckets of a package manifest
// from the compatibility profiles.
//
// Every function in this package is pure: inputs are never modified and each
// returned bucket is a fresh map. Bucket keys are kept in sorted order when
// encoded (see Document.Encode), so repeated runs produce identical output.
package manifest

import (
	"fmt"
	"sort"
	"strings"
)

// KitField is the package.json field holding depcheck's per-package settings.
const KitField = "depcheck"

// Bucket maps package names to version strings. A nil Bucket means the
// manifest does not declare the bucket at all.
type Bucket map[string]string

// Keys returns the bucket's package names in ascending order.
func (b Bucket) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of b; nil stays nil.
func (b Bucket) Clone() Bucket {
	if b == nil {
		return nil
	}
	out := make(Bucket, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Buckets groups the three dependency classifications of a manifest.
type Buckets struct {
	Dependencies     Bucket `json:"dependencies,omitempty"`
	DevDependencies  Bucket `json:"devDependencies,omitempty"`
	PeerDependencies Bucket `json:"peerDependencies,omitempty"`
}

// Manifest is the typed view of a package.json.
type Manifest struct {
	Name             string `json:"name"`
	Version          string `json:"version"`
	Dependencies     Bucket `json:"dependencies,omitempty"`
	DevDependencies  Bucket `json:"devDependencies,omitempty"`
	PeerDependencies Bucket `json:"peerDependencies,omitempty"`
	Kit              *Kit   `json:"depcheck,omitempty"`
}

// Buckets returns copies of the manifest's dependency buckets.
func (m Manifest) Buckets() Buckets {
	return Buckets{
		Dependencies:     m.Dependencies.Clone(),
		DevDependencies:  m.DevDependencies.Clone(),
		PeerDependencies: m.PeerDependencies.Clone(),
	}
}

// Kit holds the per-package settings read from the depcheck field.
type Kit struct {
	Kind           Kind     `json:"kind,omitempty"`
	Capabilities   []string `json:"capabilities,omitempty"`
	HostVersion    string   `json:"hostVersion,omitempty"`
	DevHostVersion string   `json:"devHostVersion,omitempty"`
}

// Kind says whether a package is deployed as an application or consumed as
// a library. It decides which buckets receive capability versions.
type Kind string

const (
	KindApp     Kind = "app"
	KindLibrary Kind = "library"
)

// Kinds returns every package kind.
func Kinds() []Kind {
	return []Kind{KindApp, KindLibrary}
}

// ParseKind validates a package kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := placements[k]; !ok {
		return "", fmt.Errorf("unknown package kind %q (want app or library)", s)
	}
	return k, nil
}
