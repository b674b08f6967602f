// Package resolve collapses the per-profile versions of one capability into
// the single version or range written into a manifest.
package resolve

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/depcheck/pkg/profile"
)

// Mode is the policy used to collapse a capability's version list.
type Mode int

const (
	// Direct pins the version required by the newest supported host version.
	Direct Mode = iota
	// Development pins the version required by the oldest supported host
	// version, so local builds exercise the most conservative version.
	Development
	// Peer spans every distinct version from oldest to newest.
	Peer
)

// RangeSeparator joins the versions of a peer range.
const RangeSeparator = " || "

var modeNames = [...]string{
	Direct:      "direct",
	Development: "development",
	Peer:        "peer",
}

var resolvers = [...]func([]profile.Descriptor) string{
	Direct:      newest,
	Development: oldest,
	Peer:        widest,
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Modes returns every resolution mode.
func Modes() []Mode {
	return []Mode{Direct, Development, Peer}
}

// ParseMode parses a mode name as printed by String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resolution mode %q (want one of %s)", s, strings.Join(modeNames[:], ", "))
}

// Resolve returns the version expression for descriptors under mode.
// descriptors must be non-empty and ordered by ascending host version;
// violating that is a programming error and panics.
func Resolve(descriptors []profile.Descriptor, mode Mode) string {
	if len(descriptors) == 0 {
		panic("resolve: empty descriptor list")
	}
	if mode < 0 || int(mode) >= len(resolvers) {
		panic(fmt.Sprintf("resolve: invalid mode %d", int(mode)))
	}
	return resolvers[mode](descriptors)
}

func newest(descriptors []profile.Descriptor) string {
	return descriptors[len(descriptors)-1].Version
}

func oldest(descriptors []profile.Descriptor) string {
	return descriptors[0].Version
}

func widest(descriptors []profile.Descriptor) string {
	seen := make(map[string]struct{}, len(descriptors))
	versions := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		if _, ok := seen[d.Version]; ok {
			continue
		}
		seen[d.Version] = struct{}{}
		versions = append(versions, d.Version)
	}
	return strings.Join(versions, RangeSeparator)
}
