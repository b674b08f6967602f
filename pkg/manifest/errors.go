package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/depcheck/pkg/profile"
)

var (
	// ErrDataIntegrity means the compatibility profiles are incomplete for
	// the requested capabilities. Retrying cannot help.
	ErrDataIntegrity = errors.New("compatibility data incomplete")

	// ErrNoApplicableProfiles is profile.ErrNoApplicableProfiles, re-exported
	// for callers that only import this package.
	ErrNoApplicableProfiles = profile.ErrNoApplicableProfiles
)

// MissingCapabilityError reports a required capability that no applicable
// profile defines.
type MissingCapabilityError struct {
	Capability   string
	HostVersions []string
}

func (e *MissingCapabilityError) Error() string {
	return fmt.Sprintf("capability %q is not defined by any applicable profile (host versions: %s)",
		e.Capability, strings.Join(e.HostVersions, ", "))
}

func (e *MissingCapabilityError) Unwrap() error { return ErrDataIntegrity }
