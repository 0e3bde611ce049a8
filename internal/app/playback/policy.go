package playback

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// LoadFailurePolicy decides what happens when a source cannot be decoded.
type LoadFailurePolicy int

const (
	PolicyIgnore  LoadFailurePolicy = iota // Log and leave everything as is
	PolicySkip                             // Advance as Next does
	PolicySurface                          // Pause and show the error
)

// String returns the string representation of the policy.
func (p LoadFailurePolicy) String() string {
	switch p {
	case PolicyIgnore:
		return "ignore"
	case PolicySkip:
		return "skip"
	case PolicySurface:
		return "surface"
	default:
		return "unknown"
	}
}

// ParseLoadFailurePolicy converts a config string to a policy.
func ParseLoadFailurePolicy(s string) (LoadFailurePolicy, error) {
	switch strings.ToLower(s) {
	case "ignore", "":
		return PolicyIgnore, nil
	case "skip":
		return PolicySkip, nil
	case "surface":
		return PolicySurface, nil
	default:
		return PolicyIgnore, errors.Newf("unknown load failure policy: %q", s)
	}
}
