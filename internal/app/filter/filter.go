// Package filter provides the filter chain for file selection.
package filter

import (
	"context"
	"io/fs"
	"sort"
)

// Origin tells how a candidate entered the selection.
type Origin int

const (
	OriginExplicit   Origin = iota // Named directly by the user
	OriginDiscovered               // Found while walking a directory
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginExplicit:
		return "explicit"
	case OriginDiscovered:
		return "discovered"
	default:
		return "unknown"
	}
}

// Candidate represents a file to be validated.
type Candidate struct {
	Path     string
	Info     fs.FileInfo
	MIMEType string
	Origin   Origin
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "unsupported_type", "hidden_file", "size_limit_exceeded"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for selection filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to candidates of the given origin.
	AppliesTo(origin Origin) bool
	// Check performs the filter check.
	Check(ctx context.Context, c Candidate) Result
}

// Resetter is implemented by filters that keep state for one selection.
type Resetter interface {
	Reset()
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}

// RegisteredNames returns the registered filter names in sorted order.
func RegisteredNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
