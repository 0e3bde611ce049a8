package filter

import (
	"context"
	"path/filepath"
	"sync"
)

// DuplicatePathFilter rejects files already accepted in the same selection.
// Detects:
// - The same path named twice
// - Relative and absolute spellings of one path
// - Symlinks resolving to an accepted file
type DuplicatePathFilter struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDuplicatePathFilter creates a new duplicate path filter.
func NewDuplicatePathFilter() *DuplicatePathFilter {
	return &DuplicatePathFilter{
		seen: make(map[string]struct{}),
	}
}

func (f *DuplicatePathFilter) Name() string {
	return "duplicate_path_filter"
}

func (f *DuplicatePathFilter) Description() string {
	return "Rejects files that were already selected in the same selection"
}

func (f *DuplicatePathFilter) ReturnCodes() []string {
	return []string{"duplicate_path"}
}

func (f *DuplicatePathFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *DuplicatePathFilter) AppliesTo(origin Origin) bool {
	return true
}

func (f *DuplicatePathFilter) Check(ctx context.Context, c Candidate) Result {
	key := canonicalPath(c.Path)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[key]; ok {
		return Reject("duplicate_path")
	}
	f.seen[key] = struct{}{}
	return Accept()
}

// Reset forgets the files seen so far.
func (f *DuplicatePathFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.seen)
}

// canonicalPath resolves symlinks and makes the path absolute.
// Falls back to the cleaned path when resolution fails.
func canonicalPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func init() {
	Register("duplicate_path_filter", func() Filter {
		return NewDuplicatePathFilter()
	})
}
