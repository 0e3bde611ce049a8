package filter

import (
	"context"
	"path/filepath"
	"strings"
)

// HiddenFileFilter skips dot files found while walking directories.
// Files the user names explicitly are never rejected.
type HiddenFileFilter struct{}

func (f *HiddenFileFilter) Name() string {
	return "hidden_file_filter"
}

func (f *HiddenFileFilter) Description() string {
	return "Skips hidden files found during directory walks"
}

func (f *HiddenFileFilter) ReturnCodes() []string {
	return []string{"hidden_file"}
}

func (f *HiddenFileFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *HiddenFileFilter) AppliesTo(origin Origin) bool {
	return origin == OriginDiscovered
}

func (f *HiddenFileFilter) Check(ctx context.Context, c Candidate) Result {
	if strings.HasPrefix(filepath.Base(c.Path), ".") {
		return Reject("hidden_file")
	}
	return Accept()
}

func init() {
	Register("hidden_file_filter", func() Filter {
		return &HiddenFileFilter{}
	})
}
