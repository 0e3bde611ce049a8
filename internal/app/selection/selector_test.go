package selection

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tapedeck/internal/app/filter"
)

// fakeDetect maps extensions to MIME types without reading content.
func fakeDetect(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	default:
		return "text/plain"
	}
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func newSelector(recursive bool) *Selector {
	chain := filter.NewChain()
	chain.Add(filter.NewAudioTypeFilter([]string{"audio/*"}))
	chain.Add(&filter.HiddenFileFilter{})
	chain.Add(filter.NewDuplicatePathFilter())

	s := NewSelector(chain, recursive)
	s.detect = fakeDetect
	return s
}

func names(result Result) []string {
	out := make([]string, len(result.Files))
	for i, f := range result.Files {
		out[i] = f.Name
	}
	return out
}

func TestSelector_ExplicitFilesKeepOrder(t *testing.T) {
	dir := t.TempDir()
	c := touch(t, filepath.Join(dir, "c.mp3"))
	a := touch(t, filepath.Join(dir, "a.wav"))
	b := touch(t, filepath.Join(dir, "b.flac"))

	result, err := newSelector(true).Select(context.Background(), []string{c, a, b})

	require.NoError(t, err)
	assert.Equal(t, []string{"c.mp3", "a.wav", "b.flac"}, names(result))
	assert.Equal(t, "audio/mpeg", result.Files[0].MIMEType)
	assert.Equal(t, int64(1), result.Files[0].Size)
	assert.Empty(t, result.Rejected)
}

func TestSelector_Directory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.mp3"))
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "cover.jpg"))
	touch(t, filepath.Join(dir, ".hidden.mp3"))
	touch(t, filepath.Join(dir, "disc2", "c.mp3"))

	t.Run("recursive", func(t *testing.T) {
		result, err := newSelector(true).Select(context.Background(), []string{dir})

		require.NoError(t, err)
		assert.Equal(t, []string{"a.mp3", "b.mp3", "c.mp3"}, names(result))

		codes := map[string]string{}
		for _, r := range result.Rejected {
			codes[filepath.Base(r.Path)] = r.Code
		}
		assert.Equal(t, "unsupported_type", codes["cover.jpg"])
		assert.Equal(t, "hidden_file", codes[".hidden.mp3"])
	})

	t.Run("flat", func(t *testing.T) {
		result, err := newSelector(false).Select(context.Background(), []string{dir})

		require.NoError(t, err)
		assert.Equal(t, []string{"a.mp3", "b.mp3"}, names(result))
	})
}

func TestSelector_ExplicitHiddenFileAccepted(t *testing.T) {
	dir := t.TempDir()
	hidden := touch(t, filepath.Join(dir, ".intro.mp3"))

	result, err := newSelector(true).Select(context.Background(), []string{hidden})

	require.NoError(t, err)
	assert.Equal(t, []string{".intro.mp3"}, names(result))
}

func TestSelector_Duplicates(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "b.mp3"))

	s := newSelector(true)
	result, err := s.Select(context.Background(), []string{a, dir})

	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3", "b.mp3"}, names(result))
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "duplicate_path", result.Rejected[0].Code)

	again, err := s.Select(context.Background(), []string{a})
	require.NoError(t, err)
	assert.Len(t, again.Files, 1, "duplicate state does not leak across selections")
}

func TestSelector_MissingPath(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.mp3"))
	missing := filepath.Join(dir, "missing.mp3")

	result, err := newSelector(true).Select(context.Background(), []string{missing, a})

	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3"}, names(result))
	assert.Equal(t, []Rejection{{Path: missing, Code: CodeNotFound}}, result.Rejected)
}

func TestSelector_NoFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "notes.txt"))

	tests := []struct {
		name  string
		paths []string
	}{
		{name: "nothing given", paths: nil},
		{name: "nothing accepted", paths: []string{dir}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newSelector(true).Select(context.Background(), tt.paths)

			assert.True(t, errors.Is(err, ErrNoFiles))
			assert.Empty(t, result.Files)
		})
	}
}

func TestSelector_Cancelled(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.mp3"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSelector(true).Select(ctx, []string{a})

	assert.True(t, errors.Is(err, context.Canceled))
}
