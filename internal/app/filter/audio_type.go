package filter

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	zlog "github.com/rs/zerolog/log"
)

const octetStream = "application/octet-stream"

// typesByExt is consulted when sniffing the content is inconclusive.
var typesByExt = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".wave": "audio/wav",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".opus": "audio/opus",
}

// AudioTypeFilter accepts candidates whose MIME type matches one of the
// accept patterns ("audio/*", "audio/mpeg", ...).
type AudioTypeFilter struct {
	accept []string
}

// NewAudioTypeFilter creates a new audio type filter.
func NewAudioTypeFilter(accept []string) *AudioTypeFilter {
	return &AudioTypeFilter{accept: accept}
}

func (f *AudioTypeFilter) Name() string {
	return "audio_type_filter"
}

func (f *AudioTypeFilter) Description() string {
	return "Rejects files whose content type does not match the accepted patterns"
}

func (f *AudioTypeFilter) ReturnCodes() []string {
	return []string{"unsupported_type"}
}

func (f *AudioTypeFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *AudioTypeFilter) AppliesTo(origin Origin) bool {
	return true
}

func (f *AudioTypeFilter) Check(ctx context.Context, c Candidate) Result {
	if MatchesAny(c.MIMEType, f.accept) {
		return Accept()
	}
	return Reject("unsupported_type")
}

// MatchesAny reports whether mimeType matches any of the patterns.
// A pattern ending in "/*" matches the whole top-level type.
func MatchesAny(mimeType string, patterns []string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" {
		return false
	}

	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			if strings.HasPrefix(base, prefix+"/") {
				return true
			}
			continue
		}
		if p == "*" || p == base {
			return true
		}
	}
	return false
}

// DetectMIME sniffs the content type of a file. When the content gives no
// answer the extension is used instead.
func DetectMIME(path string) string {
	detected := octetStream
	m, err := mimetype.DetectFile(path)
	if err != nil {
		zlog.Debug().Err(err).Msgf("filter: mime detection failed: path=%s", path)
	} else {
		detected = m.String()
	}

	base, _, _ := strings.Cut(detected, ";")
	if base != octetStream && base != "text/plain" {
		return detected
	}
	if byExt, ok := typesByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return byExt
	}
	return detected
}
