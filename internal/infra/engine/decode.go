package engine

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"

	"github.com/osa030/tapedeck/internal/domain/track"
)

// ErrUnsupportedFormat is returned for files no decoder accepts.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

type decodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decodersByExt = map[string]decodeFunc{
	".mp3":  mp3.Decode,
	".ogg":  vorbis.Decode,
	".oga":  vorbis.Decode,
	".wav":  func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(rc) },
	".wave": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(rc) },
	".flac": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(rc) },
}

var decodersByMIME = map[string]string{
	"audio/mpeg":   ".mp3",
	"audio/mp3":    ".mp3",
	"audio/ogg":    ".ogg",
	"audio/vorbis": ".ogg",
	"audio/wav":    ".wav",
	"audio/x-wav":  ".wav",
	"audio/wave":   ".wav",
	"audio/flac":   ".flac",
	"audio/x-flac": ".flac",
}

// Supported reports whether a decoder exists for the file.
func Supported(f track.File) bool {
	_, ok := decoderFor(f)
	return ok
}

// SupportedExtensions lists the file extensions the engine can decode.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(decodersByExt))
	for ext := range decodersByExt {
		exts = append(exts, ext)
	}
	return exts
}

func decoderFor(f track.File) (decodeFunc, bool) {
	if dec, ok := decodersByExt[strings.ToLower(filepath.Ext(f.Path))]; ok {
		return dec, true
	}
	mimeType, _, _ := strings.Cut(f.MIMEType, ";")
	if ext, ok := decodersByMIME[strings.TrimSpace(mimeType)]; ok {
		return decodersByExt[ext], true
	}
	return nil, false
}

// decode opens the file and returns a seekable stream. The caller owns the stream.
func decode(f track.File) (beep.StreamSeekCloser, beep.Format, error) {
	dec, ok := decoderFor(f)
	if !ok {
		return nil, beep.Format{}, errors.Wrapf(ErrUnsupportedFormat, "path=%s mime=%s", f.Path, f.MIMEType)
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, beep.Format{}, errors.Wrapf(err, "failed to open %s", f.Path)
	}

	stream, format, err := dec(file)
	if err != nil {
		file.Close()
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", f.Path)
	}
	return stream, format, nil
}
