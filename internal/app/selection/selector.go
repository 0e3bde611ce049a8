// Package selection turns user supplied paths into an ordered list of audio files.
package selection

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tapedeck/internal/app/filter"
	"github.com/osa030/tapedeck/internal/domain/track"
)

// ErrNoFiles is returned when nothing in a selection passed the filters.
var ErrNoFiles = errors.New("no playable files selected")

// CodeNotFound is recorded for paths that cannot be read.
const CodeNotFound = "not_found"

// Rejection records why a path was left out.
type Rejection struct {
	Path string
	Code string
}

// Result holds the outcome of one selection.
type Result struct {
	Files    []track.File
	Rejected []Rejection
}

// Selector expands paths and runs every candidate through a filter chain.
// Selections must not run concurrently on the same Selector.
type Selector struct {
	chain     *filter.Chain
	recursive bool
	detect    func(path string) string
}

// NewSelector creates a selector. Directories are walked recursively when
// recursive is set, otherwise only their direct entries are considered.
func NewSelector(chain *filter.Chain, recursive bool) *Selector {
	return &Selector{
		chain:     chain,
		recursive: recursive,
		detect:    filter.DetectMIME,
	}
}

// Select expands the paths in order. Files named directly keep their
// position; directory entries follow in lexical order.
func (s *Selector) Select(ctx context.Context, paths []string) (Result, error) {
	s.chain.Reset()

	var result Result
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrap(err, "selection cancelled")
		}

		info, err := os.Stat(path)
		if err != nil {
			zlog.Warn().Err(err).Msgf("selection: cannot read path: path=%s", path)
			result.Rejected = append(result.Rejected, Rejection{Path: path, Code: CodeNotFound})
			continue
		}

		if !info.IsDir() {
			s.consider(ctx, &result, path, info, filter.OriginExplicit)
			continue
		}

		if err := s.walk(ctx, &result, path); err != nil {
			return result, err
		}
	}

	zlog.Info().Msgf("selection: done: accepted=%d rejected=%d", len(result.Files), len(result.Rejected))
	if len(result.Files) == 0 {
		return result, ErrNoFiles
	}
	return result, nil
}

func (s *Selector) walk(ctx context.Context, result *Result, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			zlog.Warn().Err(err).Msgf("selection: walk error: path=%s", path)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, "selection cancelled")
		}

		if d.IsDir() {
			if path != root && !s.recursive {
				return filepath.SkipDir
			}
			return nil
		}

		// Follow symlinks so linked files are treated like regular ones.
		info, statErr := os.Stat(path)
		if statErr != nil {
			zlog.Debug().Err(statErr).Msgf("selection: skipping unreadable entry: path=%s", path)
			result.Rejected = append(result.Rejected, Rejection{Path: path, Code: CodeNotFound})
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		s.consider(ctx, result, path, info, filter.OriginDiscovered)
		return nil
	})
}

func (s *Selector) consider(ctx context.Context, result *Result, path string, info fs.FileInfo, origin filter.Origin) {
	candidate := filter.Candidate{
		Path:     path,
		Info:     info,
		MIMEType: s.detect(path),
		Origin:   origin,
	}

	r := s.chain.Execute(ctx, candidate)
	if !r.Accepted {
		zlog.Debug().Msgf("selection: rejected: path=%s code=%s mime=%s origin=%s", path, r.Code, candidate.MIMEType, origin)
		result.Rejected = append(result.Rejected, Rejection{Path: path, Code: r.Code})
		return
	}

	result.Files = append(result.Files, track.NewFile(path, candidate.MIMEType, info.Size()))
}
