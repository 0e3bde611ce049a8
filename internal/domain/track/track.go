// Package track provides the Track domain entity.
package track

import (
	"path/filepath"
	"strings"
)

const (
	DefaultArtist  = "Unknown Artist"               // Shown when no artist is known
	DefaultArtwork = "assets/default-album-art.jpg" // Placeholder artwork reference
)

// Handle is an opaque reference to decodable audio data.
// Handles are issued by a source registry and are only meaningful to it.
type Handle string

// File represents a user-selected audio file that passed the selection filters.
type File struct {
	Path     string // Absolute or user-supplied path
	Name     string // Base name including extension
	MIMEType string // Detected MIME type (may be empty if undetected)
	Size     int64  // Size in bytes
}

// Track represents one playable item of a playlist.
// Tracks are immutable once created.
type Track struct {
	Title   string // Derived from the file name
	Artist  string // Artist name (placeholder)
	Source  Handle // Decodable source reference
	Artwork string // Artwork reference (placeholder)
}

// Defaults holds the placeholder values applied to new tracks.
type Defaults struct {
	Artist  string
	Artwork string
}

// New creates a track for the given file and source handle.
func New(f File, source Handle, d Defaults) Track {
	artist := d.Artist
	if artist == "" {
		artist = DefaultArtist
	}
	artwork := d.Artwork
	if artwork == "" {
		artwork = DefaultArtwork
	}

	name := f.Name
	if name == "" {
		name = filepath.Base(f.Path)
	}

	return Track{
		Title:   TitleFromName(name),
		Artist:  artist,
		Source:  source,
		Artwork: artwork,
	}
}

// TitleFromName strips the last dot-delimited suffix from a file name.
// A leading dot is not treated as a suffix separator, so ".hidden" stays as is.
func TitleFromName(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name
	}
	return name[:idx]
}

// NewFile builds a File from a path, filling in the base name.
func NewFile(path, mimeType string, size int64) File {
	return File{
		Path:     path,
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Size:     size,
	}
}
