// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/tapedeck/internal/domain/track"

// NoCursor marks an inactive cursor (empty playlist).
const NoCursor = -1

// Playlist is an ordered, replaceable collection of tracks.
type Playlist struct {
	Tracks []track.Track // Tracks in insertion order
}

// New creates a playlist holding the given tracks.
func New(tracks []track.Track) *Playlist {
	return &Playlist{Tracks: tracks}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Tracks)
}

// IsEmpty returns true if the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return p.Len() == 0
}

// At returns the track at index i.
func (p *Playlist) At(i int) (track.Track, bool) {
	if i < 0 || i >= p.Len() {
		return track.Track{}, false
	}
	return p.Tracks[i], true
}

// Handles returns the source handles of all tracks.
func (p *Playlist) Handles() []track.Handle {
	handles := make([]track.Handle, p.Len())
	for i, t := range p.Tracks {
		handles[i] = t.Source
	}
	return handles
}

// Titles returns the titles of all tracks.
func (p *Playlist) Titles() []string {
	titles := make([]string, p.Len())
	for i, t := range p.Tracks {
		titles[i] = t.Title
	}
	return titles
}

// NextIndex returns the index after cursor, wrapping to the first track.
// Returns NoCursor for an empty playlist.
func (p *Playlist) NextIndex(cursor int) int {
	n := p.Len()
	if n == 0 {
		return NoCursor
	}
	return mod(cursor+1, n)
}

// PrevIndex returns the index before cursor, wrapping to the last track.
// Returns NoCursor for an empty playlist.
func (p *Playlist) PrevIndex(cursor int) int {
	n := p.Len()
	if n == 0 {
		return NoCursor
	}
	return mod(cursor-1+n, n)
}

// ShuffleIndex picks an index uniformly from [0, Len) excluding cursor.
// intn must return a value in [0, n). With a single track the cursor is returned.
func (p *Playlist) ShuffleIndex(cursor int, intn func(n int) int) int {
	n := p.Len()
	switch {
	case n == 0:
		return NoCursor
	case n == 1:
		return 0
	}

	if cursor < 0 || cursor >= n {
		return intn(n)
	}

	// Draw from the n-1 other slots and shift past the cursor.
	idx := intn(n - 1)
	if idx >= cursor {
		idx++
	}
	return idx
}

// mod returns a non-negative remainder.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
