package notification

import (
	"github.com/osa030/tapedeck/internal/app/playback"
)

// Kind identifies which display field an update changes.
type Kind int

const (
	KindTrack Kind = iota
	KindElapsed
	KindTotal
	KindProgress
	KindPlayGlyph
	KindShuffle
	KindRepeat
	KindVolume
	KindStatus
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindElapsed:
		return "elapsed"
	case KindTotal:
		return "total"
	case KindProgress:
		return "progress"
	case KindPlayGlyph:
		return "play_glyph"
	case KindShuffle:
		return "shuffle"
	case KindRepeat:
		return "repeat"
	case KindVolume:
		return "volume"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Update is one numbered change to the display.
// Only the fields relevant to Kind are set.
type Update struct {
	SequenceNo uint64
	Kind       Kind

	Title   string
	Artist  string
	Artwork string

	Text     string // Elapsed, total or status text
	Progress float64
	Glyph    playback.Glyph
	Active   bool
	Volume   int
}

// View is the full display state built from updates.
type View struct {
	Title    string
	Artist   string
	Artwork  string
	Elapsed  string
	Total    string // Empty while the duration is unknown
	Progress float64
	Glyph    playback.Glyph
	Shuffle  bool
	Repeat   bool
	Volume   int
	Status   string

	SequenceNo uint64
}

// Apply folds an update into the view.
func (v *View) Apply(u Update) {
	v.apply(u)
}

func (v *View) apply(u Update) {
	switch u.Kind {
	case KindTrack:
		v.Title, v.Artist, v.Artwork = u.Title, u.Artist, u.Artwork
	case KindElapsed:
		v.Elapsed = u.Text
	case KindTotal:
		v.Total = u.Text
	case KindProgress:
		v.Progress = u.Progress
	case KindPlayGlyph:
		v.Glyph = u.Glyph
	case KindShuffle:
		v.Shuffle = u.Active
	case KindRepeat:
		v.Repeat = u.Active
	case KindVolume:
		v.Volume = u.Volume
	case KindStatus:
		v.Status = u.Text
	}
	if u.SequenceNo > v.SequenceNo {
		v.SequenceNo = u.SequenceNo
	}
}
