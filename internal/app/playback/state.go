// Package playback provides the playlist controller and its event dispatch.
package playback

// State represents the playback state.
type State int

const (
	StateEmpty   State = iota // No playlist selected
	StatePaused               // Track loaded, not playing
	StatePlaying              // Track loaded and playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Glyph is the icon shown on the play/pause control.
type Glyph int

const (
	GlyphPlay  Glyph = iota // Offer to start playback
	GlyphPause              // Offer to pause playback
)

// String returns the string representation of the glyph.
func (g Glyph) String() string {
	switch g {
	case GlyphPlay:
		return "play"
	case GlyphPause:
		return "pause"
	default:
		return "unknown"
	}
}
