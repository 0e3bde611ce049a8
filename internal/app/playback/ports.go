package playback

import (
	"time"

	"github.com/osa030/tapedeck/internal/domain/track"
)

// Engine is the host media primitive that decodes and plays audio.
// Implementations report back only through the notifier registered with Notify.
type Engine interface {
	// Load points the engine at a source. Duration is unknown until
	// EventMetadataReady is delivered for that source.
	Load(source track.Handle) error
	Play()
	Pause()
	// Seek moves the playback position of the loaded source.
	Seek(position time.Duration)
	// SetVolume sets the output level in [0, 1].
	SetVolume(level float64)
	CurrentTime() time.Duration
	// Duration returns the loaded source's duration and whether it is known.
	Duration() (time.Duration, bool)
	// Notify registers the receiver of engine notifications.
	Notify(fn func(Event))
	Close() error
}

// Display receives presentation updates.
type Display interface {
	SetTrack(title, artist, artwork string)
	SetElapsed(text string)
	// SetTotal sets the total time text. An empty string clears it.
	SetTotal(text string)
	SetProgress(percent float64)
	SetPlayGlyph(g Glyph)
	SetShuffleActive(active bool)
	SetRepeatActive(active bool)
	SetVolume(level int)
	SetStatus(text string)
}

// Sources issues and revokes handles to decodable data.
type Sources interface {
	Acquire(f track.File) (track.Handle, error)
	Release(h track.Handle)
}
