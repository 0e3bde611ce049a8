package playback

import "github.com/osa030/tapedeck/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	// User commands
	EventSelectFiles   EventType = iota // New file set selected
	EventTogglePlay                     // Play/pause control
	EventPrevious                       // Previous control
	EventNext                           // Next control
	EventSeek                           // Click on the progress bar
	EventSetVolume                      // Volume slider moved
	EventToggleShuffle                  // Shuffle control
	EventToggleRepeat                   // Repeat control

	// Engine notifications
	EventMetadataReady // Duration became known
	EventTimeUpdate    // Periodic position report while playing
	EventEnded         // Playback reached the end of the track
	EventLoadFailed    // Source could not be decoded
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventSelectFiles:
		return "select_files"
	case EventTogglePlay:
		return "toggle_play"
	case EventPrevious:
		return "previous"
	case EventNext:
		return "next"
	case EventSeek:
		return "seek"
	case EventSetVolume:
		return "set_volume"
	case EventToggleShuffle:
		return "toggle_shuffle"
	case EventToggleRepeat:
		return "toggle_repeat"
	case EventMetadataReady:
		return "metadata_ready"
	case EventTimeUpdate:
		return "time_update"
	case EventEnded:
		return "ended"
	case EventLoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// IsNotification returns true for events raised by the engine.
func (e EventType) IsNotification() bool {
	return e >= EventMetadataReady
}

// Event is a single input delivered to the controller.
// Only the fields relevant to Type are set.
type Event struct {
	Type   EventType
	Files  []track.File // EventSelectFiles
	X      float64      // EventSeek: click offset within the bar
	Width  float64      // EventSeek: bar width
	Level  float64      // EventSetVolume: 0..100
	Source track.Handle // Engine notifications: track the event refers to
	Err    error        // EventLoadFailed
}

// SelectFiles creates a file selection event.
func SelectFiles(files []track.File) Event {
	return Event{Type: EventSelectFiles, Files: files}
}

// Seek creates a progress-bar click event.
func Seek(x, width float64) Event {
	return Event{Type: EventSeek, X: x, Width: width}
}

// SetVolume creates a volume change event.
func SetVolume(level float64) Event {
	return Event{Type: EventSetVolume, Level: level}
}

// Command creates an event without payload.
func Command(t EventType) Event {
	return Event{Type: t}
}

// Notification creates an engine notification for the given source.
func Notification(t EventType, source track.Handle) Event {
	return Event{Type: t, Source: source}
}

// LoadFailed creates a load failure notification.
func LoadFailed(source track.Handle, err error) Event {
	return Event{Type: EventLoadFailed, Source: source, Err: err}
}
