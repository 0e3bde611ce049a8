package playback

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/osa030/tapedeck/internal/domain/playlist"
	"github.com/osa030/tapedeck/internal/domain/track"
	zlog "github.com/rs/zerolog/log"
)

// Config holds controller configuration.
type Config struct {
	Defaults      track.Defaults    // Placeholder artist and artwork for new tracks
	Volume        float64           // Initial volume, 0..100
	Shuffle       bool              // Initial shuffle flag
	Repeat        bool              // Initial repeat flag
	OnLoadFailure LoadFailurePolicy // What to do when a source cannot be decoded
	Rand          func(n int) int   // Shuffle source, rand.IntN when nil
}

// Status is a snapshot of the controller state.
type Status struct {
	State   State
	Cursor  int          // playlist.NoCursor when empty
	Len     int          // Number of tracks
	Track   *track.Track // Loaded track (nil when empty)
	Shuffle bool
	Repeat  bool
	Volume  float64 // 0..1
}

// Controller owns the playlist, the cursor and the playback flags.
//
// Controller is not safe for concurrent use: every call must come from the
// same goroutine, normally a Loop.
type Controller struct {
	engine  Engine
	display Display
	sources Sources
	config  Config

	playlist *playlist.Playlist
	cursor   int

	// Source currently loaded in the engine
	loaded           track.Handle
	awaitingMetadata bool

	playing bool
	shuffle bool
	repeat  bool
	volume  float64 // 0..1

	// Consecutive load failures under PolicySkip
	failures int
}

// NewController creates a controller with an empty playlist, applies the
// initial volume to the engine and renders the initial control state.
func NewController(engine Engine, display Display, sources Sources, config Config) *Controller {
	if config.Rand == nil {
		config.Rand = rand.IntN
	}

	c := &Controller{
		engine:   engine,
		display:  display,
		sources:  sources,
		config:   config,
		playlist: playlist.New(nil),
		cursor:   playlist.NoCursor,
		shuffle:  config.Shuffle,
		repeat:   config.Repeat,
	}

	c.display.SetPlayGlyph(GlyphPlay)
	c.display.SetShuffleActive(c.shuffle)
	c.display.SetRepeatActive(c.repeat)
	c.SetVolume(config.Volume)

	return c
}

// Dispatch routes an event to the matching operation.
func (c *Controller) Dispatch(e Event) {
	if e.Type != EventTimeUpdate {
		zlog.Debug().Msgf("playback: dispatch: type=%s source=%s", e.Type, e.Source)
	}

	switch e.Type {
	case EventSelectFiles:
		c.SelectFiles(e.Files)
	case EventTogglePlay:
		c.TogglePlay()
	case EventPrevious:
		c.Previous()
	case EventNext:
		c.Next()
	case EventSeek:
		c.Seek(e.X, e.Width)
	case EventSetVolume:
		c.SetVolume(e.Level)
	case EventToggleShuffle:
		c.ToggleShuffle()
	case EventToggleRepeat:
		c.ToggleRepeat()
	case EventMetadataReady:
		c.onMetadataReady(e.Source)
	case EventTimeUpdate:
		c.onProgressTick(e.Source)
	case EventEnded:
		c.onTrackEnded(e.Source)
	case EventLoadFailed:
		c.onLoadFailed(e.Source, e.Err)
	default:
		zlog.Warn().Msgf("playback: unknown event type: %d", e.Type)
	}
}

// SelectFiles replaces the playlist with one track per file and loads the
// first track without starting playback. An empty file set is a no-op.
func (c *Controller) SelectFiles(files []track.File) {
	if len(files) == 0 {
		zlog.Debug().Msg("playback: empty selection ignored")
		return
	}

	tracks := make([]track.Track, 0, len(files))
	for _, f := range files {
		h, err := c.sources.Acquire(f)
		if err != nil {
			zlog.Warn().Err(err).Msgf("playback: dropping file from selection: path=%s", f.Path)
			continue
		}
		tracks = append(tracks, track.New(f, h, c.config.Defaults))
	}
	if len(tracks) == 0 {
		zlog.Warn().Msg("playback: no file of the selection could be opened")
		return
	}

	old := c.playlist
	c.playlist = playlist.New(tracks)
	c.cursor = 0
	c.failures = 0
	c.pause()
	c.display.SetStatus("")

	err := c.loadCurrent()
	c.release(old)
	zlog.Info().Msgf("playback: playlist replaced: track_count=%d", len(tracks))

	if err != nil {
		c.onLoadFailed(c.loaded, err)
	}
}

// TogglePlay flips between playing and paused. No-op without a loaded track.
func (c *Controller) TogglePlay() {
	if c.playlist.IsEmpty() {
		return
	}
	if c.playing {
		c.pause()
	} else {
		c.play()
	}
}

// Previous loads the track before the cursor, wrapping to the last one, and plays it.
func (c *Controller) Previous() {
	if c.playlist.IsEmpty() {
		return
	}
	c.cursor = c.playlist.PrevIndex(c.cursor)
	c.loadAndPlay()
}

// Next loads the following track (or a random other one when shuffling) and plays it.
func (c *Controller) Next() {
	if c.playlist.IsEmpty() {
		return
	}
	c.cursor = c.nextCursor()
	c.loadAndPlay()
}

// Seek maps a click at x within a bar of the given width to a position.
// Ignored while the duration is unknown.
func (c *Controller) Seek(x, width float64) {
	if c.playlist.IsEmpty() || width <= 0 || math.IsNaN(x) || math.IsNaN(width) {
		return
	}
	d, ok := c.engine.Duration()
	if !ok || d <= 0 {
		zlog.Debug().Msg("playback: seek ignored, duration unknown")
		return
	}

	ratio := clamp(x/width, 0, 1)
	c.engine.Seek(time.Duration(ratio * float64(d)))
}

// SetVolume sets the volume from a 0..100 control value.
func (c *Controller) SetVolume(level float64) {
	if math.IsNaN(level) {
		return
	}
	level = clamp(level, 0, 100)
	c.volume = level / 100
	c.engine.SetVolume(c.volume)
	c.display.SetVolume(int(math.Round(level)))
}

// ToggleShuffle flips the shuffle flag.
func (c *Controller) ToggleShuffle() {
	c.shuffle = !c.shuffle
	c.display.SetShuffleActive(c.shuffle)
}

// ToggleRepeat flips the repeat flag.
func (c *Controller) ToggleRepeat() {
	c.repeat = !c.repeat
	c.display.SetRepeatActive(c.repeat)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Status {
	s := Status{
		State:   StateEmpty,
		Cursor:  c.cursor,
		Len:     c.playlist.Len(),
		Shuffle: c.shuffle,
		Repeat:  c.repeat,
		Volume:  c.volume,
	}
	if t, ok := c.playlist.At(c.cursor); ok {
		s.Track = &t
		s.State = StatePaused
		if c.playing {
			s.State = StatePlaying
		}
	}
	return s
}

// Close releases every handle of the current playlist.
func (c *Controller) Close() {
	c.release(c.playlist)
	c.playlist = playlist.New(nil)
	c.cursor = playlist.NoCursor
	c.loaded = ""
	c.playing = false
}

func (c *Controller) onMetadataReady(source track.Handle) {
	if source != c.loaded || !c.awaitingMetadata {
		return
	}
	d, ok := c.engine.Duration()
	if !ok {
		return
	}
	c.awaitingMetadata = false
	c.failures = 0
	c.display.SetTotal(FormatTime(d))
}

func (c *Controller) onProgressTick(source track.Handle) {
	if source != c.loaded {
		return
	}
	d, ok := c.engine.Duration()
	if !ok || d <= 0 {
		return
	}
	current := c.engine.CurrentTime()
	c.display.SetProgress(clamp(float64(current)/float64(d)*100, 0, 100))
	c.display.SetElapsed(FormatTime(current))
}

func (c *Controller) onTrackEnded(source track.Handle) {
	if source != c.loaded || c.playlist.IsEmpty() {
		return
	}
	if c.repeat {
		c.engine.Seek(0)
		c.play()
		return
	}
	c.Next()
}

func (c *Controller) onLoadFailed(source track.Handle, err error) {
	if source != c.loaded || c.playlist.IsEmpty() {
		return
	}

	t, _ := c.playlist.At(c.cursor)
	zlog.Warn().Err(err).Msgf("playback: load failed: title=%s policy=%s", t.Title, c.config.OnLoadFailure)

	switch c.config.OnLoadFailure {
	case PolicySurface:
		c.pause()
		c.display.SetStatus("cannot play " + t.Title)

	case PolicySkip:
		c.failures++
		if c.failures >= c.playlist.Len() {
			c.pause()
			c.display.SetStatus("no playable track in playlist")
			return
		}
		c.cursor = c.nextCursor()
		err := c.loadCurrent()
		if c.playing {
			c.engine.Play()
		}
		if err != nil {
			c.onLoadFailed(c.loaded, err)
		}
	}
}

// loadAndPlay loads the track at the cursor and forces playback.
func (c *Controller) loadAndPlay() {
	err := c.loadCurrent()
	c.play()
	if err != nil {
		c.onLoadFailed(c.loaded, err)
	}
}

// loadCurrent points the engine at the track under the cursor and resets the
// time displays. The total is filled in on EventMetadataReady.
func (c *Controller) loadCurrent() error {
	t, ok := c.playlist.At(c.cursor)
	if !ok {
		return nil
	}

	c.display.SetTrack(t.Title, t.Artist, t.Artwork)
	c.loaded = t.Source
	c.awaitingMetadata = true
	c.display.SetElapsed(FormatTime(0))
	c.display.SetTotal("")
	c.display.SetProgress(0)

	zlog.Debug().Msgf("playback: loading track: index=%d title=%s", c.cursor, t.Title)
	return c.engine.Load(t.Source)
}

func (c *Controller) nextCursor() int {
	if c.shuffle {
		return c.playlist.ShuffleIndex(c.cursor, c.config.Rand)
	}
	return c.playlist.NextIndex(c.cursor)
}

func (c *Controller) play() {
	c.playing = true
	c.display.SetPlayGlyph(GlyphPause)
	c.engine.Play()
}

func (c *Controller) pause() {
	c.playing = false
	c.display.SetPlayGlyph(GlyphPlay)
	c.engine.Pause()
}

// release revokes the handles of a playlist that is no longer active.
func (c *Controller) release(p *playlist.Playlist) {
	for _, h := range p.Handles() {
		c.sources.Release(h)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
