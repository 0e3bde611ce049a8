package playback

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tapedeck/internal/domain/track"
)

// fakeEngine records every call made by the controller.
type fakeEngine struct {
	loads    []track.Handle
	plays    int
	pauses   int
	seeks    []time.Duration
	volume   float64
	current  time.Duration
	duration time.Duration
	known    bool
	loadErrs map[track.Handle]error
	notify   func(Event)
}

func (e *fakeEngine) Load(source track.Handle) error {
	e.loads = append(e.loads, source)
	e.current = 0
	e.known = false
	return e.loadErrs[source]
}

func (e *fakeEngine) Play()  { e.plays++ }
func (e *fakeEngine) Pause() { e.pauses++ }

func (e *fakeEngine) Seek(position time.Duration) {
	e.seeks = append(e.seeks, position)
	e.current = position
}

func (e *fakeEngine) SetVolume(level float64)    { e.volume = level }
func (e *fakeEngine) CurrentTime() time.Duration { return e.current }

func (e *fakeEngine) Duration() (time.Duration, bool) {
	return e.duration, e.known
}

func (e *fakeEngine) Notify(fn func(Event)) { e.notify = fn }
func (e *fakeEngine) Close() error          { return nil }

func (e *fakeEngine) lastLoad() track.Handle {
	if len(e.loads) == 0 {
		return ""
	}
	return e.loads[len(e.loads)-1]
}

// fakeDisplay keeps the latest value of every display surface.
type fakeDisplay struct {
	title    string
	artist   string
	artwork  string
	elapsed  string
	total    string
	progress float64
	glyph    Glyph
	shuffle  bool
	repeat   bool
	volume   int
	status   string

	titles []string
	onSet  func(title string)
}

func (d *fakeDisplay) SetTrack(title, artist, artwork string) {
	if d.onSet != nil {
		d.onSet(title)
	}
	d.title, d.artist, d.artwork = title, artist, artwork
	d.titles = append(d.titles, title)
}

func (d *fakeDisplay) SetElapsed(text string)       { d.elapsed = text }
func (d *fakeDisplay) SetTotal(text string)         { d.total = text }
func (d *fakeDisplay) SetProgress(percent float64)  { d.progress = percent }
func (d *fakeDisplay) SetPlayGlyph(g Glyph)         { d.glyph = g }
func (d *fakeDisplay) SetShuffleActive(active bool) { d.shuffle = active }
func (d *fakeDisplay) SetRepeatActive(active bool)  { d.repeat = active }
func (d *fakeDisplay) SetVolume(level int)          { d.volume = level }
func (d *fakeDisplay) SetStatus(text string)        { d.status = text }

// fakeSources hands out "h:<path>" handles.
type fakeSources struct {
	active   map[track.Handle]bool
	released []track.Handle
	fail     map[string]bool
}

func newFakeSources() *fakeSources {
	return &fakeSources{
		active: make(map[track.Handle]bool),
		fail:   make(map[string]bool),
	}
}

func (s *fakeSources) Acquire(f track.File) (track.Handle, error) {
	if s.fail[f.Path] {
		return "", errors.Newf("cannot open %s", f.Path)
	}
	h := track.Handle("h:" + f.Path)
	s.active[h] = true
	return h, nil
}

func (s *fakeSources) Release(h track.Handle) {
	delete(s.active, h)
	s.released = append(s.released, h)
}

func files(names ...string) []track.File {
	result := make([]track.File, len(names))
	for i, name := range names {
		result[i] = track.NewFile(name, "audio/mpeg", 1)
	}
	return result
}
