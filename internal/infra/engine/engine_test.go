package engine

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tapedeck/internal/app/playback"
	"github.com/osa030/tapedeck/internal/domain/track"
)

const testRate = 8000

// fakeOutput mixes queued streamers on demand instead of a sound device.
type fakeOutput struct {
	mu     sync.Mutex
	mixer  beep.Mixer
	closed bool
}

func (o *fakeOutput) Init(beep.SampleRate, int) error { return nil }

func (o *fakeOutput) Play(s ...beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mixer.Add(s...)
}

func (o *fakeOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mixer.Clear()
}

func (o *fakeOutput) Lock()   { o.mu.Lock() }
func (o *fakeOutput) Unlock() { o.mu.Unlock() }
func (o *fakeOutput) Close()  { o.closed = true }

// pull streams n samples as the audio goroutine would.
func (o *fakeOutput) pull(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	buf := make([][2]float64, n)
	o.mixer.Stream(buf)
}

func (o *fakeOutput) queued() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mixer.Len()
}

type mapResolver map[track.Handle]track.File

func (m mapResolver) Resolve(h track.Handle) (track.File, error) {
	f, ok := m[h]
	if !ok {
		return track.File{}, errors.New("unknown handle")
	}
	return f, nil
}

// writeSilence writes a stereo wav file of the given number of frames.
func writeSilence(t *testing.T, dir, name string, frames int) track.File {
	t.Helper()
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	format := beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(out, beep.Take(frames, beep.Silence(-1)), format))
	return track.NewFile(path, "audio/wav", 0)
}

type harness struct {
	engine *Engine
	output *fakeOutput
	events chan playback.Event
}

func newHarness(t *testing.T, sources mapResolver, tick time.Duration) *harness {
	t.Helper()
	output := &fakeOutput{}
	e, err := New(sources, output, Config{SampleRate: testRate, Buffer: 10 * time.Millisecond, Tick: tick})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	events := make(chan playback.Event, 64)
	e.Notify(func(ev playback.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	return &harness{engine: e, output: output, events: events}
}

func (h *harness) await(t *testing.T, typ playback.EventType) playback.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-h.events:
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
			return playback.Event{}
		}
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(mapResolver{}, &fakeOutput{}, Config{SampleRate: 0, Tick: time.Second})
	assert.Error(t, err)

	_, err = New(mapResolver{}, &fakeOutput{}, Config{SampleRate: testRate})
	assert.Error(t, err)
}

func TestEngine_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))

	h := newHarness(t, mapResolver{
		"text":    track.NewFile(text, "text/plain", 5),
		"missing": track.NewFile(filepath.Join(dir, "gone.wav"), "audio/wav", 0),
	}, time.Hour)

	err := h.engine.Load("unknown")
	assert.Error(t, err)

	err = h.engine.Load("text")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	err = h.engine.Load("missing")
	assert.Error(t, err)

	_, known := h.engine.Duration()
	assert.False(t, known)
}

func TestEngine_LoadPausedAndReportsMetadata(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, mapResolver{"a": writeSilence(t, dir, "a.wav", testRate/2)}, time.Hour)

	require.NoError(t, h.engine.Load("a"))

	ev := h.await(t, playback.EventMetadataReady)
	assert.Equal(t, track.Handle("a"), ev.Source)

	d, known := h.engine.Duration()
	require.True(t, known)
	assert.Equal(t, 500*time.Millisecond, d)

	h.output.pull(1000)
	assert.Equal(t, time.Duration(0), h.engine.CurrentTime(), "loaded stream stays paused")
}

func TestEngine_PlayPauseSeek(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, mapResolver{"a": writeSilence(t, dir, "a.wav", testRate)}, time.Hour)
	require.NoError(t, h.engine.Load("a"))

	h.engine.Play()
	h.output.pull(testRate / 4)
	assert.Equal(t, 250*time.Millisecond, h.engine.CurrentTime())

	h.engine.Pause()
	h.output.pull(testRate / 4)
	assert.Equal(t, 250*time.Millisecond, h.engine.CurrentTime())

	h.engine.Seek(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, h.engine.CurrentTime())

	h.engine.Seek(10 * time.Second)
	assert.Equal(t, time.Second, h.engine.CurrentTime(), "seek clamps to the stream length")

	h.engine.Seek(-time.Second)
	assert.Equal(t, time.Duration(0), h.engine.CurrentTime())
}

func TestEngine_EndedAndReplay(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, mapResolver{"a": writeSilence(t, dir, "a.wav", testRate/10)}, time.Hour)
	require.NoError(t, h.engine.Load("a"))

	h.engine.Play()
	h.output.pull(testRate)

	ev := h.await(t, playback.EventEnded)
	assert.Equal(t, track.Handle("a"), ev.Source)
	assert.Equal(t, 0, h.output.queued())

	h.engine.Seek(0)
	h.engine.Play()
	assert.Equal(t, 1, h.output.queued(), "ended stream is queued again")

	h.output.pull(testRate / 20)
	assert.Equal(t, 50*time.Millisecond, h.engine.CurrentTime())
}

func TestEngine_LoadReplacesStream(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, mapResolver{
		"a": writeSilence(t, dir, "a.wav", testRate),
		"b": writeSilence(t, dir, "b.wav", testRate*2),
	}, time.Hour)

	require.NoError(t, h.engine.Load("a"))
	h.engine.Play()
	h.output.pull(testRate / 2)

	require.NoError(t, h.engine.Load("b"))

	assert.Equal(t, 1, h.output.queued())
	assert.Equal(t, time.Duration(0), h.engine.CurrentTime())
	d, _ := h.engine.Duration()
	assert.Equal(t, 2*time.Second, d)
}

func TestEngine_SetVolume(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, mapResolver{"a": writeSilence(t, dir, "a.wav", testRate)}, time.Hour)
	require.NoError(t, h.engine.Load("a"))

	tests := []struct {
		name   string
		level  float64
		volume float64
		silent bool
	}{
		{name: "full", level: 1, volume: 0},
		{name: "half", level: 0.5, volume: -1},
		{name: "quarter", level: 0.25, volume: -2},
		{name: "mute", level: 0, silent: true},
		{name: "above range", level: 3, volume: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.engine.SetVolume(tt.level)

			h.output.Lock()
			defer h.output.Unlock()
			assert.Equal(t, tt.silent, h.engine.volume.Silent)
			if !tt.silent {
				assert.InDelta(t, tt.volume, h.engine.volume.Volume, 1e-9)
			}
		})
	}
}

func TestEngine_VolumeCarriesAcrossLoads(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, mapResolver{
		"a": writeSilence(t, dir, "a.wav", testRate),
		"b": writeSilence(t, dir, "b.wav", testRate),
	}, time.Hour)

	h.engine.SetVolume(0.5)
	require.NoError(t, h.engine.Load("a"))
	require.NoError(t, h.engine.Load("b"))

	h.output.Lock()
	defer h.output.Unlock()
	assert.InDelta(t, -1.0, h.engine.volume.Volume, 1e-9)
}

func TestEngine_TimeUpdates(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, mapResolver{"a": writeSilence(t, dir, "a.wav", testRate)}, 5*time.Millisecond)
	require.NoError(t, h.engine.Load("a"))

	h.engine.Play()

	ev := h.await(t, playback.EventTimeUpdate)
	assert.Equal(t, track.Handle("a"), ev.Source)
}

func TestEngine_Close(t *testing.T) {
	dir := t.TempDir()
	output := &fakeOutput{}
	e, err := New(mapResolver{"a": writeSilence(t, dir, "a.wav", testRate)}, output, Config{SampleRate: testRate, Tick: time.Hour})
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.True(t, output.closed)

	err = e.Load("a")
	assert.True(t, errors.Is(err, ErrEngineClosed))
}

func TestSupported(t *testing.T) {
	tests := []struct {
		name     string
		file     track.File
		expected bool
	}{
		{name: "mp3 by extension", file: track.NewFile("/m/a.MP3", "", 0), expected: true},
		{name: "flac by extension", file: track.NewFile("/m/a.flac", "", 0), expected: true},
		{name: "ogg by extension", file: track.NewFile("/m/a.ogg", "", 0), expected: true},
		{name: "wav by mime", file: track.NewFile("/m/a", "audio/x-wav", 0), expected: true},
		{name: "mime with parameters", file: track.NewFile("/m/a", "audio/mpeg; charset=binary", 0), expected: true},
		{name: "aac", file: track.NewFile("/m/a.aac", "audio/aac", 0), expected: false},
		{name: "text", file: track.NewFile("/m/a.txt", "text/plain", 0), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Supported(tt.file))
		})
	}
}
