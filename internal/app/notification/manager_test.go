package notification

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tapedeck/internal/app/playback"
	"github.com/osa030/tapedeck/internal/domain/track"
)

type recordingStream struct {
	updates []Update
	err     error
}

func (s *recordingStream) Send(u Update) error {
	s.updates = append(s.updates, u)
	return s.err
}

func TestManager_BroadcastSequence(t *testing.T) {
	m := NewManager()
	first := &recordingStream{}
	second := &recordingStream{}
	m.Subscribe(first)
	m.Subscribe(second)

	m.SetTrack("Song", "Unknown Artist", "art.jpg")
	m.SetElapsed("0:00")
	m.SetTotal("")

	require.Len(t, first.updates, 3)
	assert.Equal(t, first.updates, second.updates)

	for i, u := range first.updates {
		assert.Equal(t, uint64(i+1), u.SequenceNo)
	}
	assert.Equal(t, KindTrack, first.updates[0].Kind)
	assert.Equal(t, "Song", first.updates[0].Title)
	assert.Equal(t, KindElapsed, first.updates[1].Kind)
	assert.Equal(t, KindTotal, first.updates[2].Kind)
}

func TestManager_Current(t *testing.T) {
	m := NewManager()
	assert.Equal(t, playback.GlyphPlay, m.Current().Glyph)

	m.SetTrack("Song", "Artist", "art.jpg")
	m.SetElapsed("1:02")
	m.SetTotal("3:00")
	m.SetProgress(34.5)
	m.SetPlayGlyph(playback.GlyphPause)
	m.SetShuffleActive(true)
	m.SetRepeatActive(true)
	m.SetVolume(70)
	m.SetStatus("cannot play x")

	assert.Equal(t, View{
		Title:      "Song",
		Artist:     "Artist",
		Artwork:    "art.jpg",
		Elapsed:    "1:02",
		Total:      "3:00",
		Progress:   34.5,
		Glyph:      playback.GlyphPause,
		Shuffle:    true,
		Repeat:     true,
		Volume:     70,
		Status:     "cannot play x",
		SequenceNo: 9,
	}, m.Current())
}

func TestManager_FailingSubscriberDropped(t *testing.T) {
	m := NewManager()
	broken := &recordingStream{err: errors.New("closed")}
	healthy := &recordingStream{}
	m.Subscribe(broken)
	m.Subscribe(healthy)

	m.SetVolume(10)
	m.SetVolume(20)

	assert.Len(t, broken.updates, 1)
	assert.Len(t, healthy.updates, 2)
	assert.Equal(t, 1, m.SubscriberCount())
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	id := m.Subscribe(s)

	m.Unsubscribe(id)
	m.Unsubscribe("unknown")
	m.SetStatus("hello")

	assert.Empty(t, s.updates)
	assert.Equal(t, 0, m.SubscriberCount())
	assert.Equal(t, "hello", m.Current().Status)
}

func TestManager_Close(t *testing.T) {
	m := NewManager()
	m.Subscribe(&recordingStream{})
	m.Subscribe(&recordingStream{})

	m.Close()

	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_DrivenByController(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	m.Subscribe(s)

	playback.NewController(nopEngine{}, m, nil, playback.Config{Volume: 40, Repeat: true})

	view := m.Current()
	assert.Equal(t, playback.GlyphPlay, view.Glyph)
	assert.True(t, view.Repeat)
	assert.False(t, view.Shuffle)
	assert.Equal(t, 40, view.Volume)
	assert.Len(t, s.updates, 4)
}

func TestLogStream(t *testing.T) {
	var stream LogStream
	for k := KindTrack; k <= KindStatus; k++ {
		assert.NoError(t, stream.Send(Update{Kind: k, Text: "x"}))
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "play_glyph", KindPlayGlyph.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

type nopEngine struct{}

func (nopEngine) Load(track.Handle) error         { return nil }
func (nopEngine) Play()                           {}
func (nopEngine) Pause()                          {}
func (nopEngine) Seek(time.Duration)              {}
func (nopEngine) SetVolume(float64)               {}
func (nopEngine) CurrentTime() time.Duration      { return 0 }
func (nopEngine) Duration() (time.Duration, bool) { return 0, false }
func (nopEngine) Notify(func(playback.Event))     {}
func (nopEngine) Close() error                    { return nil }
