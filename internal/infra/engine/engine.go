// Package engine plays local audio files through beep.
package engine

import (
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tapedeck/internal/app/playback"
	"github.com/osa030/tapedeck/internal/domain/track"
)

// ErrEngineClosed is returned by Load after Close.
var ErrEngineClosed = errors.New("engine closed")

// resampleQuality is passed to beep.Resample when a file's rate differs from the output.
const resampleQuality = 4

// Resolver turns a handle into the file it refers to.
type Resolver interface {
	Resolve(h track.Handle) (track.File, error)
}

// Config holds engine configuration.
type Config struct {
	SampleRate int           // Output sample rate in Hz
	Buffer     time.Duration // Output buffer length
	Tick       time.Duration // Interval between time updates while playing
}

// Engine implements playback.Engine on top of a beep Output.
//
// Control methods are called from the playback loop. Fields below the output
// lock are also read by the audio goroutine.
type Engine struct {
	resolver   Resolver
	output     Output
	sampleRate beep.SampleRate
	tick       time.Duration

	notifyMu sync.Mutex
	notify   func(playback.Event)

	// Guarded by output.Lock
	handle      track.Handle
	stream      beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	level       float64
	finished    bool
	errReported bool
	closed      bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// New initialises the output and starts the time update ticker.
func New(resolver Resolver, output Output, config Config) (*Engine, error) {
	if config.SampleRate <= 0 {
		return nil, errors.Newf("invalid sample rate: %d", config.SampleRate)
	}
	if config.Tick <= 0 {
		return nil, errors.Newf("invalid tick interval: %s", config.Tick)
	}

	sr := beep.SampleRate(config.SampleRate)
	if err := output.Init(sr, sr.N(config.Buffer)); err != nil {
		return nil, errors.Wrap(err, "failed to initialize audio output")
	}

	e := &Engine{
		resolver:   resolver,
		output:     output,
		sampleRate: sr,
		tick:       config.Tick,
		level:      1,
		stop:       make(chan struct{}),
	}

	e.wg.Add(1)
	go e.tickLoop()

	zlog.Debug().Msgf("engine: initialized: sample_rate=%d buffer=%s tick=%s", config.SampleRate, config.Buffer, config.Tick)
	return e, nil
}

// Notify sets the function that receives engine notifications.
// It may be called from any goroutine and must not block on the audio thread.
func (e *Engine) Notify(fn func(playback.Event)) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	e.notify = fn
}

// Load decodes the file behind the handle and queues it paused.
// Any previously loaded stream is stopped and closed.
func (e *Engine) Load(h track.Handle) error {
	f, err := e.resolver.Resolve(h)
	if err != nil {
		return errors.Wrap(err, "failed to resolve source")
	}

	stream, format, err := decode(f)
	if err != nil {
		e.unload()
		return err
	}

	var s beep.Streamer = stream
	if format.SampleRate != e.sampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, e.sampleRate, stream)
	}

	e.output.Lock()
	if e.closed {
		e.output.Unlock()
		stream.Close()
		return ErrEngineClosed
	}
	old := e.stream
	e.handle = h
	e.stream = stream
	e.format = format
	e.volume = &effects.Volume{Streamer: s, Base: 2}
	e.applyLevel()
	e.ctrl = &beep.Ctrl{Streamer: e.volume, Paused: true}
	e.finished = false
	e.errReported = false
	seq := e.sequence(h)
	e.output.Unlock()

	e.output.Clear()
	if old != nil {
		old.Close()
	}
	e.output.Play(seq)

	zlog.Debug().Msgf("engine: loaded: handle=%s path=%s rate=%d len=%d", h, f.Path, format.SampleRate, stream.Len())

	// Posted from a goroutine: Load runs on the loop that consumes the event.
	go e.emit(playback.Notification(playback.EventMetadataReady, h))
	return nil
}

// Play resumes output. A stream that already ended is queued again.
func (e *Engine) Play() {
	e.output.Lock()
	if e.ctrl == nil {
		e.output.Unlock()
		return
	}
	e.ctrl.Paused = false
	seq := e.requeue()
	e.output.Unlock()

	if seq != nil {
		e.output.Play(seq)
	}
}

// Pause holds the stream at its current position.
func (e *Engine) Pause() {
	e.output.Lock()
	defer e.output.Unlock()

	if e.ctrl != nil {
		e.ctrl.Paused = true
	}
}

// Seek moves the stream to the given position, clamped to its length.
func (e *Engine) Seek(position time.Duration) {
	e.output.Lock()
	if e.stream == nil {
		e.output.Unlock()
		return
	}

	n := e.format.SampleRate.N(position)
	n = max(0, min(n, e.stream.Len()))
	if err := e.stream.Seek(n); err != nil {
		zlog.Warn().Err(err).Msgf("engine: seek failed: handle=%s position=%s", e.handle, position)
	}

	var seq beep.Streamer
	if !e.ctrl.Paused {
		seq = e.requeue()
	}
	e.output.Unlock()

	if seq != nil {
		e.output.Play(seq)
	}
}

// SetVolume sets the output level in [0,1].
func (e *Engine) SetVolume(level float64) {
	e.output.Lock()
	defer e.output.Unlock()

	e.level = max(0, min(level, 1))
	e.applyLevel()
}

// CurrentTime returns the playback position of the loaded stream.
func (e *Engine) CurrentTime() time.Duration {
	e.output.Lock()
	defer e.output.Unlock()

	if e.stream == nil {
		return 0
	}
	return e.format.SampleRate.D(e.stream.Position())
}

// Duration returns the length of the loaded stream. The second result is
// false when nothing is loaded.
func (e *Engine) Duration() (time.Duration, bool) {
	e.output.Lock()
	defer e.output.Unlock()

	if e.stream == nil {
		return 0, false
	}
	return e.format.SampleRate.D(e.stream.Len()), true
}

// Close stops the ticker, releases the loaded stream and closes the output.
func (e *Engine) Close() error {
	e.output.Lock()
	if e.closed {
		e.output.Unlock()
		return nil
	}
	e.closed = true
	e.output.Unlock()

	close(e.stop)
	e.wg.Wait()

	e.unload()
	e.output.Close()
	zlog.Debug().Msg("engine: closed")
	return nil
}

// unload drops the current stream, if any.
func (e *Engine) unload() {
	e.output.Lock()
	old := e.stream
	e.handle = ""
	e.stream = nil
	e.ctrl = nil
	e.volume = nil
	e.finished = false
	e.output.Unlock()

	e.output.Clear()
	if old != nil {
		old.Close()
	}
}

// sequence wraps the current control in an end-of-stream callback.
// The callback runs on the audio goroutine with the output lock held.
func (e *Engine) sequence(h track.Handle) beep.Streamer {
	ctrl := e.ctrl
	return beep.Seq(ctrl, beep.Callback(func() {
		if e.ctrl != ctrl {
			return
		}
		e.finished = true
		go e.emit(playback.Notification(playback.EventEnded, h))
	}))
}

// requeue returns a fresh sequence when the stream has ended, nil otherwise.
// Must be called with the output lock held.
func (e *Engine) requeue() beep.Streamer {
	if !e.finished {
		return nil
	}
	e.finished = false
	return e.sequence(e.handle)
}

// applyLevel maps the linear level onto the Base 2 volume effect.
// Must be called with the output lock held.
func (e *Engine) applyLevel() {
	if e.volume == nil {
		return
	}
	if e.level <= 0 {
		e.volume.Silent = true
		e.volume.Volume = 0
		return
	}
	e.volume.Silent = false
	e.volume.Volume = math.Log2(e.level)
}

func (e *Engine) tickLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.onTick()
		}
	}
}

func (e *Engine) onTick() {
	e.output.Lock()
	h := e.handle
	active := e.ctrl != nil && !e.ctrl.Paused && !e.finished
	var streamErr error
	if e.stream != nil && !e.errReported {
		if err := e.stream.Err(); err != nil {
			streamErr = err
			e.errReported = true
		}
	}
	e.output.Unlock()

	if streamErr != nil {
		e.emit(playback.LoadFailed(h, streamErr))
		return
	}
	if active {
		e.emit(playback.Notification(playback.EventTimeUpdate, h))
	}
}

func (e *Engine) emit(ev playback.Event) {
	e.notifyMu.Lock()
	fn := e.notify
	e.notifyMu.Unlock()

	if fn != nil {
		fn(ev)
	}
}
