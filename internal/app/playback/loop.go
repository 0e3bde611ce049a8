package playback

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrLoopClosed is returned when posting to a loop that has stopped.
var ErrLoopClosed = errors.New("playback loop closed")

// Loop serializes events into a single goroutine that drives a Controller.
type Loop struct {
	controller *Controller
	events     chan Event

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop creates a loop with the given channel capacity.
func NewLoop(controller *Controller, buffer int) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		controller: controller,
		events:     make(chan Event, buffer),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Post queues an event. It blocks while the queue is full and fails once the
// loop has been closed.
func (l *Loop) Post(e Event) error {
	select {
	case <-l.ctx.Done():
		return ErrLoopClosed
	default:
	}

	select {
	case l.events <- e:
		return nil
	case <-l.ctx.Done():
		return ErrLoopClosed
	}
}

// TryPost queues an event without blocking. Returns false if the event was dropped.
func (l *Loop) TryPost(e Event) bool {
	select {
	case l.events <- e:
		return true
	default:
		return false
	}
}

// Run dispatches events until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.ctx.Done():
			return
		case e := <-l.events:
			l.dispatch(e)
		}
	}
}

// dispatch runs one event to completion. A panicking handler is logged and
// the loop keeps going.
func (l *Loop) dispatch(e Event) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("playback loop: handler panicked: type=%s panic=%v", e.Type, r)
		}
	}()
	l.controller.Dispatch(e)
}

// Close stops the loop. Events still queued are discarded.
func (l *Loop) Close() {
	l.cancel()
}

// Done returns a channel that is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
