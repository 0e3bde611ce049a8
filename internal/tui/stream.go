package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/tapedeck/internal/app/notification"
)

// updateMsg carries one display update into the bubbletea event loop.
type updateMsg notification.Update

// Stream forwards display updates to a running program. Register it with
// the session before the program starts; send is usually (*tea.Program).Send,
// which returns once the program has exited.
type Stream struct {
	send func(tea.Msg)
}

// NewStream creates a stream that delivers updates through send.
func NewStream(send func(tea.Msg)) *Stream {
	return &Stream{send: send}
}

// Send implements notification.Stream.
func (s *Stream) Send(u notification.Update) error {
	s.send(updateMsg(u))
	return nil
}
