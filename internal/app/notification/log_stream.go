package notification

import (
	zlog "github.com/rs/zerolog/log"
)

// LogStream writes track changes, transport changes and status messages to the log.
// Time and progress updates are skipped.
type LogStream struct{}

func (LogStream) Send(u Update) error {
	switch u.Kind {
	case KindTrack:
		zlog.Info().Msgf("now playing: title=%s artist=%s", u.Title, u.Artist)
	case KindPlayGlyph:
		zlog.Debug().Msgf("transport: button=%s", u.Glyph)
	case KindShuffle, KindRepeat:
		zlog.Info().Msgf("mode changed: %s=%v", u.Kind, u.Active)
	case KindStatus:
		if u.Text != "" {
			zlog.Warn().Msgf("status: %s", u.Text)
		}
	}
	return nil
}
