// Package session provides the session manager.
package session

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tapedeck/internal/app/filter"
	"github.com/osa030/tapedeck/internal/app/notification"
	"github.com/osa030/tapedeck/internal/app/playback"
	"github.com/osa030/tapedeck/internal/app/selection"
	"github.com/osa030/tapedeck/internal/domain/track"
	"github.com/osa030/tapedeck/internal/infra/config"
	"github.com/osa030/tapedeck/internal/infra/source"
	"github.com/osa030/tapedeck/internal/infra/watcher"
)

var (
	ErrSessionNotRunning = errors.New("session is not running")
	ErrAlreadyWatching   = errors.New("a folder is already being watched")
)

// eventBuffer is the capacity of the playback loop queue.
const eventBuffer = 64

// Manager wires the playback controller to its engine, display and inputs
// for one run of the player.
type Manager struct {
	mu sync.Mutex

	// Configuration
	config *config.Config

	// Components
	engine       playback.Engine
	sources      *source.Registry
	controller   *playback.Controller
	loop         *playback.Loop
	notification *notification.Manager
	selector     *selection.Selector
	watcher      *watcher.Watcher

	// Serializes selections from the UI and the folder watcher
	selectMu sync.Mutex

	started   bool
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a new session manager. The manager takes ownership of
// engine and sources and closes them in Close.
func NewManager(cfg *config.Config, engine playback.Engine, sources *source.Registry) (*Manager, error) {
	policy, err := playback.ParseLoadFailurePolicy(cfg.Player.OnLoadError)
	if err != nil {
		return nil, errors.Wrap(err, "invalid player config")
	}

	// Setup filters
	chain, err := BuildFilterChain(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:       cfg,
		engine:       engine,
		sources:      sources,
		notification: notification.NewManager(),
		selector:     selection.NewSelector(chain, cfg.IsRecursive()),
		ctx:          ctx,
		cancel:       cancel,
	}

	m.notification.Subscribe(notification.LogStream{})

	m.controller = playback.NewController(engine, m.notification, sources, playback.Config{
		Defaults: track.Defaults{
			Artist:  cfg.Player.UnknownArtist,
			Artwork: cfg.Player.Artwork,
		},
		Volume:        float64(cfg.VolumeLevel()),
		Shuffle:       cfg.Player.Shuffle,
		Repeat:        cfg.Player.Repeat,
		OnLoadFailure: policy,
	})
	m.loop = playback.NewLoop(m.controller, eventBuffer)

	engine.Notify(m.onEngineEvent)

	return m, nil
}

// BuildFilterChain creates the selection filter chain for cfg. The audio
// type filter always runs first; registered filters follow in name order
// when enabled.
func BuildFilterChain(cfg *config.Config) (*filter.Chain, error) {
	chain := filter.NewChain()
	chain.Add(filter.NewAudioTypeFilter(cfg.Selection.Accept))

	registered := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		if !cfg.IsFilterEnabled(name) {
			continue
		}
		f := registered[name]()
		if err := f.ValidateConfig(cfg.GetFilterSettings(name)); err != nil {
			return nil, errors.Wrapf(err, "invalid settings for %s", name)
		}
		chain.Add(f)
		zlog.Debug().Msgf("filter enabled: name=%s", name)
	}

	for name := range cfg.Filters {
		if _, ok := registered[name]; !ok {
			zlog.Warn().Msgf("unknown filter in config: name=%s", name)
		}
	}
	return chain, nil
}

// Start starts the playback loop. It returns immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	m.started = true

	go m.loop.Run(ctx)
	zlog.Info().Msg("session started")
	return nil
}

// Done returns a channel that is closed when the playback loop stops.
func (m *Manager) Done() <-chan struct{} {
	return m.loop.Done()
}

// Select expands the paths into a new playlist and hands it to the controller.
// Rejected paths are reported in the result; ErrNoFiles leaves the playlist as is.
func (m *Manager) Select(ctx context.Context, paths []string) (selection.Result, error) {
	m.selectMu.Lock()
	defer m.selectMu.Unlock()

	result, err := m.selector.Select(ctx, paths)
	if err != nil {
		return result, err
	}

	if err := m.Post(playback.SelectFiles(result.Files)); err != nil {
		return result, err
	}
	return result, nil
}

// Post queues a user command for the controller.
func (m *Manager) Post(e playback.Event) error {
	if err := m.loop.Post(e); err != nil {
		return ErrSessionNotRunning
	}
	return nil
}

// Subscribe registers a display stream.
func (m *Manager) Subscribe(stream notification.Stream) string {
	return m.notification.Subscribe(stream)
}

// Unsubscribe removes a display stream.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.notification.Unsubscribe(subscriptionID)
}

// View returns the latest display state.
func (m *Manager) View() notification.View {
	return m.notification.Current()
}

// Watch reselects dir whenever its contents change.
func (m *Manager) Watch(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watcher != nil {
		return ErrAlreadyWatching
	}

	w, err := watcher.Start(dir, m.config.IsRecursive(), watcher.DefaultDelay, func() {
		if _, err := m.Select(m.ctx, []string{dir}); err != nil {
			zlog.Warn().Err(err).Msgf("session: reselect after folder change failed: path=%s", dir)
		}
	})
	if err != nil {
		return errors.Wrap(err, "failed to watch folder")
	}
	m.watcher = w
	return nil
}

// Close stops the watcher and the loop, then releases the playlist, the
// engine and the source registry. Safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		w := m.watcher
		started := m.started
		m.mu.Unlock()

		m.cancel()
		if w != nil {
			if err := w.Close(); err != nil {
				zlog.Warn().Err(err).Msg("session: failed to close watcher")
			}
		}

		m.loop.Close()
		if started {
			<-m.loop.Done()
		}

		m.controller.Close()
		if err := m.engine.Close(); err != nil {
			zlog.Warn().Err(err).Msg("session: failed to close engine")
		}
		m.sources.Close()
		m.notification.Close()
		zlog.Info().Msg("session closed")
	})
}

// onEngineEvent forwards engine notifications to the loop. Time updates are
// dropped when the queue is full; the next tick supersedes them.
func (m *Manager) onEngineEvent(e playback.Event) {
	if e.Type == playback.EventTimeUpdate {
		m.loop.TryPost(e)
		return
	}
	if err := m.loop.Post(e); err != nil {
		zlog.Debug().Err(err).Msgf("session: engine event dropped: type=%s", e.Type)
	}
}
