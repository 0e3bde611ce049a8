// Package notification provides the notification manager for broadcasting display updates.
package notification

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tapedeck/internal/app/playback"
)

// Stream represents a notification stream for a subscriber.
// Send is called from the playback loop and must not block.
type Stream interface {
	Send(Update) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager manages notification subscriptions and broadcasting.
// It implements playback.Display and keeps the latest value of every field.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	order         []string
	sequenceNo    uint64
	view          View
}

var _ playback.Display = (*Manager)(nil)

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		view:          View{Glyph: playback.GlyphPlay},
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	m.order = append(m.order, id)
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribeLocked(subscriptionID)
}

func (m *Manager) unsubscribeLocked(subscriptionID string) {
	if _, ok := m.subscriptions[subscriptionID]; !ok {
		return
	}
	delete(m.subscriptions, subscriptionID)
	for i, id := range m.order {
		if id == subscriptionID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Current returns the latest display state.
func (m *Manager) Current() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// Broadcast stamps the update with the next sequence number and sends it to
// every subscriber in subscription order. A subscriber whose Send fails is dropped.
func (m *Manager) Broadcast(u Update) {
	m.mu.Lock()
	m.sequenceNo++
	u.SequenceNo = m.sequenceNo
	m.view.apply(u)

	subs := make([]*subscription, 0, len(m.order))
	for _, id := range m.order {
		subs = append(subs, m.subscriptions[id])
	}
	m.mu.Unlock()

	var failed []string
	for _, s := range subs {
		if err := s.stream.Send(u); err != nil {
			zlog.Debug().Err(err).Msgf("notification: dropping subscriber: id=%s kind=%s", s.id, u.Kind)
			failed = append(failed, s.id)
		}
	}

	if len(failed) > 0 {
		m.mu.Lock()
		for _, id := range failed {
			m.unsubscribeLocked(id)
		}
		m.mu.Unlock()
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
	m.order = nil
}

func (m *Manager) SetTrack(title, artist, artwork string) {
	m.Broadcast(Update{Kind: KindTrack, Title: title, Artist: artist, Artwork: artwork})
}

func (m *Manager) SetElapsed(text string) {
	m.Broadcast(Update{Kind: KindElapsed, Text: text})
}

func (m *Manager) SetTotal(text string) {
	m.Broadcast(Update{Kind: KindTotal, Text: text})
}

func (m *Manager) SetProgress(percent float64) {
	m.Broadcast(Update{Kind: KindProgress, Progress: percent})
}

func (m *Manager) SetPlayGlyph(g playback.Glyph) {
	m.Broadcast(Update{Kind: KindPlayGlyph, Glyph: g})
}

func (m *Manager) SetShuffleActive(active bool) {
	m.Broadcast(Update{Kind: KindShuffle, Active: active})
}

func (m *Manager) SetRepeatActive(active bool) {
	m.Broadcast(Update{Kind: KindRepeat, Active: active})
}

func (m *Manager) SetVolume(level int) {
	m.Broadcast(Update{Kind: KindVolume, Volume: level})
}

func (m *Manager) SetStatus(text string) {
	m.Broadcast(Update{Kind: KindStatus, Text: text})
}
