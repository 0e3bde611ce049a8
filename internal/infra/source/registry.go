// Package source issues opaque handles for selected audio files.
package source

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tapedeck/internal/domain/track"
)

var (
	ErrUnknownHandle = errors.New("unknown source handle")
	ErrNotRegular    = errors.New("not a regular file")
)

// Registry maps handles to files with thread-safe access.
// A handle stays valid until it is released.
type Registry struct {
	mu      sync.RWMutex
	entries map[track.Handle]track.File
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[track.Handle]track.File),
	}
}

// Acquire checks that the file is still readable and issues a new handle for it.
func (r *Registry) Acquire(f track.File) (track.Handle, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to stat %s", f.Path)
	}
	if !info.Mode().IsRegular() {
		return "", errors.Wrapf(ErrNotRegular, "%s", f.Path)
	}

	h := track.Handle(uuid.New().String())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[h] = f

	return h, nil
}

// Resolve returns the file behind a handle.
func (r *Registry) Resolve(h track.Handle) (track.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.entries[h]
	if !ok {
		return track.File{}, errors.Wrapf(ErrUnknownHandle, "handle=%s", h)
	}
	return f, nil
}

// Release revokes a handle. Releasing an unknown handle is a no-op.
func (r *Registry) Release(h track.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[h]; !ok {
		return
	}
	delete(r.entries, h)
	zlog.Debug().Msgf("source: released: handle=%s", h)
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close revokes every handle.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}
