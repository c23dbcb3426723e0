// Package live keeps track of connected users and delivers pushed events to
// them. The Registry is the only owner of the user -> connection map; other
// components reach connections solely through Register, Unregister and Send.
package live

import (
	"log/slog"
	"sync"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/metrics"
)

// Handle is one connected client as seen by the Registry.
// Enqueue must not block; Close must be safe to call more than once.
type Handle interface {
	Enqueue(ev domain.Event)
	Close()
}

// Registry maps user ids to their single active Handle.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]Handle
	log      *slog.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{sessions: make(map[int64]Handle), log: log}
}

// Register makes h the active handle for userID. A previous handle for the
// same user is closed: a reconnect supersedes a connection that never
// disconnected cleanly.
func (r *Registry) Register(userID int64, h Handle) {
	r.mu.Lock()
	prev := r.sessions[userID]
	r.sessions[userID] = h
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.LiveSessions.Set(float64(n))
	if prev != nil && prev != h {
		r.log.Info("live session superseded", "user_id", userID)
		prev.Close()
	}
}

// Unregister removes and closes the active handle for userID, if any.
func (r *Registry) Unregister(userID int64) {
	r.mu.Lock()
	h := r.sessions[userID]
	delete(r.sessions, userID)
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.LiveSessions.Set(float64(n))
	if h != nil {
		h.Close()
	}
}

// Release unregisters userID only while h is still its active handle, and
// reports whether it did. Transports call it on disconnect so a stale
// connection going away cannot evict the connection that replaced it.
func (r *Registry) Release(userID int64, h Handle) bool {
	r.mu.Lock()
	if r.sessions[userID] != h {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, userID)
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.LiveSessions.Set(float64(n))
	h.Close()
	return true
}

// Send hands ev to userID's active handle and reports whether the user was
// connected. Offline users are skipped silently; nothing is queued for later.
func (r *Registry) Send(userID int64, ev domain.Event) bool {
	r.mu.RLock()
	h := r.sessions[userID]
	r.mu.RUnlock()
	if h == nil {
		return false
	}
	h.Enqueue(ev)
	return true
}

// Connected reports whether userID has an active handle.
func (r *Registry) Connected(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[userID]
	return ok
}

// Count returns the number of connected users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
