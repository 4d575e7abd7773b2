package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
	"github.com/hverma/ringline/internal/metrics"
)

// Registry maps an authenticated user to the set of live signaling
// connections for that user. One user may be signed in from several
// devices, so entries are removed by connection identity, never by user.
type Registry struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]map[core.SignalConnection]struct{}
	owner  map[core.SignalConnection]domain.UserID
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[domain.UserID]map[core.SignalConnection]struct{}),
		owner:  make(map[core.SignalConnection]domain.UserID),
	}
}

func (r *Registry) Register(uid domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byUser[uid]
	if !ok {
		set = make(map[core.SignalConnection]struct{})
		r.byUser[uid] = set
	}
	set[conn] = struct{}{}
	r.owner[conn] = uid
	metrics.Connections.Inc()
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Int("devices", len(set)).Msg("connection registered")
}

// Unregister removes one connection. It is idempotent: a disconnect
// callback racing a failed-send eviction must not double-count.
// wasLast is true when this was the user's final live connection.
func (r *Registry) Unregister(conn core.SignalConnection) (uid domain.UserID, wasLast bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, ok := r.owner[conn]
	if !ok {
		return "", false
	}
	delete(r.owner, conn)
	set := r.byUser[uid]
	delete(set, conn)
	if len(set) == 0 {
		delete(r.byUser, uid)
		wasLast = true
	}
	metrics.Connections.Dec()
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Bool("last", wasLast).Msg("connection unregistered")
	return uid, wasLast
}

// ConnectionsFor returns a snapshot; fan-out I/O happens outside the lock.
func (r *Registry) ConnectionsFor(uid domain.UserID) []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byUser[uid]
	out := make([]core.SignalConnection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// IsOnline is advisory: the authoritative check is whether fan-out
// actually reaches a connection.
func (r *Registry) IsOnline(uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[uid]) > 0
}
