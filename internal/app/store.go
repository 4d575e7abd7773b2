package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
	"github.com/hverma/ringline/internal/metrics"
)

type callEntry struct {
	mu      sync.Mutex
	sess    *domain.CallSession
	removed bool
}

// SessionStore tracks in-progress call negotiations. The global mutex only
// guards the indexes; per-call mutations run under the entry mutex so that
// transitions on one call serialize without blocking unrelated calls.
type SessionStore struct {
	mu    sync.RWMutex
	calls map[domain.CallID]*callEntry
	pairs map[string]domain.CallID
	clock core.Clock
}

func NewSessionStore(clock core.Clock) *SessionStore {
	return &SessionStore{
		calls: make(map[domain.CallID]*callEntry),
		pairs: make(map[string]domain.CallID),
		clock: clock,
	}
}

// Create registers a fresh ringing session for the pair, or fails with
// ErrSessionConflict while another session between the same two users is
// still alive, regardless of which side started it.
func (st *SessionStore) Create(caller, callee domain.UserID, isVideo bool) (domain.CallSession, error) {
	key := domain.PairKey(caller, callee)
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, busy := st.pairs[key]; busy {
		return domain.CallSession{}, domain.ErrSessionConflict
	}
	sess := domain.NewCallSession(caller, callee, isVideo, st.clock.Now())
	st.calls[sess.CallID] = &callEntry{sess: sess}
	st.pairs[key] = sess.CallID
	metrics.ActiveCalls.Set(float64(len(st.calls)))
	log.Info().Str("module", "app.store").Str("call", string(sess.CallID)).
		Str("caller", string(caller)).Str("callee", string(callee)).Bool("video", isVideo).Msg("session created")
	return *sess, nil
}

func (st *SessionStore) Get(id domain.CallID) (domain.CallSession, error) {
	st.mu.RLock()
	e, ok := st.calls[id]
	st.mu.RUnlock()
	if !ok {
		return domain.CallSession{}, domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.CallSession{}, domain.ErrNotFound
	}
	return *e.sess, nil
}

// Apply runs fn on the session under its entry lock. It is the single
// mutation point: guards and the transition table both execute inside fn,
// so concurrent events on the same call cannot interleave. On success the
// session's last-activity timestamp is refreshed and a snapshot returned.
func (st *SessionStore) Apply(id domain.CallID, fn func(*domain.CallSession) error) (domain.CallSession, error) {
	st.mu.RLock()
	e, ok := st.calls[id]
	st.mu.RUnlock()
	if !ok {
		return domain.CallSession{}, domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.CallSession{}, domain.ErrNotFound
	}
	if err := fn(e.sess); err != nil {
		return domain.CallSession{}, err
	}
	e.sess.LastActivityAt = st.clock.Now()
	return *e.sess, nil
}

// Transition applies a bare table-driven transition with no role guards.
func (st *SessionStore) Transition(id domain.CallID, event domain.Event) (domain.CallSession, error) {
	return st.Apply(id, func(s *domain.CallSession) error {
		next, err := domain.NextState(s.State, event)
		if err != nil {
			return err
		}
		s.State = next
		return nil
	})
}

// Remove tears the session out of the store. Exactly one caller wins the
// claim; losers get ok=false and must not notify participants, which keeps
// end/timeout/disconnect races to a single notification.
func (st *SessionStore) Remove(id domain.CallID) (domain.CallSession, bool) {
	st.mu.Lock()
	e, ok := st.calls[id]
	if !ok {
		st.mu.Unlock()
		return domain.CallSession{}, false
	}
	delete(st.calls, id)
	delete(st.pairs, domain.PairKey(e.sess.CallerID, e.sess.CalleeID))
	metrics.ActiveCalls.Set(float64(len(st.calls)))
	st.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.CallSession{}, false
	}
	e.removed = true
	log.Info().Str("module", "app.store").Str("call", string(id)).Msg("session removed")
	return *e.sess, true
}

// Snapshot copies every live session for the supervisor sweep.
func (st *SessionStore) Snapshot() []domain.CallSession {
	st.mu.RLock()
	entries := make([]*callEntry, 0, len(st.calls))
	for _, e := range st.calls {
		entries = append(entries, e)
	}
	st.mu.RUnlock()

	out := make([]domain.CallSession, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			out = append(out, *e.sess)
		}
		e.mu.Unlock()
	}
	return out
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.calls)
}
