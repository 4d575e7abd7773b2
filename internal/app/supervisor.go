package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
)

// Supervisor expires stale sessions: unanswered rings and negotiations that
// went active but never completed an offer/answer exchange (typically a
// dead connection on the accepting side).
type Supervisor struct {
	Engine *Engine
	Store  *SessionStore
	Clock  core.Clock

	RingTimeout        time.Duration
	NegotiationTimeout time.Duration
	Interval           time.Duration
}

func NewSupervisor(engine *Engine, store *SessionStore, clock core.Clock, ring, negotiation, interval time.Duration) *Supervisor {
	return &Supervisor{
		Engine:             engine,
		Store:              store,
		Clock:              clock,
		RingTimeout:        ring,
		NegotiationTimeout: negotiation,
		Interval:           interval,
	}
}

func (sv *Supervisor) Run(ctx context.Context) {
	t := time.NewTicker(sv.Interval)
	defer t.Stop()
	log.Info().Str("module", "app.supervisor").Dur("interval", sv.Interval).Msg("supervisor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.supervisor").Msg("supervisor stopped")
			return
		case <-t.C:
			sv.Sweep(sv.Clock.Now())
		}
	}
}

// Sweep runs one expiry pass and reports how many sessions it tore down.
// Exposed so tests can drive time directly instead of waiting on the ticker.
func (sv *Supervisor) Sweep(now time.Time) int {
	expired := 0
	for _, sess := range sv.Store.Snapshot() {
		switch sess.State {
		case domain.StateRinging:
			if now.Sub(sess.CreatedAt) >= sv.RingTimeout {
				sv.Engine.Expire(sess.CallID, domain.ReasonTimeout)
				expired++
			}
		case domain.StateActive:
			if !sess.Answered && now.Sub(sess.LastActivityAt) >= sv.NegotiationTimeout {
				sv.Engine.Expire(sess.CallID, domain.ReasonNegotiationTimeout)
				expired++
			}
		}
	}
	return expired
}
