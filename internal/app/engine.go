package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
	"github.com/hverma/ringline/internal/metrics"
)

// Engine is the signaling state machine. It validates every inbound event
// against the session store, applies the transition atomically, then fans
// relayed events out with no lock held. Guard failures return an error to
// the sender only and never mutate session state.
type Engine struct {
	Registry *Registry
	Store    *SessionStore
	Delivery *Delivery
}

func NewEngine(reg *Registry, store *SessionStore, delivery *Delivery) *Engine {
	e := &Engine{Registry: reg, Store: store, Delivery: delivery}
	delivery.OnEvict = e.Disconnect
	return e
}

// Start creates a ringing session and rings every device of the callee.
// A callee with zero live connections short-circuits to CalleeUnavailable
// without creating a session.
func (e *Engine) Start(caller, callee domain.UserID, isVideo bool) (domain.CallSession, error) {
	if !e.Registry.IsOnline(callee) {
		return domain.CallSession{}, domain.ErrCalleeUnavailable
	}
	sess, err := e.Store.Create(caller, callee, isVideo)
	if err != nil {
		return domain.CallSession{}, err
	}
	metrics.CallsStartedTotal.Inc()

	rep := e.Delivery.Deliver(callee, newIncoming(sess))
	if rep.Delivered == 0 {
		// The advisory online check raced a disconnect; the fan-out is the
		// authoritative one. Reclaim the session instead of leaking a ring
		// nobody will answer.
		e.Store.Remove(sess.CallID)
		return domain.CallSession{}, domain.ErrCalleeUnavailable
	}
	log.Info().Str("module", "app.engine").Str("call", string(sess.CallID)).
		Str("caller", string(caller)).Str("callee", string(callee)).Msg("call ringing")
	return sess, nil
}

// Accept: only the callee may accept, once. The caller's devices learn the
// call was picked up; the callee's other devices are released with a
// superseded ended event so exactly one device keeps ringing UI state.
func (e *Engine) Accept(callID domain.CallID, sender domain.UserID, conn core.SignalConnection) error {
	sess, err := e.Store.Apply(callID, func(s *domain.CallSession) error {
		if !s.HasParticipant(sender) {
			return domain.ErrUnauthorized
		}
		if sender != s.CalleeID || s.Accepted {
			return domain.ErrInvalidTransition
		}
		next, err := domain.NextState(s.State, domain.EventAccept)
		if err != nil {
			return err
		}
		s.State = next
		s.Accepted = true
		return nil
	})
	if err != nil {
		return err
	}

	e.Delivery.Deliver(sess.CallerID, AcceptedEvent{Event: core.EvCallAccepted, CallID: callID, AcceptorID: sender})
	e.Delivery.DeliverExcept(sess.CalleeID, conn, newEnded(callID, domain.ReasonSuperseded))
	return nil
}

// Reject: only the callee may reject a ringing call.
func (e *Engine) Reject(callID domain.CallID, sender domain.UserID) error {
	_, err := e.Store.Apply(callID, func(s *domain.CallSession) error {
		if !s.HasParticipant(sender) {
			return domain.ErrUnauthorized
		}
		if sender != s.CalleeID {
			return domain.ErrInvalidTransition
		}
		next, err := domain.NextState(s.State, domain.EventReject)
		if err != nil {
			return err
		}
		s.State = next
		return nil
	})
	if err != nil {
		return err
	}

	sess, ok := e.Store.Remove(callID)
	if !ok {
		return nil
	}
	metrics.CallsEndedTotal.WithLabelValues(string(domain.ReasonRejected)).Inc()
	e.Delivery.Deliver(sess.CallerID, RejectedEvent{Event: core.EvCallRejected, CallID: callID})
	return nil
}

// Offer relays an SDP offer to the other participant. Either side may send
// the first offer; the offer/answer sub-protocol is independent of who
// initiated the call.
func (e *Engine) Offer(callID domain.CallID, sender domain.UserID, sdp string) error {
	sess, err := e.Store.Apply(callID, func(s *domain.CallSession) error {
		if !s.HasParticipant(sender) {
			return domain.ErrUnauthorized
		}
		next, err := domain.NextState(s.State, domain.EventOffer)
		if err != nil {
			return err
		}
		s.State = next
		s.LastOfferFrom = sender
		s.Answered = false
		return nil
	})
	if err != nil {
		return err
	}
	e.Delivery.Deliver(sess.OtherParty(sender), SDPEvent{Event: core.EvCallOffer, CallID: callID, SenderID: sender, SDP: sdp})
	return nil
}

// Answer relays an SDP answer; it must come from the non-offering side.
func (e *Engine) Answer(callID domain.CallID, sender domain.UserID, sdp string) error {
	sess, err := e.Store.Apply(callID, func(s *domain.CallSession) error {
		if !s.HasParticipant(sender) {
			return domain.ErrUnauthorized
		}
		if s.LastOfferFrom == "" || s.LastOfferFrom == sender {
			return domain.ErrInvalidTransition
		}
		next, err := domain.NextState(s.State, domain.EventAnswer)
		if err != nil {
			return err
		}
		s.State = next
		s.Answered = true
		return nil
	})
	if err != nil {
		return err
	}
	e.Delivery.Deliver(sess.OtherParty(sender), SDPEvent{Event: core.EvCallAnswer, CallID: callID, SenderID: sender, SDP: sdp})
	return nil
}

// Candidate relays an ICE candidate without changing state. Candidates for
// a call that no longer exists are late arrivals from a torn-down
// negotiation and are dropped silently.
func (e *Engine) Candidate(callID domain.CallID, sender domain.UserID, candidate string) error {
	sess, err := e.Store.Apply(callID, func(s *domain.CallSession) error {
		if !s.HasParticipant(sender) {
			return domain.ErrUnauthorized
		}
		_, err := domain.NextState(s.State, domain.EventCandidate)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	e.Delivery.Deliver(sess.OtherParty(sender), CandidateEvent{Event: core.EvCallCandidate, CallID: callID, SenderID: sender, Candidate: candidate})
	return nil
}

// End tears the session down on behalf of a participant. The other side's
// devices all learn about the hangup; so do the sender's other devices, so
// every screen settles on the same call state.
func (e *Engine) End(callID domain.CallID, sender domain.UserID, conn core.SignalConnection) error {
	_, err := e.Store.Apply(callID, func(s *domain.CallSession) error {
		if !s.HasParticipant(sender) {
			return domain.ErrUnauthorized
		}
		next, err := domain.NextState(s.State, domain.EventEnd)
		if err != nil {
			return err
		}
		s.State = next
		return nil
	})
	if err != nil {
		return err
	}

	sess, ok := e.Store.Remove(callID)
	if !ok {
		return nil
	}
	metrics.CallsEndedTotal.WithLabelValues(string(domain.ReasonHangup)).Inc()
	e.Delivery.Deliver(sess.OtherParty(sender), newEnded(callID, domain.ReasonHangup))
	e.Delivery.DeliverExcept(sender, conn, newEnded(callID, domain.ReasonHangup))
	log.Info().Str("module", "app.engine").Str("call", string(callID)).Str("by", string(sender)).Msg("call ended")
	return nil
}

// Expire is the supervisor's teardown path. The Remove claim guarantees
// both parties are notified exactly once even when a hangup races the
// sweep.
func (e *Engine) Expire(callID domain.CallID, reason domain.EndReason) {
	sess, ok := e.Store.Remove(callID)
	if !ok {
		return
	}
	metrics.CallsEndedTotal.WithLabelValues(string(reason)).Inc()
	ev := newEnded(callID, reason)
	e.Delivery.Deliver(sess.CallerID, ev)
	e.Delivery.Deliver(sess.CalleeID, ev)
	log.Info().Str("module", "app.engine").Str("call", string(callID)).Str("reason", string(reason)).Msg("call expired")
}

// Disconnect tears down every session the user participates in, once the
// user's last connection is gone, and notifies the surviving peer.
func (e *Engine) Disconnect(uid domain.UserID) {
	for _, sess := range e.Store.Snapshot() {
		if !sess.HasParticipant(uid) {
			continue
		}
		claimed, ok := e.Store.Remove(sess.CallID)
		if !ok {
			continue
		}
		metrics.CallsEndedTotal.WithLabelValues(string(domain.ReasonPeerDisconnected)).Inc()
		e.Delivery.Deliver(claimed.OtherParty(uid), newEnded(claimed.CallID, domain.ReasonPeerDisconnected))
		log.Info().Str("module", "app.engine").Str("call", string(claimed.CallID)).
			Str("user", string(uid)).Msg("session torn down on disconnect")
	}
}
