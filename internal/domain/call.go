package domain

import (
	"time"

	"github.com/google/uuid"
)

type CallID string

type CallState string

const (
	StateRinging  CallState = "ringing"
	StateActive   CallState = "active"
	StateRejected CallState = "rejected"
	StateEnded    CallState = "ended"
)

// EndReason tells the surviving party why a session went away.
type EndReason string

const (
	ReasonHangup             EndReason = "hangup"
	ReasonRejected           EndReason = "rejected"
	ReasonTimeout            EndReason = "timeout"
	ReasonNegotiationTimeout EndReason = "negotiation_timeout"
	ReasonPeerDisconnected   EndReason = "peer_disconnected"
	ReasonSuperseded         EndReason = "superseded"
)

// Event is a signaling state-machine input.
type Event string

const (
	EventStart     Event = "start"
	EventAccept    Event = "accept"
	EventReject    Event = "reject"
	EventOffer     Event = "offer"
	EventAnswer    Event = "answer"
	EventCandidate Event = "candidate"
	EventEnd       Event = "end"
)

// CallSession tracks one call negotiation from start to termination.
// It is owned by the signaling engine and only mutated through the
// session store, which serializes mutations per call id.
type CallSession struct {
	CallID   CallID
	CallerID UserID
	CalleeID UserID
	State    CallState
	IsVideo  bool

	CreatedAt      time.Time
	LastActivityAt time.Time

	// Negotiation bookkeeping for role guards.
	Accepted      bool
	LastOfferFrom UserID
	Answered      bool
}

func NewCallSession(caller, callee UserID, isVideo bool, now time.Time) *CallSession {
	return &CallSession{
		CallID:         CallID(uuid.NewString()),
		CallerID:       caller,
		CalleeID:       callee,
		State:          StateRinging,
		IsVideo:        isVideo,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

func (s *CallSession) HasParticipant(uid UserID) bool {
	return uid == s.CallerID || uid == s.CalleeID
}

// OtherParty returns the participant opposite to uid. Callers must check
// HasParticipant first.
func (s *CallSession) OtherParty(uid UserID) UserID {
	if uid == s.CallerID {
		return s.CalleeID
	}
	return s.CallerID
}

func (s *CallSession) Terminal() bool {
	return s.State == StateEnded || s.State == StateRejected
}

// PairKey is an order-independent key for a participant pair, used to
// enforce the one-active-session-per-pair invariant.
func PairKey(a, b UserID) string {
	if a > b {
		a, b = b, a
	}
	return string(a) + "|" + string(b)
}

// transitions is the (state, event) lookup table. Role guards (who may send
// what) live in the engine; this table only answers which state an event
// leads to. end is valid from every non-terminal state.
var transitions = map[CallState]map[Event]CallState{
	StateRinging: {
		EventAccept:    StateRinging,
		EventReject:    StateRejected,
		EventOffer:     StateActive,
		EventCandidate: StateRinging,
		EventEnd:       StateEnded,
	},
	StateActive: {
		EventOffer:     StateActive,
		EventAnswer:    StateActive,
		EventCandidate: StateActive,
		EventEnd:       StateEnded,
	},
}

// NextState resolves the transition table. ErrInvalidTransition when the
// event is not defined for the current state.
func NextState(state CallState, event Event) (CallState, error) {
	if m, ok := transitions[state]; ok {
		if next, ok := m[event]; ok {
			return next, nil
		}
	}
	return state, ErrInvalidTransition
}
