package app

import (
	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
)

// Outbound wire payloads. Field names follow the client protocol
// (camelCase ids, opaque sdp/candidate strings).

type RingingEvent struct {
	Event    string        `json:"event"`
	CallID   domain.CallID `json:"callId"`
	CalleeID domain.UserID `json:"calleeId"`
	IsVideo  bool          `json:"isVideo"`
}

type IncomingEvent struct {
	Event    string        `json:"event"`
	CallID   domain.CallID `json:"callId"`
	CallerID domain.UserID `json:"callerId"`
	IsVideo  bool          `json:"isVideo"`
}

type AcceptedEvent struct {
	Event      string        `json:"event"`
	CallID     domain.CallID `json:"callId"`
	AcceptorID domain.UserID `json:"acceptorId"`
}

type RejectedEvent struct {
	Event  string        `json:"event"`
	CallID domain.CallID `json:"callId"`
}

type SDPEvent struct {
	Event    string        `json:"event"`
	CallID   domain.CallID `json:"callId"`
	SenderID domain.UserID `json:"senderId"`
	SDP      string        `json:"sdp"`
}

type CandidateEvent struct {
	Event     string        `json:"event"`
	CallID    domain.CallID `json:"callId"`
	SenderID  domain.UserID `json:"senderId"`
	Candidate string        `json:"candidate"`
}

type EndedEvent struct {
	Event  string           `json:"event"`
	CallID domain.CallID    `json:"callId"`
	Reason domain.EndReason `json:"reason"`
}

func newIncoming(s domain.CallSession) IncomingEvent {
	return IncomingEvent{Event: core.EvCallIncoming, CallID: s.CallID, CallerID: s.CallerID, IsVideo: s.IsVideo}
}

func newEnded(id domain.CallID, reason domain.EndReason) EndedEvent {
	return EndedEvent{Event: core.EvCallEnded, CallID: id, Reason: reason}
}
