package core

// Wire event names, inbound and outbound. The outbound-only names
// (ringing, incoming, accepted, rejected, ended, error) are never
// accepted from clients.
const (
	EvCallStart     = "call:start"
	EvCallRinging   = "call:ringing"
	EvCallIncoming  = "call:incoming"
	EvCallAccept    = "call:accept"
	EvCallAccepted  = "call:accepted"
	EvCallReject    = "call:reject"
	EvCallRejected  = "call:rejected"
	EvCallOffer     = "call:offer"
	EvCallAnswer    = "call:answer"
	EvCallCandidate = "call:ice-candidate"
	EvCallEnd       = "call:end"
	EvCallEnded     = "call:ended"
	EvCallError     = "call:error"
)
