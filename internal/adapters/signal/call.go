package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/hverma/ringline/internal/app"
	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
	"github.com/hverma/ringline/internal/metrics"
)

// errorEvent is the synchronous guard-failure response. It goes to the
// offending connection only, never to the peer.
type errorEvent struct {
	Event   string        `json:"event"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	CallID  domain.CallID `json:"callId,omitempty"`
}

func (ctl *CallWSController) sendError(c *wsConn, code, msg string, callID domain.CallID) {
	metrics.SignalErrorsTotal.WithLabelValues(code).Inc()
	ctl.sendJSON(c, errorEvent{Event: core.EvCallError, Code: code, Message: msg, CallID: callID})
}

func (ctl *CallWSController) reportErr(c *wsConn, err error, callID domain.CallID) {
	if err == nil {
		return
	}
	ctl.sendError(c, domain.ErrorCode(err), err.Error(), callID)
}

func (ctl *CallWSController) handleStart(uid domain.UserID, c *wsConn, data []byte) {
	var p struct {
		RecipientID string `json:"recipientId"`
		IsVideo     bool   `json:"isVideo"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RecipientID == "" {
		ctl.sendError(c, "bad_payload", "recipientId required", "")
		return
	}
	callee := domain.UserID(p.RecipientID)
	if callee == uid {
		ctl.sendError(c, "bad_payload", "cannot call yourself", "")
		return
	}

	sess, err := ctl.Engine.Start(uid, callee, p.IsVideo)
	if err != nil {
		ctl.reportErr(c, err, "")
		return
	}
	// Ack with the call id so the caller can address the session from now on.
	ctl.sendJSON(c, app.RingingEvent{
		Event:    core.EvCallRinging,
		CallID:   sess.CallID,
		CalleeID: sess.CalleeID,
		IsVideo:  sess.IsVideo,
	})
}

func (ctl *CallWSController) handleAccept(uid domain.UserID, c *wsConn, data []byte) {
	callID, ok := ctl.callID(c, data)
	if !ok {
		return
	}
	ctl.reportErr(c, ctl.Engine.Accept(callID, uid, c), callID)
}

func (ctl *CallWSController) handleReject(uid domain.UserID, c *wsConn, data []byte) {
	callID, ok := ctl.callID(c, data)
	if !ok {
		return
	}
	ctl.reportErr(c, ctl.Engine.Reject(callID, uid), callID)
}

func (ctl *CallWSController) handleOffer(uid domain.UserID, c *wsConn, data []byte) {
	var p struct {
		CallID domain.CallID `json:"callId"`
		SDP    string        `json:"sdp"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" || p.SDP == "" {
		ctl.sendError(c, "bad_payload", "callId and sdp required", p.CallID)
		return
	}
	ctl.reportErr(c, ctl.Engine.Offer(p.CallID, uid, p.SDP), p.CallID)
}

func (ctl *CallWSController) handleAnswer(uid domain.UserID, c *wsConn, data []byte) {
	var p struct {
		CallID domain.CallID `json:"callId"`
		SDP    string        `json:"sdp"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" || p.SDP == "" {
		ctl.sendError(c, "bad_payload", "callId and sdp required", p.CallID)
		return
	}
	ctl.reportErr(c, ctl.Engine.Answer(p.CallID, uid, p.SDP), p.CallID)
}

func (ctl *CallWSController) handleCandidate(uid domain.UserID, c *wsConn, data []byte) {
	var p struct {
		CallID    domain.CallID `json:"callId"`
		Candidate string        `json:"candidate"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" || p.Candidate == "" {
		ctl.sendError(c, "bad_payload", "callId and candidate required", p.CallID)
		return
	}
	ctl.reportErr(c, ctl.Engine.Candidate(p.CallID, uid, p.Candidate), p.CallID)
}

func (ctl *CallWSController) handleEnd(uid domain.UserID, c *wsConn, data []byte) {
	callID, ok := ctl.callID(c, data)
	if !ok {
		return
	}
	ctl.reportErr(c, ctl.Engine.End(callID, uid, c), callID)
}

func (ctl *CallWSController) callID(c *wsConn, data []byte) (domain.CallID, bool) {
	var p struct {
		CallID domain.CallID `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" {
		log.Debug().Str("module", "signal").Msg("missing callId")
		ctl.sendError(c, "bad_payload", "callId required", "")
		return "", false
	}
	return p.CallID, true
}
