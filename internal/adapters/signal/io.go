package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *CallWSController) writePump(ctx context.Context, c *wsConn) {
	ping := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *CallWSController) readPump(ctx context.Context, uid domain.UserID, c *wsConn) {
	defer log.Info().Str("module", "signal").Str("user", string(uid)).Msg("readPump closing")

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	readWait := ctl.Cfg.PingPeriod + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("user", string(uid)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
			ctl.dispatch(uid, c, data)
		}
	}
}

func (ctl *CallWSController) dispatch(uid domain.UserID, c *wsConn, data []byte) {
	var env struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload", "malformed message", "")
		return
	}

	switch env.Event {
	case core.EvCallStart:
		ctl.handleStart(uid, c, data)
	case core.EvCallAccept:
		ctl.handleAccept(uid, c, data)
	case core.EvCallReject:
		ctl.handleReject(uid, c, data)
	case core.EvCallOffer:
		ctl.handleOffer(uid, c, data)
	case core.EvCallAnswer:
		ctl.handleAnswer(uid, c, data)
	case core.EvCallCandidate:
		ctl.handleCandidate(uid, c, data)
	case core.EvCallEnd:
		ctl.handleEnd(uid, c, data)
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
		ctl.sendError(c, "bad_payload", "unknown event", "")
	}
}

func (ctl *CallWSController) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
