package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hverma/ringline/internal/app"
	"github.com/hverma/ringline/internal/config"
	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// CallWSController owns the WebSocket surface: it upgrades connections,
// registers them, and feeds decoded events into the signaling engine.
type CallWSController struct {
	Engine   *app.Engine
	Registry *app.Registry
	Cfg      *config.Config
}

func NewCallWSController(engine *app.Engine, reg *app.Registry, cfg *config.Config) *CallWSController {
	return &CallWSController{Engine: engine, Registry: reg, Cfg: cfg}
}

// wsConn pairs a gorilla connection with a buffered send channel. TrySend
// never blocks; a full buffer means the client is too slow and the send
// counts as failed.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleCall upgrades an authenticated request and serves it until the
// transport dies. When the user's last connection goes away the engine
// tears down every session they participate in.
func (ctl *CallWSController) HandleCall(ctx context.Context, c *gin.Context) {
	user := domain.User{
		ID:       domain.UserID(c.GetString("user_id")),
		Username: c.GetString("username"),
	}
	log.Info().Str("module", "signal").Str("user", string(user.ID)).
		Str("username", user.Username).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	ctl.Registry.Register(user.ID, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, user.ID, conn)
		if owner, wasLast := ctl.Registry.Unregister(conn); wasLast {
			ctl.Engine.Disconnect(owner)
		}
		conn.Close()
	}()
}
