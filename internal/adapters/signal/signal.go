package signal

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Mesh/internal/app/orch"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Options tunes the WebSocket side of the relay.
type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	AllowedOrigins []string
	ChatLimit      int
	ChatInterval   time.Duration
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	opts     Options
	origins  originPolicy
	chat     *RoomRateLimiter
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = opts.PongWait * 9 / 10
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 5 * time.Second
	}

	ctl := &SignalWSController{
		Orch:    o,
		opts:    opts,
		origins: newOriginPolicy(opts.AllowedOrigins),
	}
	if opts.ChatLimit > 0 {
		ctl.chat = NewRoomRateLimiter(opts.ChatLimit, opts.ChatInterval)
	}
	ctl.upgrader = websocket.Upgrader{CheckOrigin: ctl.origins.check}
	return ctl
}

// WsSignalConn is the outbound side of one WebSocket. Frames are queued
// on a bounded channel drained by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
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

// HandleSignal upgrades the request and runs the connection until the
// peer goes away or ctx is canceled.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	logger := log.With().Str("module", "signal").Str("sid", string(sid)).
		Str("client_token", c.GetString(ClientTokenKey)).Logger()

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error().Err(err).Msg("ws upgrade")
		return
	}
	logger.Info().Str("remote", c.Request.RemoteAddr).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := func() {
		cancel()
		conn.Close()
	}
	sess := core.NewMemberSession(domain.NewUser(domain.UserID(sid), ""), conn)
	ctl.Orch.Connect(sid, sess, stop)
	ctl.sendWelcome(sid, conn)

	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, sid, conn, stop)
}

// ClientTokenKey is the gin context key holding the browser's client token.
const ClientTokenKey = "client_token"
