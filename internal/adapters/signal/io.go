package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		// A dead writer means a dead connection; closing it unblocks readPump.
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn, stop func()) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.Disconnect(sid)
		if ctl.chat != nil {
			ctl.chat.Forget(sid)
		}
		stop()
	}()

	if ctl.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.opts.ReadLimit)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			logReadError(sid, err)
			return
		}
		// Any inbound traffic proves liveness.
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
		ctl.handleFrame(sid, c, data)
	}
}

func logReadError(sid core.SessionID, err error) {
	ev := log.Info()
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		ev = log.Warn()
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		ev = log.Warn()
	}
	ev.Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
}

// handleFrame decodes one inbound event. Control events are answered
// here; everything else goes to the orchestrator.
func (ctl *SignalWSController) handleFrame(sid core.SessionID, c *WsSignalConn, data []byte) {
	ev, err := core.DecodeEvent(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		return
	}

	switch ev.Name {
	case core.EventPing:
		ctl.handlePing(c)
	case core.EventWhoAmI:
		ctl.handleWhoAmI(sid, c)
	case core.EventRoomChat:
		if !ctl.allowChat(sid) {
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("chat rate limited")
			return
		}
		ctl.Orch.Handle(sid, ev)
	default:
		ctl.Orch.Handle(sid, ev)
	}
}

func (ctl *SignalWSController) sendEvent(c *WsSignalConn, name string, args ...any) {
	frame, err := core.EncodeEvent(name, args...)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", name).Msg("sendEvent encode")
		return
	}
	if err := c.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("event", name).Msg("sendEvent")
	}
}
