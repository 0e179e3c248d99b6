package signal

import (
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendEvent(conn, core.EventPong)
}

func (ctl *SignalWSController) sendWelcome(sid core.SessionID, conn *WsSignalConn) {
	ctl.sendEvent(conn, core.EventWelcome, struct {
		PeerID core.SessionID `json:"peerId"`
	}{sid})
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, conn *WsSignalConn) {
	info, ok := ctl.Orch.Registry.Lookup(sid)
	if !ok {
		return
	}
	resp := struct {
		PeerID   core.SessionID  `json:"peerId"`
		UserName string          `json:"userName"`
		Room     domain.RoomName `json:"room,omitempty"`
		InRoom   bool            `json:"inRoom"`
	}{
		PeerID:   sid,
		UserName: info.Name,
	}
	if info.State == core.StateInRoom {
		resp.Room = info.RoomName
		resp.InRoom = true
	}
	ctl.sendEvent(conn, core.EventWhoAmI, resp)
}
