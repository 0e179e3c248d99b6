package core

import "github.com/dkeye/Mesh/internal/domain"

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	meta *domain.User
	conn SignalConnection
}

func NewMemberSession(meta *domain.User, conn SignalConnection) MemberSession {
	return &memberSession{meta: meta, conn: conn}
}

func (m *memberSession) Meta() *domain.User       { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.conn }
