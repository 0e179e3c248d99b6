package http

import (
	"net/http"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
)

// RoomLister is the read side of the registry the API needs.
type RoomLister interface {
	Rooms() []core.RoomInfo
}

type Handlers struct {
	rooms      RoomLister
	iceServers []webrtc.ICEServer
}

func NewHandlers(rooms RoomLister, iceServers []webrtc.ICEServer) *Handlers {
	if iceServers == nil {
		iceServers = []webrtc.ICEServer{}
	}
	return &Handlers{rooms: rooms, iceServers: iceServers}
}

func (h *Handlers) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) Rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.rooms.Rooms()})
}

// ICEServers hands clients the STUN/TURN servers for their peer connections.
func (h *Handlers) ICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.iceServers})
}
