package http

import (
	"net/http"

	"github.com/Ayush94-1708/music-glass/internal/app/orch"
	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type handlers struct {
	orch       *orch.Orchestrator
	iceServers []string
}

type roomResponse struct {
	Code        domain.RoomCode       `json:"code"`
	MemberCount int                   `json:"memberCount"`
	HostName    string                `json:"hostName"`
	Members     []protocol.Member     `json:"members"`
	State       domain.TransportState `json:"state"`
	Likes       domain.Likes          `json:"likes"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"rooms":       len(h.orch.Rooms.List()),
		"connections": h.orch.Registry.Count(),
	})
}

// GET /api/rooms
func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List()})
}

// GET /api/rooms/:code
func (h *handlers) getRoom(c *gin.Context) {
	room, ok := h.orch.Rooms.Lookup(domain.NormalizeRoomCode(c.Param("code")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrRoomNotFound.Error()})
		return
	}
	info := room.Info()
	c.JSON(http.StatusOK, roomResponse{
		Code:        info.Code,
		MemberCount: info.MemberCount,
		HostName:    info.HostName,
		Members:     room.MembersSnapshot(),
		State:       room.State(),
		Likes:       room.Likes(),
	})
}

// GET /api/rooms/:code/messages
func (h *handlers) roomMessages(c *gin.Context) {
	code := domain.NormalizeRoomCode(c.Param("code"))
	msgs, err := h.orch.History(c.Request.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(code)).Msg("chat history")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomCode": code, "messages": msgs})
}

// GET /api/rtc/config
func (h *handlers) rtcConfig(c *gin.Context) {
	servers := make([]gin.H, 0, len(h.iceServers))
	for _, url := range h.iceServers {
		servers = append(servers, gin.H{"urls": []string{url}})
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}
