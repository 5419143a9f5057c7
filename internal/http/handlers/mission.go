package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/missions-backend/internal/http/response"
	"github.com/yungbote/missions-backend/internal/services"
)

type MissionHandler struct {
	missions services.MissionService
}

func NewMissionHandler(missions services.MissionService) *MissionHandler {
	return &MissionHandler{missions: missions}
}

// GET /api/missions/:id
func (h *MissionHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	out, err := h.missions.GetMissionWithProgress(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/missions/:id/start
func (h *MissionHandler) Start(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	out, err := h.missions.StartMission(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/missions/:id/cards
func (h *MissionHandler) Cards(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	out, err := h.missions.GetCards(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
