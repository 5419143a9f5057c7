package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/missions-backend/internal/http/response"
	"github.com/yungbote/missions-backend/internal/services"
)

type JourneyHandler struct {
	journeys services.JourneyService
}

func NewJourneyHandler(journeys services.JourneyService) *JourneyHandler {
	return &JourneyHandler{journeys: journeys}
}

// GET /api/journeys
func (h *JourneyHandler) List(c *gin.Context) {
	out, err := h.journeys.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/journeys/:id
func (h *JourneyHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	out, err := h.journeys.GetWithProgress(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
