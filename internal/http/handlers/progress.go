package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/missions-backend/internal/http/response"
	"github.com/yungbote/missions-backend/internal/services"
)

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /api/progress
func (h *ProgressHandler) Get(c *gin.Context) {
	out, err := h.progress.GetUserProgress(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/progress/journey/:id
func (h *ProgressHandler) Journey(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	out, err := h.progress.GetJourneyProgress(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
