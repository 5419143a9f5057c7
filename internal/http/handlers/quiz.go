package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/missions-backend/internal/http/response"
	"github.com/yungbote/missions-backend/internal/services"
)

type QuizHandler struct {
	quiz services.QuizService
}

func NewQuizHandler(quiz services.QuizService) *QuizHandler {
	return &QuizHandler{quiz: quiz}
}

type submitQuizRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// GET /api/quiz/:missionId
func (h *QuizHandler) Questions(c *gin.Context) {
	id, ok := uintParam(c, "missionId")
	if !ok {
		return
	}
	out, err := h.quiz.GetQuestions(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/quiz/:missionId/status
func (h *QuizHandler) Status(c *gin.Context) {
	id, ok := uintParam(c, "missionId")
	if !ok {
		return
	}
	out, err := h.quiz.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/quiz/:missionId/submit
// body: { "answers": { "<questionId>": "<optionId>" } }
func (h *QuizHandler) Submit(c *gin.Context) {
	id, ok := uintParam(c, "missionId")
	if !ok {
		return
	}
	var req submitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "answers are required")
		return
	}
	out, err := h.quiz.Submit(c.Request.Context(), id, req.Answers)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/quiz/:missionId/attempts
func (h *QuizHandler) Attempts(c *gin.Context) {
	id, ok := uintParam(c, "missionId")
	if !ok {
		return
	}
	out, err := h.quiz.GetAttempts(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
