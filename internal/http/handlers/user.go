package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/missions-backend/internal/http/response"
	"github.com/yungbote/missions-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/users/profile
func (uh *UserHandler) GetProfile(c *gin.Context) {
	profile, err := uh.userService.GetProfile(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, profile)
}

// PATCH /api/users/preferences
// body: { "operatingSystem": "windows" | "mac" | "linux", "onboardingCompleted": bool }
func (uh *UserHandler) UpdatePreferences(c *gin.Context) {
	var req services.UpdatePreferencesInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	u, err := uh.userService.UpdatePreferences(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, u)
}
