package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/missions-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
	userService services.UserService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

type loginRequest struct {
	FirebaseToken string `json:"firebaseToken" binding:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "firebaseToken is required")
		return
	}
	user, created, err := h.authService.LoginOrRegister(c.Request.Context(), req.FirebaseToken)
	if err != nil {
		respondErr(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"user": user})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	me, err := h.userService.GetMe(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": me})
}
