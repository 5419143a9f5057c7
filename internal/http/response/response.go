package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/missions-backend/internal/platform/apierr"
)

type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError writes e's envelope. Internal errors never leak their text.
func RespondAPIError(c *gin.Context, e *apierr.Error) {
	if e == nil {
		e = apierr.New(http.StatusInternalServerError, "internal", nil)
	}
	msg := e.Error()
	if e.Status >= http.StatusInternalServerError && e.Code == "internal" {
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(e.Status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    e.Code,
			Details: e.Details,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
