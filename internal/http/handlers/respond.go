package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/http/response"
	"github.com/yungbote/missions-backend/internal/platform/apierr"
	"github.com/yungbote/missions-backend/internal/services"
)

// toAPIError maps service and aggregate errors onto status codes.
func toAPIError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	var quota *services.QuotaExhaustedError
	switch {
	case errors.As(err, &quota):
		return apierr.New(http.StatusForbidden, "quota_exhausted", services.ErrQuotaExhausted).
			WithDetail("nextAttemptAt", quota.NextAttemptAt.UTC().Format(time.RFC3339))
	case errors.Is(err, services.ErrMissionNotAvailable):
		return apierr.New(http.StatusForbidden, "mission_not_available", services.ErrMissionNotAvailable)
	case errors.Is(err, services.ErrQuizAlreadyPassed):
		return apierr.New(http.StatusForbidden, "quiz_already_passed", services.ErrQuizAlreadyPassed)
	case errors.Is(err, services.ErrSubmissionInProgress):
		return apierr.New(http.StatusConflict, "submission_in_progress", err)
	case errors.Is(err, services.ErrJourneyNotCompleted):
		return apierr.New(http.StatusConflict, "journey_not_completed", services.ErrJourneyNotCompleted)
	case errors.Is(err, services.ErrNoQuestions),
		errors.Is(err, services.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		domainagg.IsCode(err, domainagg.CodeNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrInvalidRequest),
		domainagg.IsCode(err, domainagg.CodeValidation):
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, services.ErrUnauthorized):
		return apierr.New(http.StatusUnauthorized, "unauthorized", services.ErrUnauthorized)
	case domainagg.IsCode(err, domainagg.CodeConflict):
		return apierr.New(http.StatusConflict, "conflict", err)
	case errors.Is(err, services.ErrRetryable),
		domainagg.IsCode(err, domainagg.CodeRetryable):
		return apierr.New(http.StatusServiceUnavailable, "retryable", err)
	}
	return apierr.New(http.StatusInternalServerError, "internal", err)
}

func respondErr(c *gin.Context, err error) {
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.RespondAPIError(c, ae)
}

func badRequest(c *gin.Context, format string, args ...any) {
	response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf(format, args...))
}

// uintParam parses a positive integer path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		badRequest(c, "%s must be a positive integer", name)
		return 0, false
	}
	return uint(n), true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		badRequest(c, "%s must be a uuid", name)
		return uuid.Nil, false
	}
	return id, true
}
