package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/platform/ctxutil"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrMissionNotAvailable  = errors.New("mission not available")
	ErrQuizAlreadyPassed    = errors.New("quiz already passed")
	ErrQuotaExhausted       = errors.New("quiz attempts exhausted")
	ErrSubmissionInProgress = errors.New("quiz submission already in progress")
	ErrNoQuestions          = errors.New("no questions configured for this mission")
	ErrJourneyNotCompleted  = errors.New("journey not completed")
	// ErrRetryable marks failures of rendering or storage that a later
	// attempt may clear.
	ErrRetryable = errors.New("temporarily unavailable")
)

// QuotaExhaustedError carries when the oldest attempt in the window ages out.
type QuotaExhaustedError struct {
	NextAttemptAt time.Time
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("%s; next attempt at %s", ErrQuotaExhausted, e.NextAttemptAt.UTC().Format(time.RFC3339))
}

func (e *QuotaExhaustedError) Is(target error) bool { return target == ErrQuotaExhausted }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// translateAggregateError folds aggregate reasons into the service taxonomy.
// Codes without a service meaning pass through for the HTTP layer to map.
func translateAggregateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domainagg.ErrMissionLocked):
		return fmt.Errorf("%w: %w", ErrMissionNotAvailable, err)
	case errors.Is(err, domainagg.ErrQuizAlreadyPassed):
		return fmt.Errorf("%w: %w", ErrQuizAlreadyPassed, err)
	case errors.Is(err, domainagg.ErrJourneyIncomplete):
		return fmt.Errorf("%w: %w", ErrJourneyNotCompleted, err)
	case domainagg.IsCode(err, domainagg.CodeNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// currentUserID reads the authenticated caller from request data.
func currentUserID(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, ErrUnauthorized
	}
	return rd.UserID, nil
}
