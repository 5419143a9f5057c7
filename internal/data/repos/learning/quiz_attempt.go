package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

// QuizAttemptRepo is append-only: attempts are never updated or deleted.
type QuizAttemptRepo interface {
	Create(dbc dbctx.Context, attempt *types.QuizAttempt) (*types.QuizAttempt, error)
	// ListSince returns attempts created strictly after since, newest first.
	// An attempt exactly one window old has aged out.
	ListSince(dbc dbctx.Context, userID uuid.UUID, missionID uint, since time.Time) ([]*types.QuizAttempt, error)
	ListByUserMission(dbc dbctx.Context, userID uuid.UUID, missionID uint) ([]*types.QuizAttempt, error)
}

type quizAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	repoLog := baseLog.With("repo", "QuizAttemptRepo")
	return &quizAttemptRepo{db: db, log: repoLog}
}

func (r *quizAttemptRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *quizAttemptRepo) Create(dbc dbctx.Context, attempt *types.QuizAttempt) (*types.QuizAttempt, error) {
	if attempt == nil {
		return nil, nil
	}
	if err := r.tx(dbc).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *quizAttemptRepo) ListSince(dbc dbctx.Context, userID uuid.UUID, missionID uint, since time.Time) ([]*types.QuizAttempt, error) {
	var results []*types.QuizAttempt
	if userID == uuid.Nil || missionID == 0 {
		return results, nil
	}
	err := r.tx(dbc).
		Where("user_id = ? AND mission_id = ? AND created_at > ?", userID, missionID, since).
		Order("created_at DESC").
		Order("attempt_number DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizAttemptRepo) ListByUserMission(dbc dbctx.Context, userID uuid.UUID, missionID uint) ([]*types.QuizAttempt, error) {
	var results []*types.QuizAttempt
	if userID == uuid.Nil || missionID == 0 {
		return results, nil
	}
	err := r.tx(dbc).
		Where("user_id = ? AND mission_id = ?", userID, missionID).
		Order("created_at DESC").
		Order("attempt_number DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
