package learning

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type QuizQuestionRepo interface {
	// ListByMission returns questions in quiz order, answers included.
	ListByMission(dbc dbctx.Context, missionID uint) ([]*types.QuizQuestion, error)
	CountByMission(dbc dbctx.Context, missionID uint) (int64, error)
	Upsert(dbc dbctx.Context, questions []*types.QuizQuestion) error
}

type quizQuestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return &quizQuestionRepo{db: db, log: baseLog.With("repo", "QuizQuestionRepo")}
}

func (r *quizQuestionRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *quizQuestionRepo) ListByMission(dbc dbctx.Context, missionID uint) ([]*types.QuizQuestion, error) {
	var results []*types.QuizQuestion
	if missionID == 0 {
		return results, nil
	}
	if err := byOrder(r.tx(dbc).Where("mission_id = ?", missionID), false).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizQuestionRepo) CountByMission(dbc dbctx.Context, missionID uint) (int64, error) {
	var n int64
	if err := r.tx(dbc).Model(&types.QuizQuestion{}).Where("mission_id = ?", missionID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *quizQuestionRepo) Upsert(dbc dbctx.Context, questions []*types.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.tx(dbc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mission_id", "question", "options", "correct_id", "explanation", "order"}),
	}).Create(&questions).Error
}
