package learning

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type CardRepo interface {
	ListByMission(dbc dbctx.Context, missionID uint) ([]*types.Card, error)
	Upsert(dbc dbctx.Context, cards []*types.Card) error
}

type cardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCardRepo(db *gorm.DB, baseLog *logger.Logger) CardRepo {
	return &cardRepo{db: db, log: baseLog.With("repo", "CardRepo")}
}

func (r *cardRepo) ListByMission(dbc dbctx.Context, missionID uint) ([]*types.Card, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Card
	if missionID == 0 {
		return results, nil
	}
	q := transaction.WithContext(dbc.Ctx).Where("mission_id = ?", missionID)
	if err := byOrder(q, false).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *cardRepo) Upsert(dbc dbctx.Context, cards []*types.Card) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(cards) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mission_id", "type", "icon", "title", "content", "order"}),
	}).Create(&cards).Error
}
