package learning

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type JourneyRepo interface {
	List(dbc dbctx.Context) ([]*types.Journey, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Journey, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Journey, error)
	// First returns the journey with the lowest order.
	First(dbc dbctx.Context) (*types.Journey, error)
	// Next returns the journey following the given curriculum order.
	Next(dbc dbctx.Context, afterOrder int) (*types.Journey, error)
	Upsert(dbc dbctx.Context, journeys []*types.Journey) error
}

type journeyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJourneyRepo(db *gorm.DB, baseLog *logger.Logger) JourneyRepo {
	return &journeyRepo{db: db, log: baseLog.With("repo", "JourneyRepo")}
}

func (r *journeyRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *journeyRepo) List(dbc dbctx.Context) ([]*types.Journey, error) {
	var results []*types.Journey
	if err := byOrder(r.tx(dbc), false).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *journeyRepo) GetByID(dbc dbctx.Context, id uint) (*types.Journey, error) {
	if id == 0 {
		return nil, nil
	}
	var row types.Journey
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *journeyRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Journey, error) {
	var results []*types.Journey
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.tx(dbc).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *journeyRepo) First(dbc dbctx.Context) (*types.Journey, error) {
	var row types.Journey
	if err := byOrder(r.tx(dbc), false).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *journeyRepo) Next(dbc dbctx.Context, afterOrder int) (*types.Journey, error) {
	var row types.Journey
	if err := byOrder(r.tx(dbc).Where(`"order" > ?`, afterOrder), false).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *journeyRepo) Upsert(dbc dbctx.Context, journeys []*types.Journey) error {
	if len(journeys) == 0 {
		return nil
	}
	return r.tx(dbc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"order", "name", "title", "description", "color", "icon", "required_missions", "updated_at"}),
	}).Omit(clause.Associations).Create(&journeys).Error
}
