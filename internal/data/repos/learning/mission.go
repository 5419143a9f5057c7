package learning

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type MissionRepo interface {
	GetByID(dbc dbctx.Context, id uint) (*types.Mission, error)
	// GetDetailed loads the mission with its journey and ordered cards.
	GetDetailed(dbc dbctx.Context, id uint) (*types.Mission, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Mission, error)
	ListByJourney(dbc dbctx.Context, journeyID uint) ([]*types.Mission, error)
	FirstInJourney(dbc dbctx.Context, journeyID uint) (*types.Mission, error)
	// NextInJourney returns the mission with the smallest order above afterOrder.
	NextInJourney(dbc dbctx.Context, journeyID uint, afterOrder int) (*types.Mission, error)
	CountByJourney(dbc dbctx.Context, journeyID uint) (int64, error)
	// CountByJourneys returns mission counts keyed by journey id.
	CountByJourneys(dbc dbctx.Context) (map[uint]int64, error)
	Upsert(dbc dbctx.Context, missions []*types.Mission) error
}

type missionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMissionRepo(db *gorm.DB, baseLog *logger.Logger) MissionRepo {
	return &missionRepo{db: db, log: baseLog.With("repo", "MissionRepo")}
}

func (r *missionRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *missionRepo) GetByID(dbc dbctx.Context, id uint) (*types.Mission, error) {
	if id == 0 {
		return nil, nil
	}
	var row types.Mission
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *missionRepo) GetDetailed(dbc dbctx.Context, id uint) (*types.Mission, error) {
	if id == 0 {
		return nil, nil
	}
	var row types.Mission
	err := r.tx(dbc).
		Preload("Journey").
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return byOrder(db, false) }).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *missionRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Mission, error) {
	var results []*types.Mission
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.tx(dbc).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *missionRepo) ListByJourney(dbc dbctx.Context, journeyID uint) ([]*types.Mission, error) {
	var results []*types.Mission
	if journeyID == 0 {
		return results, nil
	}
	if err := byOrder(r.tx(dbc).Where("journey_id = ?", journeyID), false).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *missionRepo) FirstInJourney(dbc dbctx.Context, journeyID uint) (*types.Mission, error) {
	return r.NextInJourney(dbc, journeyID, -1<<31)
}

func (r *missionRepo) NextInJourney(dbc dbctx.Context, journeyID uint, afterOrder int) (*types.Mission, error) {
	if journeyID == 0 {
		return nil, nil
	}
	var row types.Mission
	q := r.tx(dbc).Where(`journey_id = ? AND "order" > ?`, journeyID, afterOrder)
	if err := byOrder(q, false).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *missionRepo) CountByJourney(dbc dbctx.Context, journeyID uint) (int64, error) {
	var n int64
	if journeyID == 0 {
		return 0, nil
	}
	if err := r.tx(dbc).Model(&types.Mission{}).Where("journey_id = ?", journeyID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *missionRepo) CountByJourneys(dbc dbctx.Context) (map[uint]int64, error) {
	var rows []struct {
		JourneyID uint
		N         int64
	}
	err := r.tx(dbc).Model(&types.Mission{}).
		Select("journey_id, COUNT(*) AS n").
		Group("journey_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.JourneyID] = row.N
	}
	return out, nil
}

func (r *missionRepo) Upsert(dbc dbctx.Context, missions []*types.Mission) error {
	if len(missions) == 0 {
		return nil
	}
	return r.tx(dbc).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"journey_id", "order", "number", "title", "subtitle", "description", "objectives",
			"duration", "difficulty", "result_title", "result_desc", "show_off_text",
			"content", "video_url", "repo_url", "points", "updated_at",
		}),
	}).Omit(clause.Associations).Create(&missions).Error
}
