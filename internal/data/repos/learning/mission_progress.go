package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

// UserJourney identifies a (user, journey) pair.
type UserJourney struct {
	UserID    uuid.UUID
	JourneyID uint
}

type MissionProgressRepo interface {
	Get(dbc dbctx.Context, userID uuid.UUID, missionID uint) (*types.MissionProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.MissionProgress, error)
	ListByUserAndMissions(dbc dbctx.Context, userID uuid.UUID, missionIDs []uint) ([]*types.MissionProgress, error)
	Create(dbc dbctx.Context, p *types.MissionProgress) (*types.MissionProgress, error)
	// Unlock inserts the row as available, or promotes an existing locked
	// row. in_progress and completed rows are left untouched.
	Unlock(dbc dbctx.Context, userID uuid.UUID, missionID uint, at time.Time) error
	CountCompletedInJourney(dbc dbctx.Context, userID uuid.UUID, journeyID uint) (int64, error)
	// CountCompletedByJourney returns the user's completed mission counts keyed by journey.
	CountCompletedByJourney(dbc dbctx.Context, userID uuid.UUID) (map[uint]int64, error)
	// ListCompletedWithoutCertificate finds journeys whose every mission is
	// completed by the user but that have no certificate yet.
	ListCompletedWithoutCertificate(dbc dbctx.Context, limit int) ([]UserJourney, error)
}

type missionProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMissionProgressRepo(db *gorm.DB, baseLog *logger.Logger) MissionProgressRepo {
	return &missionProgressRepo{db: db, log: baseLog.With("repo", "MissionProgressRepo")}
}

func (r *missionProgressRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *missionProgressRepo) Get(dbc dbctx.Context, userID uuid.UUID, missionID uint) (*types.MissionProgress, error) {
	if userID == uuid.Nil || missionID == 0 {
		return nil, nil
	}
	var row types.MissionProgress
	err := r.tx(dbc).
		Where("user_id = ? AND mission_id = ?", userID, missionID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *missionProgressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.MissionProgress, error) {
	var results []*types.MissionProgress
	if userID == uuid.Nil {
		return results, nil
	}
	if err := r.tx(dbc).Where("user_id = ?", userID).Order("mission_id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *missionProgressRepo) ListByUserAndMissions(dbc dbctx.Context, userID uuid.UUID, missionIDs []uint) ([]*types.MissionProgress, error) {
	var results []*types.MissionProgress
	if userID == uuid.Nil || len(missionIDs) == 0 {
		return results, nil
	}
	err := r.tx(dbc).
		Where("user_id = ? AND mission_id IN ?", userID, missionIDs).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *missionProgressRepo) Create(dbc dbctx.Context, p *types.MissionProgress) (*types.MissionProgress, error) {
	if p == nil {
		return nil, nil
	}
	if err := r.tx(dbc).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *missionProgressRepo) Unlock(dbc dbctx.Context, userID uuid.UUID, missionID uint, at time.Time) error {
	if userID == uuid.Nil || missionID == 0 {
		return nil
	}
	row := &types.MissionProgress{
		UserID:    userID,
		MissionID: missionID,
		Status:    learning.StatusAvailable,
		CreatedAt: at,
		UpdatedAt: at,
	}
	return r.tx(dbc).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "mission_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     string(learning.StatusAvailable),
			"updated_at": at,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: "mission_progress", Name: "status"}, Value: string(learning.StatusLocked)},
		}},
	}).Create(row).Error
}

func (r *missionProgressRepo) CountCompletedInJourney(dbc dbctx.Context, userID uuid.UUID, journeyID uint) (int64, error) {
	var n int64
	if userID == uuid.Nil || journeyID == 0 {
		return 0, nil
	}
	err := r.tx(dbc).Model(&types.MissionProgress{}).
		Joins("JOIN mission ON mission.id = mission_progress.mission_id").
		Where("mission_progress.user_id = ? AND mission.journey_id = ? AND mission_progress.status = ?",
			userID, journeyID, string(learning.StatusCompleted)).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *missionProgressRepo) CountCompletedByJourney(dbc dbctx.Context, userID uuid.UUID) (map[uint]int64, error) {
	var rows []struct {
		JourneyID uint
		N         int64
	}
	if userID == uuid.Nil {
		return map[uint]int64{}, nil
	}
	err := r.tx(dbc).Model(&types.MissionProgress{}).
		Select("mission.journey_id AS journey_id, COUNT(*) AS n").
		Joins("JOIN mission ON mission.id = mission_progress.mission_id").
		Where("mission_progress.user_id = ? AND mission_progress.status = ?", userID, string(learning.StatusCompleted)).
		Group("mission.journey_id").
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

func (r *missionProgressRepo) ListCompletedWithoutCertificate(dbc dbctx.Context, limit int) ([]UserJourney, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []UserJourney
	err := r.tx(dbc).Raw(`
SELECT mp.user_id AS user_id, m.journey_id AS journey_id
FROM mission_progress mp
JOIN mission m ON m.id = mp.mission_id
WHERE mp.status = ?
  AND NOT EXISTS (
    SELECT 1 FROM certificate c WHERE c.user_id = mp.user_id AND c.journey_id = m.journey_id
  )
GROUP BY mp.user_id, m.journey_id
HAVING COUNT(*) = (SELECT COUNT(*) FROM mission m2 WHERE m2.journey_id = m.journey_id)
LIMIT ?`, string(learning.StatusCompleted), limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
