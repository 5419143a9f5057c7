package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, u *types.User) (*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	GetByFirebaseUID(dbc dbctx.Context, firebaseUID string) (*types.User, error)
	// AddProgress increments points, current mission and current journey
	// in a single statement.
	AddProgress(dbc dbctx.Context, id uuid.UUID, points, missionDelta, journeyDelta int) error
	UpdatePreferences(dbc dbctx.Context, id uuid.UUID, os *types.OperatingSystem, onboardingCompleted *bool) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (r *userRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *userRepo) Create(dbc dbctx.Context, u *types.User) (*types.User, error) {
	if u == nil {
		return nil, nil
	}
	if err := r.tx(dbc).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.User
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.tx(dbc).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userRepo) GetByFirebaseUID(dbc dbctx.Context, firebaseUID string) (*types.User, error) {
	if firebaseUID == "" {
		return nil, nil
	}
	var row types.User
	if err := r.tx(dbc).Where("firebase_uid = ?", firebaseUID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) AddProgress(dbc dbctx.Context, id uuid.UUID, points, missionDelta, journeyDelta int) error {
	if id == uuid.Nil {
		return nil
	}
	updates := map[string]any{}
	if points != 0 {
		updates["total_points"] = gorm.Expr("total_points + ?", points)
	}
	if missionDelta != 0 {
		updates["current_mission"] = gorm.Expr("current_mission + ?", missionDelta)
	}
	if journeyDelta != 0 {
		updates["current_journey"] = gorm.Expr("current_journey + ?", journeyDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.tx(dbc).Model(&types.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *userRepo) UpdatePreferences(dbc dbctx.Context, id uuid.UUID, os *types.OperatingSystem, onboardingCompleted *bool) error {
	updates := map[string]any{}
	if os != nil {
		updates["operating_system"] = string(*os)
	}
	if onboardingCompleted != nil {
		updates["onboarding_completed"] = *onboardingCompleted
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return r.tx(dbc).Model(&types.User{}).Where("id = ?", id).Updates(updates).Error
}
