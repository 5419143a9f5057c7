package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type CertificateRepo interface {
	Create(dbc dbctx.Context, c *types.Certificate) (*types.Certificate, error)
	GetByUserJourney(dbc dbctx.Context, userID uuid.UUID, journeyID uint) (*types.Certificate, error)
	// GetForUser returns the certificate only when userID owns it.
	GetForUser(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID) (*types.Certificate, error)
	GetByVerificationCode(dbc dbctx.Context, code string) (*types.Certificate, error)
	// ListByUser returns the user's certificates with journeys, newest first.
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Certificate, error)
	CountIssuedBetween(dbc dbctx.Context, from, to time.Time) (int64, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (r *certificateRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (r *certificateRepo) Create(dbc dbctx.Context, c *types.Certificate) (*types.Certificate, error) {
	if c == nil {
		return nil, nil
	}
	if err := r.tx(dbc).Omit("Journey").Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *certificateRepo) first(q *gorm.DB) (*types.Certificate, error) {
	var row types.Certificate
	if err := q.Preload("Journey").Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *certificateRepo) GetByUserJourney(dbc dbctx.Context, userID uuid.UUID, journeyID uint) (*types.Certificate, error) {
	if userID == uuid.Nil || journeyID == 0 {
		return nil, nil
	}
	return r.first(r.tx(dbc).Where("user_id = ? AND journey_id = ?", userID, journeyID))
}

func (r *certificateRepo) GetForUser(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID) (*types.Certificate, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	return r.first(r.tx(dbc).Where("id = ? AND user_id = ?", id, userID))
}

func (r *certificateRepo) GetByVerificationCode(dbc dbctx.Context, code string) (*types.Certificate, error) {
	if code == "" {
		return nil, nil
	}
	return r.first(r.tx(dbc).Where("verification_code = ?", code))
}

func (r *certificateRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Certificate, error) {
	var results []*types.Certificate
	if userID == uuid.Nil {
		return results, nil
	}
	err := r.tx(dbc).
		Preload("Journey").
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *certificateRepo) CountIssuedBetween(dbc dbctx.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.tx(dbc).Model(&types.Certificate{}).
		Where("issued_at >= ? AND issued_at < ?", from, to).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}
