package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/missions-backend/internal/data/repos"
	types "github.com/yungbote/missions-backend/internal/domain"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

// ProgressFields is the per-user state merged into mission payloads.
type ProgressFields struct {
	Status      types.MissionStatus `json:"status"`
	QuizPassed  bool                `json:"quizPassed"`
	QuizScore   *int                `json:"quizScore"`
	StartedAt   *time.Time          `json:"startedAt"`
	CompletedAt *time.Time          `json:"completedAt"`
}

func progressFields(p *types.MissionProgress) ProgressFields {
	if p == nil {
		return ProgressFields{Status: learning.StatusLocked}
	}
	return ProgressFields{
		Status:      p.Status,
		QuizPassed:  p.QuizPassed,
		QuizScore:   p.QuizScore,
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
	}
}

type MissionWithProgress struct {
	*types.Mission
	ProgressFields
}

type MissionService interface {
	GetMissionWithProgress(ctx context.Context, missionID uint) (*MissionWithProgress, error)
	StartMission(ctx context.Context, missionID uint) (*types.MissionProgress, error)
	GetCards(ctx context.Context, missionID uint) ([]*types.Card, error)
}

type missionService struct {
	log         *logger.Logger
	missions    repos.MissionRepo
	cards       repos.CardRepo
	progress    repos.MissionProgressRepo
	progression domainagg.ProgressionAggregate
}

func NewMissionService(log *logger.Logger, missions repos.MissionRepo, cards repos.CardRepo, progress repos.MissionProgressRepo, progression domainagg.ProgressionAggregate) MissionService {
	return &missionService{
		log:         log.With("service", "MissionService"),
		missions:    missions,
		cards:       cards,
		progress:    progress,
		progression: progression,
	}
}

func (s *missionService) GetMissionWithProgress(ctx context.Context, missionID uint) (*MissionWithProgress, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	mission, err := s.missions.GetDetailed(dbc, missionID)
	if err != nil {
		return nil, err
	}
	if mission == nil {
		return nil, ErrNotFound
	}
	p, err := s.progress.Get(dbc, userID, missionID)
	if err != nil {
		return nil, err
	}
	return &MissionWithProgress{Mission: mission, ProgressFields: progressFields(p)}, nil
}

func (s *missionService) StartMission(ctx context.Context, missionID uint) (*types.MissionProgress, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.progression.StartMission(ctx, domainagg.StartMissionInput{
		UserID:    userID,
		MissionID: missionID,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return nil, translateAggregateError(err)
	}
	if res.Changed {
		s.log.Info("mission started", "user_id", userID, "mission_id", missionID)
	}
	return res.Progress, nil
}

func (s *missionService) GetCards(ctx context.Context, missionID uint) ([]*types.Card, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := requirePlayable(dbc, s.progress, userID, missionID); err != nil {
		return nil, err
	}
	return s.cards.ListByMission(dbc, missionID)
}

// requirePlayable rejects missions the user has no unlocked progress for.
func requirePlayable(dbc dbctx.Context, progress repos.MissionProgressRepo, userID uuid.UUID, missionID uint) error {
	p, err := progress.Get(dbc, userID, missionID)
	if err != nil {
		return err
	}
	if p == nil || p.Status == learning.StatusLocked {
		return ErrMissionNotAvailable
	}
	return nil
}
