package services

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/yungbote/missions-backend/internal/data/repos"
	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type JourneyWithProgress struct {
	*types.Journey
	Missions          []MissionWithProgress `json:"missions"`
	CompletedMissions int                   `json:"completedMissions"`
	Percentage        int                   `json:"percentage"`
}

type JourneyService interface {
	List(ctx context.Context) ([]*types.Journey, error)
	GetWithProgress(ctx context.Context, journeyID uint) (*JourneyWithProgress, error)
}

type journeyService struct {
	log      *logger.Logger
	journeys repos.JourneyRepo
	missions repos.MissionRepo
	progress repos.MissionProgressRepo
}

func NewJourneyService(log *logger.Logger, journeys repos.JourneyRepo, missions repos.MissionRepo, progress repos.MissionProgressRepo) JourneyService {
	return &journeyService{
		log:      log.With("service", "JourneyService"),
		journeys: journeys,
		missions: missions,
		progress: progress,
	}
}

func (s *journeyService) List(ctx context.Context) ([]*types.Journey, error) {
	return s.journeys.List(dbctx.Context{Ctx: ctx})
}

func (s *journeyService) GetWithProgress(ctx context.Context, journeyID uint) (*JourneyWithProgress, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return journeyWithProgress(dbctx.Context{Ctx: ctx}, s.journeys, s.missions, s.progress, userID, journeyID)
}

// journeyWithProgress merges the user's progress into the journey's ordered
// missions. Missions without a progress row read as locked.
func journeyWithProgress(dbc dbctx.Context, journeys repos.JourneyRepo, missions repos.MissionRepo, progress repos.MissionProgressRepo, userID uuid.UUID, journeyID uint) (*JourneyWithProgress, error) {
	journey, err := journeys.GetByID(dbc, journeyID)
	if err != nil {
		return nil, err
	}
	if journey == nil {
		return nil, ErrNotFound
	}
	ms, err := missions.ListByJourney(dbc, journeyID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}
	rows, err := progress.ListByUserAndMissions(dbc, userID, ids)
	if err != nil {
		return nil, err
	}
	byMission := make(map[uint]*types.MissionProgress, len(rows))
	for _, p := range rows {
		byMission[p.MissionID] = p
	}

	out := &JourneyWithProgress{Journey: journey, Missions: make([]MissionWithProgress, 0, len(ms))}
	for _, m := range ms {
		fields := progressFields(byMission[m.ID])
		if fields.Status == learning.StatusCompleted {
			out.CompletedMissions++
		}
		out.Missions = append(out.Missions, MissionWithProgress{Mission: m, ProgressFields: fields})
	}
	out.Percentage = percentage(out.CompletedMissions, len(ms))
	return out, nil
}

func percentage(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
