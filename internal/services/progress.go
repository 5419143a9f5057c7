package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/missions-backend/internal/data/repos"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type JourneyProgress struct {
	JourneyID         uint       `json:"journeyId"`
	CompletedMissions int        `json:"completedMissions"`
	TotalMissions     int        `json:"totalMissions"`
	Percentage        int        `json:"percentage"`
	IsCompleted       bool       `json:"isCompleted"`
	CertificateID     *uuid.UUID `json:"certificateId,omitempty"`
}

type UserProgress struct {
	TotalPoints       int               `json:"totalPoints"`
	CurrentJourney    int               `json:"currentJourney"`
	CurrentMission    int               `json:"currentMission"`
	CompletedMissions int               `json:"completedMissions"`
	TotalMissions     int               `json:"totalMissions"`
	Certificates      int               `json:"certificates"`
	Journeys          []JourneyProgress `json:"journeys"`
}

type ProgressService interface {
	GetUserProgress(ctx context.Context) (*UserProgress, error)
	GetJourneyProgress(ctx context.Context, journeyID uint) (*JourneyWithProgress, error)
}

type progressService struct {
	log          *logger.Logger
	users        repos.UserRepo
	journeys     repos.JourneyRepo
	missions     repos.MissionRepo
	progress     repos.MissionProgressRepo
	certificates repos.CertificateRepo
}

func NewProgressService(log *logger.Logger, users repos.UserRepo, journeys repos.JourneyRepo, missions repos.MissionRepo, progress repos.MissionProgressRepo, certificates repos.CertificateRepo) ProgressService {
	return &progressService{
		log:          log.With("service", "ProgressService"),
		users:        users,
		journeys:     journeys,
		missions:     missions,
		progress:     progress,
		certificates: certificates,
	}
}

func (s *progressService) GetUserProgress(ctx context.Context) (*UserProgress, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	user, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	journeys, err := s.journeys.List(dbc)
	if err != nil {
		return nil, err
	}
	totals, err := s.missions.CountByJourneys(dbc)
	if err != nil {
		return nil, err
	}
	completed, err := s.progress.CountCompletedByJourney(dbc, userID)
	if err != nil {
		return nil, err
	}
	certs, err := s.certificates.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	certByJourney := make(map[uint]uuid.UUID, len(certs))
	for _, c := range certs {
		certByJourney[c.JourneyID] = c.ID
	}

	out := &UserProgress{
		TotalPoints:    user.TotalPoints,
		CurrentJourney: user.CurrentJourney,
		CurrentMission: user.CurrentMission,
		Certificates:   len(certs),
		Journeys:       make([]JourneyProgress, 0, len(journeys)),
	}
	for _, j := range journeys {
		total := int(totals[j.ID])
		done := int(completed[j.ID])
		jp := JourneyProgress{
			JourneyID:         j.ID,
			CompletedMissions: done,
			TotalMissions:     total,
			Percentage:        percentage(done, total),
			IsCompleted:       total > 0 && done >= total,
		}
		if id, ok := certByJourney[j.ID]; ok {
			jp.CertificateID = &id
		}
		out.CompletedMissions += done
		out.TotalMissions += total
		out.Journeys = append(out.Journeys, jp)
	}
	return out, nil
}

func (s *progressService) GetJourneyProgress(ctx context.Context, journeyID uint) (*JourneyWithProgress, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return journeyWithProgress(dbctx.Context{Ctx: ctx}, s.journeys, s.missions, s.progress, userID, journeyID)
}
