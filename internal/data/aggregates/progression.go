package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/missions-backend/internal/data/repos"
	types "github.com/yungbote/missions-backend/internal/domain"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
)

type ProgressionAggregateDeps struct {
	Base     BaseDeps
	Users    repos.UserRepo
	Journeys repos.JourneyRepo
	Missions repos.MissionRepo
	Progress repos.MissionProgressRepo
	Attempts repos.QuizAttemptRepo
}

type progressionAggregate struct {
	deps ProgressionAggregateDeps
}

func NewProgressionAggregate(deps ProgressionAggregateDeps) domainagg.ProgressionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &progressionAggregate{deps: deps}
}

func (a *progressionAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressionAggregateContract
}

const progressTable = "mission_progress"

func (a *progressionAggregate) InitializeUser(ctx context.Context, in domainagg.InitializeUserInput) (domainagg.InitializeUserResult, error) {
	const op = "Progression.InitializeUser"
	in.FirebaseUID = strings.TrimSpace(in.FirebaseUID)
	in.Email = strings.TrimSpace(in.Email)
	if in.FirebaseUID == "" || in.Email == "" {
		return domainagg.InitializeUserResult{}, MapError(op, ValidationError("firebase uid and email are required"))
	}

	var out domainagg.InitializeUserResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.InitializeUserResult{}
		existing, err := a.deps.Users.GetByFirebaseUID(dbc, in.FirebaseUID)
		if err != nil {
			return err
		}
		if existing != nil {
			out.User = existing
			return nil
		}
		u, err := a.deps.Users.Create(dbc, &types.User{
			FirebaseUID: in.FirebaseUID,
			Email:       in.Email,
			Name:        in.Name,
			PhotoURL:    in.PhotoURL,
		})
		if err != nil {
			return err
		}
		out.User = u
		out.Created = true

		journey, err := a.deps.Journeys.First(dbc)
		if err != nil || journey == nil {
			return err
		}
		first, err := a.deps.Missions.FirstInJourney(dbc, journey.ID)
		if err != nil || first == nil {
			return err
		}
		out.FirstMissionID = first.ID
		return a.deps.Progress.Unlock(dbc, u.ID, first.ID, time.Now().UTC())
	})
	if domainagg.IsCode(err, domainagg.CodeConflict) {
		// Lost a registration race; the winner's row is the answer.
		existing, getErr := a.deps.Users.GetByFirebaseUID(dbctx.Context{Ctx: ctx}, in.FirebaseUID)
		if getErr == nil && existing != nil {
			return domainagg.InitializeUserResult{User: existing}, nil
		}
	}
	if err != nil {
		return domainagg.InitializeUserResult{}, err
	}
	return out, nil
}

func (a *progressionAggregate) StartMission(ctx context.Context, in domainagg.StartMissionInput) (domainagg.StartMissionResult, error) {
	const op = "Progression.StartMission"
	if in.MissionID == 0 || in.UserID == uuid.Nil {
		return domainagg.StartMissionResult{}, MapError(op, ValidationError("user and mission are required"))
	}
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var out domainagg.StartMissionResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Progress.Get(dbc, in.UserID, in.MissionID)
		if err != nil {
			return err
		}
		if p == nil || p.Status == learning.StatusLocked {
			return errors.Join(ErrPrecondition, domainagg.ErrMissionLocked)
		}
		if p.Status == learning.StatusCompleted {
			out = domainagg.StartMissionResult{Progress: p}
			return nil
		}
		if err := RequireStatusAllowed(string(p.Status), string(learning.StatusAvailable), string(learning.StatusInProgress)); err != nil {
			return err
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, progressTable, p.ID,
			[]string{string(learning.StatusAvailable), string(learning.StatusInProgress)},
			map[string]any{
				"status":     string(learning.StatusInProgress),
				"started_at": gorm.Expr("COALESCE(started_at, ?)", at),
				"updated_at": at,
			})
		if err != nil {
			return err
		}
		fresh, err := a.deps.Progress.Get(dbc, in.UserID, in.MissionID)
		if err != nil {
			return err
		}
		if !ok && (fresh == nil || fresh.Status != learning.StatusCompleted) {
			return RequireCASSuccess(false, "mission progress changed concurrently")
		}
		out = domainagg.StartMissionResult{Progress: fresh, Changed: ok && p.Status != learning.StatusInProgress}
		return nil
	})
	if err != nil {
		return domainagg.StartMissionResult{}, err
	}
	return out, nil
}

func (a *progressionAggregate) RecordQuizAttempt(ctx context.Context, in domainagg.RecordQuizAttemptInput) (domainagg.RecordQuizAttemptResult, error) {
	const op = "Progression.RecordQuizAttempt"
	switch {
	case in.MissionID == 0 || in.UserID == uuid.Nil:
		return domainagg.RecordQuizAttemptResult{}, MapError(op, ValidationError("user and mission are required"))
	case in.AttemptNumber < 1:
		return domainagg.RecordQuizAttemptResult{}, MapError(op, ValidationError("attempt number must be >= 1"))
	case in.Total < 0 || in.Score < 0 || in.Score > in.Total:
		return domainagg.RecordQuizAttemptResult{}, MapError(op, ValidationError("score must be within [0, total]"))
	case !in.Passed && in.PointsEarned != 0:
		return domainagg.RecordQuizAttemptResult{}, MapError(op, InvariantError("a failed attempt earns no points"))
	}
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var out domainagg.RecordQuizAttemptResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.RecordQuizAttemptResult{}
		mission, err := a.deps.Missions.GetByID(dbc, in.MissionID)
		if err != nil {
			return err
		}
		if mission == nil {
			return gorm.ErrRecordNotFound
		}
		out.JourneyID = mission.JourneyID

		p, err := a.deps.Progress.Get(dbc, in.UserID, in.MissionID)
		if err != nil {
			return err
		}
		if p == nil || p.Status == learning.StatusLocked {
			return errors.Join(ErrPrecondition, domainagg.ErrMissionLocked)
		}
		if p.QuizPassed {
			return errors.Join(ErrPrecondition, domainagg.ErrQuizAlreadyPassed)
		}

		answers := in.Answers
		if answers == nil {
			answers = map[string]string{}
		}
		attempt := &types.QuizAttempt{
			UserID:        in.UserID,
			MissionID:     in.MissionID,
			AttemptNumber: in.AttemptNumber,
			Score:         in.Score,
			Total:         in.Total,
			Passed:        in.Passed,
			PointsEarned:  in.PointsEarned,
			CreatedAt:     at,
		}
		attempt.Answers = datatypes.NewJSONType(answers)
		if _, err := a.deps.Attempts.Create(dbc, attempt); err != nil {
			return err
		}
		out.Attempt = attempt
		out.Progress = p
		if !in.Passed {
			return nil
		}

		score := in.Score
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, progressTable, p.ID,
			[]string{string(learning.StatusAvailable), string(learning.StatusInProgress)},
			map[string]any{
				"status":       string(learning.StatusCompleted),
				"completed_at": at,
				"started_at":   gorm.Expr("COALESCE(started_at, ?)", at),
				"quiz_passed":  true,
				"quiz_score":   score,
				"updated_at":   at,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "mission progress changed concurrently"); err != nil {
			return err
		}
		if err := a.deps.Users.AddProgress(dbc, in.UserID, in.PointsEarned, 1, 0); err != nil {
			return err
		}

		next, err := a.nextMission(dbc, mission)
		if err != nil {
			return err
		}
		if next != nil {
			if err := a.deps.Progress.Unlock(dbc, in.UserID, next.ID, at); err != nil {
				return err
			}
			id := next.ID
			out.NextMissionID = &id
		}

		done, err := a.deps.Progress.CountCompletedInJourney(dbc, in.UserID, mission.JourneyID)
		if err != nil {
			return err
		}
		total, err := a.deps.Missions.CountByJourney(dbc, mission.JourneyID)
		if err != nil {
			return err
		}
		out.JourneyCompleted = total > 0 && done >= total

		fresh, err := a.deps.Progress.Get(dbc, in.UserID, in.MissionID)
		if err != nil {
			return err
		}
		out.Progress = fresh
		return nil
	})
	if err != nil {
		return domainagg.RecordQuizAttemptResult{}, err
	}
	return out, nil
}

// nextMission follows curriculum order, crossing into the next journey
// after the last mission of the current one.
func (a *progressionAggregate) nextMission(dbc dbctx.Context, current *types.Mission) (*types.Mission, error) {
	next, err := a.deps.Missions.NextInJourney(dbc, current.JourneyID, current.Order)
	if err != nil || next != nil {
		return next, err
	}
	journey, err := a.deps.Journeys.GetByID(dbc, current.JourneyID)
	if err != nil || journey == nil {
		return nil, err
	}
	nextJourney, err := a.deps.Journeys.Next(dbc, journey.Order)
	if err != nil || nextJourney == nil {
		return nil, err
	}
	return a.deps.Missions.FirstInJourney(dbc, nextJourney.ID)
}
