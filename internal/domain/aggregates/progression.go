package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/domain/user"
)

var ProgressionAggregateContract = Contract{
	Name:             "Learning.ProgressionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns the mission unlock state machine: learner initialization, mission start, " +
		"and quiz attempts with their completion, points and unlock effects in one transaction.",
}

// ProgressionAggregate owns every write that moves a learner through missions.
//
// Failures are *aggregates.Error with codes CodeValidation, CodeNotFound,
// CodePreconditionFailed (mission locked or already passed), CodeConflict,
// CodeRetryable and CodeInternal.
type ProgressionAggregate interface {
	Aggregate

	// InitializeUser creates the user and makes the first mission of the
	// first journey available. A concurrent registration of the same
	// firebase uid returns the existing row with Created=false.
	InitializeUser(ctx context.Context, in InitializeUserInput) (InitializeUserResult, error)

	// StartMission moves available progress to in_progress. Completed
	// progress is returned unchanged.
	StartMission(ctx context.Context, in StartMissionInput) (StartMissionResult, error)

	// RecordQuizAttempt appends the attempt and, when it passed, completes
	// the mission, awards points and unlocks the next mission.
	RecordQuizAttempt(ctx context.Context, in RecordQuizAttemptInput) (RecordQuizAttemptResult, error)
}

type InitializeUserInput struct {
	FirebaseUID string
	Email       string
	Name        string
	PhotoURL    *string
}

type InitializeUserResult struct {
	User    *user.User
	Created bool
	// FirstMissionID is zero when no curriculum has been seeded yet.
	FirstMissionID uint
}

type StartMissionInput struct {
	UserID    uuid.UUID
	MissionID uint
	At        time.Time
}

type StartMissionResult struct {
	Progress *learning.MissionProgress
	Changed  bool
}

type RecordQuizAttemptInput struct {
	UserID        uuid.UUID
	MissionID     uint
	AttemptNumber int
	Score         int
	Total         int
	Passed        bool
	PointsEarned  int
	Answers       map[string]string
	At            time.Time
}

type RecordQuizAttemptResult struct {
	Attempt  *learning.QuizAttempt
	Progress *learning.MissionProgress

	// NextMissionID is set when a following mission exists, in this
	// journey or the next one.
	NextMissionID    *uint
	JourneyID        uint
	JourneyCompleted bool
}
