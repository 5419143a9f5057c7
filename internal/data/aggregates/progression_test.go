package aggregates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/missions-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/missions-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/missions-backend/internal/data/repos"
	"github.com/yungbote/missions-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
)

type fixture struct {
	tx    *gorm.DB
	repos repos.Set
	hooks *aggtestutil.HooksRecorder
	prog  domainagg.ProgressionAggregate
	certs domainagg.CertificateAggregate
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return fixtureOver(t, testutil.Tx(t, testutil.DB(t)), nil)
}

func (f fixture) dbc() dbctx.Context { return dbctx.Context{Ctx: context.Background(), Tx: f.tx} }

func TestInitializeUserUnlocksFirstMissionOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedCurriculum(t, ctx, f.tx, 2, 2, 0)

	in := domainagg.InitializeUserInput{FirebaseUID: "fb-init", Email: "init@example.com", Name: "Init"}
	res, err := f.prog.InitializeUser(ctx, in)
	if err != nil {
		t.Fatalf("InitializeUser: %v", err)
	}
	if !res.Created || res.FirstMissionID != 11 {
		t.Fatalf("unexpected result: %+v", res)
	}
	p, err := f.repos.MissionProgress.Get(f.dbc(), res.User.ID, 11)
	if err != nil || p == nil || p.Status != learning.StatusAvailable {
		t.Fatalf("first mission progress: %+v %v", p, err)
	}

	again, err := f.prog.InitializeUser(ctx, in)
	if err != nil || again.Created || again.User.ID != res.User.ID {
		t.Fatalf("second InitializeUser: %+v %v", again, err)
	}
	rows, _ := f.repos.MissionProgress.ListByUser(f.dbc(), res.User.ID)
	if len(rows) != 1 {
		t.Fatalf("expected a single progress row, got %d", len(rows))
	}

	if _, err := f.prog.InitializeUser(ctx, domainagg.InitializeUserInput{Email: "x@example.com"}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartMission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedCurriculum(t, ctx, f.tx, 1, 3, 0)
	u := testutil.SeedUser(t, ctx, f.tx, "start")
	testutil.SeedProgress(t, ctx, f.tx, u.ID, 11, learning.StatusAvailable)
	testutil.SeedProgress(t, ctx, f.tx, u.ID, 12, learning.StatusLocked)
	done := testutil.SeedProgress(t, ctx, f.tx, u.ID, 13, learning.StatusCompleted)

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	res, err := f.prog.StartMission(ctx, domainagg.StartMissionInput{UserID: u.ID, MissionID: 11, At: at})
	if err != nil {
		t.Fatalf("StartMission: %v", err)
	}
	if !res.Changed || res.Progress.Status != learning.StatusInProgress || res.Progress.StartedAt == nil {
		t.Fatalf("unexpected start: %+v", res.Progress)
	}
	firstStart := *res.Progress.StartedAt

	res, err = f.prog.StartMission(ctx, domainagg.StartMissionInput{UserID: u.ID, MissionID: 11, At: at.Add(time.Hour)})
	if err != nil || res.Changed || !res.Progress.StartedAt.Equal(firstStart) {
		t.Fatalf("restart must keep started_at: %+v %v", res.Progress, err)
	}

	for _, missionID := range []uint{12, 99} {
		_, err := f.prog.StartMission(ctx, domainagg.StartMissionInput{UserID: u.ID, MissionID: missionID})
		if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) || !errors.Is(err, domainagg.ErrMissionLocked) {
			t.Fatalf("mission %d: expected locked precondition, got %v", missionID, err)
		}
	}

	res, err = f.prog.StartMission(ctx, domainagg.StartMissionInput{UserID: u.ID, MissionID: 13})
	if err != nil || res.Changed || res.Progress.ID != done.ID || res.Progress.Status != learning.StatusCompleted {
		t.Fatalf("completed mission must not regress: %+v %v", res, err)
	}
}

func TestRecordQuizAttemptPassUnlocksAndAwards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedCurriculum(t, ctx, f.tx, 2, 2, 0)
	u := testutil.SeedUser(t, ctx, f.tx, "pass")
	testutil.SeedProgress(t, ctx, f.tx, u.ID, 11, learning.StatusInProgress)

	failed, err := f.prog.RecordQuizAttempt(ctx, domainagg.RecordQuizAttemptInput{
		UserID: u.ID, MissionID: 11, AttemptNumber: 1, Score: 5, Total: 10,
		Answers: map[string]string{"m11-q01": "b"},
	})
	if err != nil || failed.Attempt == nil || failed.Attempt.Passed || failed.NextMissionID != nil {
		t.Fatalf("failed attempt: %+v %v", failed, err)
	}

	passed, err := f.prog.RecordQuizAttempt(ctx, domainagg.RecordQuizAttemptInput{
		UserID: u.ID, MissionID: 11, AttemptNumber: 2, Score: 9, Total: 10, Passed: true, PointsEarned: 125,
	})
	if err != nil {
		t.Fatalf("passing attempt: %v", err)
	}
	if passed.NextMissionID == nil || *passed.NextMissionID != 12 || passed.JourneyCompleted {
		t.Fatalf("unexpected pass result: %+v", passed)
	}
	if passed.Progress.Status != learning.StatusCompleted || !passed.Progress.QuizPassed || *passed.Progress.QuizScore != 9 {
		t.Fatalf("progress not completed: %+v", passed.Progress)
	}

	user, _ := f.repos.User.GetByID(f.dbc(), u.ID)
	if user.TotalPoints != 125 || user.CurrentMission != 2 {
		t.Fatalf("user progress: points=%d mission=%d", user.TotalPoints, user.CurrentMission)
	}
	next, _ := f.repos.MissionProgress.Get(f.dbc(), u.ID, 12)
	if next == nil || next.Status != learning.StatusAvailable {
		t.Fatalf("next mission not unlocked: %+v", next)
	}

	_, err = f.prog.RecordQuizAttempt(ctx, domainagg.RecordQuizAttemptInput{
		UserID: u.ID, MissionID: 11, AttemptNumber: 3, Score: 10, Total: 10, Passed: true, PointsEarned: 150,
	})
	if !errors.Is(err, domainagg.ErrQuizAlreadyPassed) {
		t.Fatalf("expected already passed, got %v", err)
	}
	if got := f.hooks.Statuses("Progression.RecordQuizAttempt"); len(got) != 3 || got[2] != string(domainagg.CodePreconditionFailed) {
		t.Fatalf("hook statuses: %v", got)
	}
}

func TestRecordQuizAttemptCrossesJourneyAndReportsCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedCurriculum(t, ctx, f.tx, 2, 2, 0)
	u := testutil.SeedUser(t, ctx, f.tx, "cross")
	testutil.SeedProgress(t, ctx, f.tx, u.ID, 11, learning.StatusCompleted)
	testutil.SeedProgress(t, ctx, f.tx, u.ID, 12, learning.StatusAvailable)

	res, err := f.prog.RecordQuizAttempt(ctx, domainagg.RecordQuizAttemptInput{
		UserID: u.ID, MissionID: 12, AttemptNumber: 1, Score: 8, Total: 10, Passed: true, PointsEarned: 150,
	})
	if err != nil {
		t.Fatalf("RecordQuizAttempt: %v", err)
	}
	if !res.JourneyCompleted || res.JourneyID != 1 {
		t.Fatalf("journey completion not reported: %+v", res)
	}
	if res.NextMissionID == nil || *res.NextMissionID != 21 {
		t.Fatalf("expected first mission of next journey, got %v", res.NextMissionID)
	}
}

func TestRecordQuizAttemptRejectsLockedAndInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedCurriculum(t, ctx, f.tx, 1, 2, 0)
	u := testutil.SeedUser(t, ctx, f.tx, "locked")
	testutil.SeedProgress(t, ctx, f.tx, u.ID, 12, learning.StatusLocked)

	for _, missionID := range []uint{11, 12} {
		_, err := f.prog.RecordQuizAttempt(ctx, domainagg.RecordQuizAttemptInput{
			UserID: u.ID, MissionID: missionID, AttemptNumber: 1, Score: 1, Total: 10,
		})
		if !errors.Is(err, domainagg.ErrMissionLocked) {
			t.Fatalf("mission %d: expected locked, got %v", missionID, err)
		}
	}
	_, err := f.prog.RecordQuizAttempt(ctx, domainagg.RecordQuizAttemptInput{
		UserID: u.ID, MissionID: 12, AttemptNumber: 1, Score: 11, Total: 10,
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
	_, err = f.prog.RecordQuizAttempt(ctx, domainagg.RecordQuizAttemptInput{
		UserID: u.ID, MissionID: 12, AttemptNumber: 1, Score: 1, Total: 10, PointsEarned: 50,
	})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	attempts, _ := f.repos.QuizAttempt.ListByUserMission(f.dbc(), u.ID, 12)
	if len(attempts) != 0 {
		t.Fatalf("rejected attempts must not be stored")
	}
}

func TestRecordQuizAttemptRollsBackOnCommitFailure(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	commitErr := errors.New("commit failed")
	runner := &aggtestutil.InjectedTxRunner{DB: tx, FailCommit: commitErr}
	f := fixtureOver(t, tx, runner)

	ctx := context.Background()
	testutil.SeedCurriculum(t, ctx, tx, 1, 2, 0)
	u := testutil.SeedUser(t, ctx, tx, "rollback")
	testutil.SeedProgress(t, ctx, tx, u.ID, 11, learning.StatusAvailable)

	_, err := f.prog.RecordQuizAttempt(ctx, domainagg.RecordQuizAttemptInput{
		UserID: u.ID, MissionID: 11, AttemptNumber: 1, Score: 10, Total: 10, Passed: true, PointsEarned: 150,
	})
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if runner.RollbackCalls != 1 {
		t.Fatalf("rollback calls = %d", runner.RollbackCalls)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	if attempts, _ := f.repos.QuizAttempt.ListByUserMission(dbc, u.ID, 11); len(attempts) != 0 {
		t.Fatalf("attempt survived rollback")
	}
	if p, _ := f.repos.MissionProgress.Get(dbc, u.ID, 11); p.Status != learning.StatusAvailable {
		t.Fatalf("progress survived rollback: %s", p.Status)
	}
	if next, _ := f.repos.MissionProgress.Get(dbc, u.ID, 12); next != nil {
		t.Fatalf("unlock survived rollback")
	}
	if user, _ := f.repos.User.GetByID(dbc, u.ID); user.TotalPoints != 0 {
		t.Fatalf("points survived rollback: %d", user.TotalPoints)
	}
}

func fixtureOver(t *testing.T, tx *gorm.DB, runner aggregates.TxRunner) fixture {
	t.Helper()
	log := testutil.Logger(t)
	set := repos.NewSet(tx, log)
	hooks := &aggtestutil.HooksRecorder{}
	base := aggregates.BaseDeps{DB: tx, Log: log, Runner: runner, Hooks: hooks}
	return fixture{
		tx:    tx,
		repos: set,
		hooks: hooks,
		prog: aggregates.NewProgressionAggregate(aggregates.ProgressionAggregateDeps{
			Base:     base,
			Users:    set.User,
			Journeys: set.Journey,
			Missions: set.Mission,
			Progress: set.MissionProgress,
			Attempts: set.QuizAttempt,
		}),
		certs: aggregates.NewCertificateAggregate(aggregates.CertificateAggregateDeps{
			Base:         base,
			Users:        set.User,
			Missions:     set.Mission,
			Progress:     set.MissionProgress,
			Certificates: set.Certificate,
		}),
	}
}
