package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/missions-backend/internal/data/repos/testutil"
	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/platform/redislock"
)

func TestQuizPolicyPoints(t *testing.T) {
	p := DefaultQuizPolicy()
	cases := []struct {
		attempt int
		want    int
	}{
		{0, 150},
		{1, 150},
		{2, 125},
		{3, 100},
		{7, 100},
	}
	for _, tc := range cases {
		if got := p.Points(tc.attempt); got != tc.want {
			t.Fatalf("Points(%d) = %d, want %d", tc.attempt, got, tc.want)
		}
	}
}

func TestQuizPolicyStatus(t *testing.T) {
	p := DefaultQuizPolicy()
	base := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

	fresh := p.Status(nil)
	assert.True(t, fresh.CanAttempt)
	assert.Equal(t, 0, fresh.AttemptsUsed)
	assert.Equal(t, 3, fresh.MaxAttempts)
	assert.Nil(t, fresh.BestScore)
	assert.Nil(t, fresh.NextAttemptAt)

	exhausted := p.Status([]*types.QuizAttempt{
		{Score: 6, CreatedAt: base.Add(2 * time.Hour)},
		{Score: 7, CreatedAt: base.Add(time.Hour)},
		{Score: 3, CreatedAt: base},
	})
	assert.False(t, exhausted.CanAttempt)
	assert.False(t, exhausted.Passed)
	require.NotNil(t, exhausted.BestScore)
	assert.Equal(t, 7, *exhausted.BestScore)
	require.NotNil(t, exhausted.NextAttemptAt)
	assert.True(t, exhausted.NextAttemptAt.Equal(base.Add(24*time.Hour)))

	passed := p.Status([]*types.QuizAttempt{
		{Score: 9, Passed: true, CreatedAt: base.Add(2 * time.Hour)},
		{Score: 2, CreatedAt: base.Add(time.Hour)},
		{Score: 1, CreatedAt: base},
	})
	assert.True(t, passed.Passed)
	assert.Nil(t, passed.NextAttemptAt)
}

func TestScoreAnswersIgnoresOrderAndUnanswered(t *testing.T) {
	expl := "two is right"
	questions := []*types.QuizQuestion{
		{ID: "q1", CorrectID: "a"},
		{ID: "q2", CorrectID: "b", Explanation: &expl},
		{ID: "q3", CorrectID: "c"},
	}
	res := ScoreAnswers(questions, map[string]string{"q3": "c", "q1": "a", "zz": "a"})
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, map[string]bool{"q1": true, "q2": false, "q3": true}, res.Results)
	assert.Equal(t, map[string]string{"q2": "two is right"}, res.Explanations)
}

func TestGetQuestionsHidesAnswersAndRequiresUnlock(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 2, 4)
	u := h.user("ana")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusAvailable)

	qs, err := h.quiz.GetQuestions(h.as(u), 11)
	require.NoError(t, err)
	require.Len(t, qs, 4)
	assert.Equal(t, "m11-q01", qs[0].ID)
	assert.Len(t, qs[0].Options, 3)

	_, err = h.quiz.GetQuestions(h.as(u), 12)
	assert.ErrorIs(t, err, ErrMissionNotAvailable)

	_, err = h.quiz.GetQuestions(h.ctx, 11)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubmitFailuresExhaustQuotaUntilOldestAgesOut(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 2, 10)
	u := h.user("bea")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusAvailable)
	ctx := h.as(u)
	start := h.clock

	for i := 0; i < 3; i++ {
		res, err := h.quiz.Submit(ctx, 11, answersFor(11, 10, 5))
		require.NoError(t, err)
		assert.False(t, res.Passed)
		assert.Equal(t, 5, res.Score)
		assert.Equal(t, 0, res.PointsEarned)
		assert.Equal(t, 2-i, res.AttemptsRemaining)
		assert.Contains(t, res.Explanations, "m11-q07")
		assert.NotContains(t, res.Explanations, "m11-q08")
		h.clock = h.clock.Add(time.Hour)
	}

	_, err := h.quiz.Submit(ctx, 11, answersFor(11, 10, 10))
	require.ErrorIs(t, err, ErrQuotaExhausted)
	var quota *QuotaExhaustedError
	require.True(t, errors.As(err, &quota))
	assert.True(t, quota.NextAttemptAt.Equal(start.Add(24*time.Hour)))

	st, err := h.quiz.GetStatus(ctx, 11)
	require.NoError(t, err)
	assert.False(t, st.CanAttempt)
	assert.Equal(t, 3, st.AttemptsUsed)

	h.clock = start.Add(24*time.Hour + time.Minute)
	res, err := h.quiz.Submit(ctx, 11, answersFor(11, 10, 8))
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, 100, res.PointsEarned, "third attempt in the window")
	require.NotNil(t, res.NextMissionUnlocked)
	assert.EqualValues(t, 12, *res.NextMissionUnlocked)

	attempts, err := h.quiz.GetAttempts(ctx, 11)
	require.NoError(t, err)
	assert.Len(t, attempts, 4)
}

func TestSubmitAllowedAtAdvertisedNextAttempt(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 2, 10)
	u := h.user("ciro")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusAvailable)
	ctx := h.as(u)

	for i := 0; i < 3; i++ {
		_, err := h.quiz.Submit(ctx, 11, answersFor(11, 10, 4))
		require.NoError(t, err)
		h.clock = h.clock.Add(time.Hour)
	}

	_, err := h.quiz.Submit(ctx, 11, answersFor(11, 10, 4))
	var quota *QuotaExhaustedError
	require.True(t, errors.As(err, &quota))

	h.clock = quota.NextAttemptAt
	st, err := h.quiz.GetStatus(ctx, 11)
	require.NoError(t, err)
	assert.True(t, st.CanAttempt)
	assert.Equal(t, 2, st.AttemptsUsed)

	res, err := h.quiz.Submit(ctx, 11, answersFor(11, 10, 9))
	require.NoError(t, err)
	assert.True(t, res.Passed)
}

func TestSubmitAfterPassIsRejected(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 2, 10)
	u := h.user("caro")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusAvailable)
	ctx := h.as(u)

	res, err := h.quiz.Submit(ctx, 11, answersFor(11, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, 150, res.PointsEarned)
	assert.Empty(t, res.Explanations)

	_, err = h.quiz.Submit(ctx, 11, answersFor(11, 10, 10))
	assert.ErrorIs(t, err, ErrQuizAlreadyPassed)

	p := h.progressRow(u, 11)
	assert.Equal(t, learning.StatusCompleted, p.Status)
	assert.True(t, p.QuizPassed)
	assert.Equal(t, 150, h.reload(u).TotalPoints)
	assert.Equal(t, []string{"11:150:Mission 12"}, h.notifier.completed)
}

func TestSubmitRejectsLockedMission(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 2, 10)
	u := h.user("dani")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusAvailable)

	_, err := h.quiz.Submit(h.as(u), 12, answersFor(12, 10, 10))
	assert.ErrorIs(t, err, ErrMissionNotAvailable)
	_, err = h.quiz.Submit(h.as(u), 0, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSubmitCompletingJourneyIssuesCertificate(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 4, 10)
	u := h.user("elena")
	for _, id := range []uint{11, 12, 13} {
		testutil.SeedProgress(t, h.ctx, h.tx, u.ID, id, learning.StatusCompleted)
	}
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 14, learning.StatusAvailable)
	ctx := h.as(u)

	first, err := h.quiz.Submit(ctx, 14, answersFor(14, 10, 7))
	require.NoError(t, err)
	assert.False(t, first.Passed)
	assert.Nil(t, first.CertificateID)

	res, err := h.quiz.Submit(ctx, 14, answersFor(14, 10, 9))
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, 125, res.PointsEarned)
	assert.Nil(t, res.NextMissionUnlocked)
	require.NotNil(t, res.CertificateID)

	fresh := h.reload(u)
	assert.Equal(t, 625, fresh.TotalPoints)
	assert.Equal(t, 2, fresh.CurrentJourney)

	require.Len(t, h.notifier.certificates, 1)
	sent := h.notifier.certificates[0]
	assert.Equal(t, *res.CertificateID, sent.cert.ID)
	assert.NotEmpty(t, sent.pdf)
	assert.Equal(t, "VCA-2026-00001", sent.cert.CertificateNumber)
	assert.Equal(t, []string{"14:125:"}, h.notifier.completed)
	assert.Equal(t, []string{"certificate_issued", "mission_completed"}, h.notifier.dispatched)
}

func TestSubmitSurvivesCertificateRenderFailure(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 1, 10)
	u := h.user("fede")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusAvailable)
	h.renderer.err = errBoom

	res, err := h.quiz.Submit(h.as(u), 11, answersFor(11, 10, 10))
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Nil(t, res.CertificateID)
	assert.Empty(t, h.notifier.certificates)

	h.renderer.err = nil
	out, err := h.certificates.ReconcilePending(h.ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Pending: 1, Issued: 1}, out)
	assert.Len(t, h.notifier.certificates, 1)
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	locker := redislock.NewRedisLocker(rdb, "missions")

	h := newHarnessWithLocker(t, locker)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 1, 10)
	u := h.user("gabi")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusAvailable)

	lease, err := locker.Acquire(context.Background(), "quiz-submit:"+u.ID.String()+":11", time.Minute)
	require.NoError(t, err)

	_, err = h.quiz.Submit(h.as(u), 11, answersFor(11, 10, 10))
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	require.NoError(t, lease.Release(context.Background()))
	res, err := h.quiz.Submit(h.as(u), 11, answersFor(11, 10, 10))
	require.NoError(t, err)
	assert.True(t, res.Passed)
}

func TestSubmitWithoutQuestions(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 1, 0)
	u := h.user("hugo")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusAvailable)

	_, err := h.quiz.Submit(h.as(u), 11, map[string]string{})
	assert.ErrorIs(t, err, ErrNoQuestions)
}
