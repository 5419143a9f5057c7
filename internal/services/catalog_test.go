package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/missions-backend/internal/data/repos/testutil"
	"github.com/yungbote/missions-backend/internal/domain/learning"
)

func TestPercentage(t *testing.T) {
	cases := []struct{ done, total, want int }{
		{0, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{4, 4, 100},
	}
	for _, tc := range cases {
		if got := percentage(tc.done, tc.total); got != tc.want {
			t.Fatalf("percentage(%d, %d) = %d, want %d", tc.done, tc.total, got, tc.want)
		}
	}
}

func TestJourneyWithProgressDefaultsToLocked(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 2, 3, 1)
	u := h.user("rita")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusCompleted)
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 12, learning.StatusInProgress)

	list, err := h.journeys.List(h.ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 1, list[0].ID)

	jp, err := h.journeys.GetWithProgress(h.as(u), 1)
	require.NoError(t, err)
	require.Len(t, jp.Missions, 3)
	assert.Equal(t, learning.StatusCompleted, jp.Missions[0].Status)
	assert.True(t, jp.Missions[0].QuizPassed)
	assert.Equal(t, learning.StatusInProgress, jp.Missions[1].Status)
	assert.Equal(t, learning.StatusLocked, jp.Missions[2].Status)
	assert.Equal(t, 1, jp.CompletedMissions)
	assert.Equal(t, 33, jp.Percentage)

	_, err = h.journeys.GetWithProgress(h.as(u), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.journeys.GetWithProgress(h.ctx, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMissionServiceStartAndCards(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 1, 2, 1)
	testutil.SeedCard(t, h.ctx, h.tx, 11, 2)
	testutil.SeedCard(t, h.ctx, h.tx, 11, 1)
	u := h.user("sara")
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 11, learning.StatusAvailable)
	ctx := h.as(u)

	m, err := h.missions.GetMissionWithProgress(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, learning.StatusLocked, m.Status)

	_, err = h.missions.StartMission(ctx, 12)
	assert.ErrorIs(t, err, ErrMissionNotAvailable)
	_, err = h.missions.GetCards(ctx, 12)
	assert.ErrorIs(t, err, ErrMissionNotAvailable)

	p, err := h.missions.StartMission(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, learning.StatusInProgress, p.Status)
	require.NotNil(t, p.StartedAt)

	again, err := h.missions.StartMission(ctx, 11)
	require.NoError(t, err)
	assert.True(t, p.StartedAt.Equal(*again.StartedAt))

	cards, err := h.missions.GetCards(ctx, 11)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, 1, cards[0].Order)

	_, err = h.missions.GetMissionWithProgress(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserProgressSummary(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCurriculum(t, h.ctx, h.tx, 2, 2, 1)
	u := h.user("tomas")
	completeJourney(h, u, 11, 12)
	testutil.SeedProgress(t, h.ctx, h.tx, u.ID, 21, learning.StatusAvailable)
	cert, _, err := h.certificates.IssueForJourney(h.ctx, u.ID, 1)
	require.NoError(t, err)

	up, err := h.progress.GetUserProgress(h.as(u))
	require.NoError(t, err)
	assert.Equal(t, 500, up.TotalPoints)
	assert.Equal(t, 2, up.CurrentJourney)
	assert.Equal(t, 2, up.CompletedMissions)
	assert.Equal(t, 4, up.TotalMissions)
	assert.Equal(t, 1, up.Certificates)
	require.Len(t, up.Journeys, 2)
	first := up.Journeys[0]
	assert.True(t, first.IsCompleted)
	assert.Equal(t, 100, first.Percentage)
	require.NotNil(t, first.CertificateID)
	assert.Equal(t, cert.ID, *first.CertificateID)
	second := up.Journeys[1]
	assert.False(t, second.IsCompleted)
	assert.Equal(t, 0, second.Percentage)
	assert.Nil(t, second.CertificateID)

	jp, err := h.progress.GetJourneyProgress(h.as(u), 2)
	require.NoError(t, err)
	assert.Equal(t, learning.StatusAvailable, jp.Missions[0].Status)
}
