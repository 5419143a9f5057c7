package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/domain/learning"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.User {
	tb.Helper()
	suffix := uuid.NewString()[:8]
	u := &types.User{
		FirebaseUID: "fb-" + suffix,
		Email:       fmt.Sprintf("%s-%s@example.com", name, suffix),
		Name:        name,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedJourney(tb testing.TB, ctx context.Context, tx *gorm.DB, id uint, order int, name string, required int) *types.Journey {
	tb.Helper()
	j := &types.Journey{
		ID:               id,
		Order:            order,
		Name:             name,
		Title:            name + " title",
		Description:      "description",
		Color:            "#0891b2",
		Icon:             "rocket",
		RequiredMissions: required,
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed journey: %v", err)
	}
	return j
}

func SeedMission(tb testing.TB, ctx context.Context, tx *gorm.DB, id uint, journeyID uint, order int) *types.Mission {
	tb.Helper()
	m := &types.Mission{
		ID:          id,
		JourneyID:   journeyID,
		Order:       order,
		Number:      order,
		Title:       fmt.Sprintf("Mission %d", id),
		Subtitle:    "subtitle",
		Description: "description",
		Objectives:  []string{"learn"},
		Duration:    60,
		Difficulty:  learning.DifficultyBeginner,
		ResultTitle: "result",
		ResultDesc:  "result description",
		ShowOffText: "show off",
		Points:      100,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed mission: %v", err)
	}
	return m
}

// SeedQuestions creates n questions whose correct option is "a". Odd
// questions carry an explanation.
func SeedQuestions(tb testing.TB, ctx context.Context, tx *gorm.DB, missionID uint, n int) []*types.QuizQuestion {
	tb.Helper()
	out := make([]*types.QuizQuestion, 0, n)
	for i := 1; i <= n; i++ {
		q := &types.QuizQuestion{
			ID:        fmt.Sprintf("m%d-q%02d", missionID, i),
			MissionID: missionID,
			Question:  fmt.Sprintf("Question %d?", i),
			Options: []types.QuizOption{
				{ID: "a", Text: "right"},
				{ID: "b", Text: "wrong"},
				{ID: "c", Text: "also wrong"},
			},
			CorrectID: "a",
			Order:     i,
		}
		if i%2 == 1 {
			expl := fmt.Sprintf("because %d", i)
			q.Explanation = &expl
		}
		if err := tx.WithContext(ctx).Create(q).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		out = append(out, q)
	}
	return out
}

func SeedCard(tb testing.TB, ctx context.Context, tx *gorm.DB, missionID uint, order int) *types.Card {
	tb.Helper()
	c := &types.Card{
		MissionID: missionID,
		Type:      learning.CardConcept,
		Icon:      "lightbulb",
		Title:     fmt.Sprintf("Card %d", order),
		Content:   "content",
		Order:     order,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed card: %v", err)
	}
	return c
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, missionID uint, status types.MissionStatus) *types.MissionProgress {
	tb.Helper()
	p := &types.MissionProgress{UserID: userID, MissionID: missionID, Status: status}
	if status == learning.StatusCompleted {
		now := time.Now().UTC()
		p.CompletedAt = &now
		p.QuizPassed = true
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

// Curriculum is a seeded set of journeys; Missions[j] holds journey j's
// missions in order.
type Curriculum struct {
	Journeys []*types.Journey
	Missions [][]*types.Mission
}

// SeedCurriculum seeds journeys with ids 1..journeys, each with
// missionsPer missions numbered journey*10+order and questionsPer questions.
func SeedCurriculum(tb testing.TB, ctx context.Context, tx *gorm.DB, journeys, missionsPer, questionsPer int) Curriculum {
	tb.Helper()
	var c Curriculum
	for j := 1; j <= journeys; j++ {
		journey := SeedJourney(tb, ctx, tx, uint(j), j, fmt.Sprintf("Journey %d", j), missionsPer)
		c.Journeys = append(c.Journeys, journey)
		var ms []*types.Mission
		for o := 1; o <= missionsPer; o++ {
			m := SeedMission(tb, ctx, tx, uint(j*10+o), journey.ID, o)
			SeedQuestions(tb, ctx, tx, m.ID, questionsPer)
			ms = append(ms, m)
		}
		c.Missions = append(c.Missions, ms)
	}
	return c
}
