package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/missions-backend/internal/data/repos"
	types "github.com/yungbote/missions-backend/internal/domain"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/observability"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
	"github.com/yungbote/missions-backend/internal/platform/redislock"
)

// QuizPolicy holds the attempt limits and the points schedule.
type QuizPolicy struct {
	MaxAttempts int
	Window      time.Duration
	// PassScore is an absolute number of correct answers.
	PassScore       int
	PointsSchedule  []int
	CompletionBonus int
	LockTTL         time.Duration
}

func DefaultQuizPolicy() QuizPolicy {
	return QuizPolicy{
		MaxAttempts:     3,
		Window:          24 * time.Hour,
		PassScore:       8,
		PointsSchedule:  []int{100, 75, 50},
		CompletionBonus: 50,
		LockTTL:         30 * time.Second,
	}
}

func (p QuizPolicy) withDefaults() QuizPolicy {
	def := DefaultQuizPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Window <= 0 {
		p.Window = def.Window
	}
	if p.PassScore <= 0 {
		p.PassScore = def.PassScore
	}
	if len(p.PointsSchedule) == 0 {
		p.PointsSchedule = def.PointsSchedule
	}
	if p.CompletionBonus < 0 {
		p.CompletionBonus = 0
	}
	if p.LockTTL <= 0 {
		p.LockTTL = def.LockTTL
	}
	return p
}

// Points is what a passing attempt earns: the schedule entry for the
// attempt number (the last entry repeats) plus the completion bonus.
func (p QuizPolicy) Points(attemptNumber int) int {
	p = p.withDefaults()
	if attemptNumber < 1 {
		attemptNumber = 1
	}
	idx := attemptNumber - 1
	if idx >= len(p.PointsSchedule) {
		idx = len(p.PointsSchedule) - 1
	}
	return p.PointsSchedule[idx] + p.CompletionBonus
}

type QuizStatus struct {
	AttemptsUsed  int        `json:"attemptsUsed"`
	MaxAttempts   int        `json:"maxAttempts"`
	CanAttempt    bool       `json:"canAttempt"`
	NextAttemptAt *time.Time `json:"nextAttemptAt,omitempty"`
	BestScore     *int       `json:"bestScore,omitempty"`
	Passed        bool       `json:"passed"`
}

// Status derives the attempt window state from attempts already filtered to
// the window, newest first.
func (p QuizPolicy) Status(recent []*types.QuizAttempt) QuizStatus {
	p = p.withDefaults()
	st := QuizStatus{AttemptsUsed: len(recent), MaxAttempts: p.MaxAttempts}
	for _, a := range recent {
		if a.Passed {
			st.Passed = true
		}
		if st.BestScore == nil || a.Score > *st.BestScore {
			score := a.Score
			st.BestScore = &score
		}
	}
	st.CanAttempt = st.AttemptsUsed < p.MaxAttempts || st.Passed
	if st.AttemptsUsed >= p.MaxAttempts && !st.Passed {
		oldest := recent[len(recent)-1].CreatedAt
		for _, a := range recent {
			if a.CreatedAt.Before(oldest) {
				oldest = a.CreatedAt
			}
		}
		next := oldest.Add(p.Window).UTC()
		st.NextAttemptAt = &next
	}
	return st
}

type ScoreResult struct {
	Score        int
	Total        int
	Results      map[string]bool
	Explanations map[string]string
}

// ScoreAnswers grades every question; an unanswered question is incorrect.
func ScoreAnswers(questions []*types.QuizQuestion, answers map[string]string) ScoreResult {
	res := ScoreResult{
		Total:        len(questions),
		Results:      make(map[string]bool, len(questions)),
		Explanations: map[string]string{},
	}
	for _, q := range questions {
		selected, ok := answers[q.ID]
		correct := ok && selected == q.CorrectID
		res.Results[q.ID] = correct
		if correct {
			res.Score++
			continue
		}
		if q.Explanation != nil && *q.Explanation != "" {
			res.Explanations[q.ID] = *q.Explanation
		}
	}
	return res
}

// PublicQuestion is a question without its answer key.
type PublicQuestion struct {
	ID        string                `json:"id"`
	MissionID uint                  `json:"missionId"`
	Question  string                `json:"question"`
	Options   []learning.QuizOption `json:"options"`
	Order     int                   `json:"order"`
}

type QuizResult struct {
	Score               int               `json:"score"`
	Total               int               `json:"total"`
	Passed              bool              `json:"passed"`
	AttemptsRemaining   int               `json:"attemptsRemaining"`
	PointsEarned        int               `json:"pointsEarned"`
	Results             map[string]bool   `json:"results"`
	Explanations        map[string]string `json:"explanations,omitempty"`
	NextMissionUnlocked *uint             `json:"nextMissionUnlocked,omitempty"`
	CertificateID       *uuid.UUID        `json:"certificateId,omitempty"`
}

type QuizService interface {
	GetQuestions(ctx context.Context, missionID uint) ([]PublicQuestion, error)
	GetStatus(ctx context.Context, missionID uint) (*QuizStatus, error)
	Submit(ctx context.Context, missionID uint, answers map[string]string) (*QuizResult, error)
	GetAttempts(ctx context.Context, missionID uint) ([]*types.QuizAttempt, error)
}

type quizService struct {
	log          *logger.Logger
	policy       QuizPolicy
	missions     repos.MissionRepo
	questions    repos.QuizQuestionRepo
	attempts     repos.QuizAttemptRepo
	progress     repos.MissionProgressRepo
	users        repos.UserRepo
	progression  domainagg.ProgressionAggregate
	certificates CertificateService
	notifier     Notifier
	locker       redislock.Locker
	metrics      *observability.Metrics
	now          func() time.Time
}

type QuizServiceDeps struct {
	Log          *logger.Logger
	Policy       QuizPolicy
	Missions     repos.MissionRepo
	Questions    repos.QuizQuestionRepo
	Attempts     repos.QuizAttemptRepo
	Progress     repos.MissionProgressRepo
	Users        repos.UserRepo
	Progression  domainagg.ProgressionAggregate
	Certificates CertificateService
	Notifier     Notifier
	Locker       redislock.Locker
	Metrics      *observability.Metrics
	Now          func() time.Time
}

func NewQuizService(deps QuizServiceDeps) QuizService {
	s := &quizService{
		log:          deps.Log.With("service", "QuizService"),
		policy:       deps.Policy.withDefaults(),
		missions:     deps.Missions,
		questions:    deps.Questions,
		attempts:     deps.Attempts,
		progress:     deps.Progress,
		users:        deps.Users,
		progression:  deps.Progression,
		certificates: deps.Certificates,
		notifier:     deps.Notifier,
		locker:       deps.Locker,
		metrics:      deps.Metrics,
		now:          deps.Now,
	}
	if s.locker == nil {
		s.locker = redislock.NewLocalLocker()
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func (s *quizService) GetQuestions(ctx context.Context, missionID uint) ([]PublicQuestion, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := requirePlayable(dbc, s.progress, userID, missionID); err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByMission(dbc, missionID)
	if err != nil {
		return nil, err
	}
	out := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, PublicQuestion{
			ID:        q.ID,
			MissionID: q.MissionID,
			Question:  q.Question,
			Options:   q.Options,
			Order:     q.Order,
		})
	}
	return out, nil
}

func (s *quizService) GetStatus(ctx context.Context, missionID uint) (*QuizStatus, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.status(dbctx.Context{Ctx: ctx}, userID, missionID)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *quizService) status(dbc dbctx.Context, userID uuid.UUID, missionID uint) (QuizStatus, error) {
	since := s.now().Add(-s.policy.Window)
	recent, err := s.attempts.ListSince(dbc, userID, missionID, since)
	if err != nil {
		return QuizStatus{}, err
	}
	return s.policy.Status(recent), nil
}

func (s *quizService) GetAttempts(ctx context.Context, missionID uint) ([]*types.QuizAttempt, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.attempts.ListByUserMission(dbctx.Context{Ctx: ctx}, userID, missionID)
}

func (s *quizService) Submit(ctx context.Context, missionID uint, answers map[string]string) (*QuizResult, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if missionID == 0 {
		return nil, invalidf("mission id is required")
	}
	res, outcome, err := s.submit(ctx, userID, missionID, answers)
	s.metrics.IncQuizSubmission(outcome)
	return res, err
}

func (s *quizService) submit(ctx context.Context, userID uuid.UUID, missionID uint, answers map[string]string) (*QuizResult, string, error) {
	lockKey := fmt.Sprintf("quiz-submit:%s:%d", userID, missionID)
	lease, err := s.locker.Acquire(ctx, lockKey, s.policy.LockTTL)
	if errors.Is(err, redislock.ErrLocked) {
		return nil, "in_progress", ErrSubmissionInProgress
	}
	if err != nil {
		return nil, "error", fmt.Errorf("acquire submission lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("release submission lock failed", "error", err, "mission_id", missionID)
		}
	}()

	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.progress.Get(dbc, userID, missionID)
	if err != nil {
		return nil, "error", err
	}
	if p == nil || p.Status == learning.StatusLocked {
		return nil, "not_available", ErrMissionNotAvailable
	}
	if p.QuizPassed {
		return nil, "already_passed", ErrQuizAlreadyPassed
	}

	st, err := s.status(dbc, userID, missionID)
	if err != nil {
		return nil, "error", err
	}
	if !st.CanAttempt && !st.Passed {
		return nil, "quota_exhausted", &QuotaExhaustedError{NextAttemptAt: *st.NextAttemptAt}
	}
	if st.Passed {
		return nil, "already_passed", ErrQuizAlreadyPassed
	}

	questions, err := s.questions.ListByMission(dbc, missionID)
	if err != nil {
		return nil, "error", err
	}
	if len(questions) == 0 {
		return nil, "error", ErrNoQuestions
	}

	scored := ScoreAnswers(questions, answers)
	passed := scored.Score >= s.policy.PassScore
	attemptNumber := st.AttemptsUsed + 1
	points := 0
	if passed {
		points = s.policy.Points(attemptNumber)
	}

	rec, err := s.progression.RecordQuizAttempt(ctx, domainagg.RecordQuizAttemptInput{
		UserID:        userID,
		MissionID:     missionID,
		AttemptNumber: attemptNumber,
		Score:         scored.Score,
		Total:         scored.Total,
		Passed:        passed,
		PointsEarned:  points,
		Answers:       answers,
		At:            s.now(),
	})
	if err != nil {
		return nil, "error", translateAggregateError(err)
	}

	out := &QuizResult{
		Score:        scored.Score,
		Total:        scored.Total,
		Passed:       passed,
		PointsEarned: points,
		Results:      scored.Results,
	}
	if !passed {
		out.AttemptsRemaining = max(s.policy.MaxAttempts-attemptNumber, 0)
		out.Explanations = scored.Explanations
		s.log.Info("quiz failed", "user_id", userID, "mission_id", missionID, "score", scored.Score, "attempt", attemptNumber)
		return out, "failed", nil
	}

	out.NextMissionUnlocked = rec.NextMissionID
	s.metrics.IncMissionCompleted(strconv.FormatUint(uint64(rec.JourneyID), 10))
	s.log.Info("quiz passed",
		"user_id", userID,
		"mission_id", missionID,
		"score", scored.Score,
		"attempt", attemptNumber,
		"points", points,
	)

	if rec.JourneyCompleted && s.certificates != nil {
		cert, _, err := s.certificates.IssueForJourney(ctx, userID, rec.JourneyID)
		if err != nil {
			// The reconciler picks the journey up later.
			s.log.Error("certificate issuance failed after journey completion",
				"error", err,
				"user_id", userID,
				"journey_id", rec.JourneyID,
			)
		} else if cert != nil {
			id := cert.ID
			out.CertificateID = &id
		}
	}
	s.notifyMissionCompleted(ctx, userID, missionID, points, rec.NextMissionID)
	return out, "passed", nil
}

func (s *quizService) notifyMissionCompleted(ctx context.Context, userID uuid.UUID, missionID uint, points int, nextID *uint) {
	dbc := dbctx.Context{Ctx: ctx}
	user, err := s.users.GetByID(dbc, userID)
	if err != nil || user == nil {
		s.log.Warn("mission completed notification skipped", "error", err, "user_id", userID)
		return
	}
	mission, err := s.missions.GetByID(dbc, missionID)
	if err != nil || mission == nil {
		s.log.Warn("mission completed notification skipped", "error", err, "mission_id", missionID)
		return
	}
	var nextTitle *string
	if nextID != nil {
		if next, err := s.missions.GetByID(dbc, *nextID); err == nil && next != nil {
			nextTitle = &next.Title
		}
	}
	s.notifier.MissionCompleted(ctx, user, mission, points, nextTitle)
}
