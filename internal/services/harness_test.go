package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/missions-backend/internal/data/aggregates"
	"github.com/yungbote/missions-backend/internal/data/repos"
	"github.com/yungbote/missions-backend/internal/data/repos/testutil"
	types "github.com/yungbote/missions-backend/internal/domain"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/platform/ctxutil"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/gcp"
	"github.com/yungbote/missions-backend/internal/platform/redislock"
	"github.com/yungbote/missions-backend/internal/platform/render"
)

type fakeRenderer struct {
	mu    sync.Mutex
	err   error
	calls []render.CertificateData
}

func (r *fakeRenderer) RenderCertificate(_ context.Context, data render.CertificateData) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, data)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 " + data.CertificateNumber), nil
}

type sentCertificate struct {
	user *types.User
	cert *types.Certificate
	pdf  []byte
}

type recordingNotifier struct {
	mu           sync.Mutex
	welcomes     []*types.User
	completed    []string
	certificates []sentCertificate
	// dispatched lists notification kinds in call order.
	dispatched []string
}

func (n *recordingNotifier) Welcome(_ context.Context, u *types.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, u)
	n.dispatched = append(n.dispatched, "welcome")
}

func (n *recordingNotifier) MissionCompleted(_ context.Context, u *types.User, m *types.Mission, points int, next *string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	nextTitle := ""
	if next != nil {
		nextTitle = *next
	}
	n.completed = append(n.completed, fmt.Sprintf("%d:%d:%s", m.ID, points, nextTitle))
	n.dispatched = append(n.dispatched, "mission_completed")
}

func (n *recordingNotifier) CertificateIssued(_ context.Context, u *types.User, _ *types.Journey, c *types.Certificate, pdf []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.certificates = append(n.certificates, sentCertificate{user: u, cert: c, pdf: pdf})
	n.dispatched = append(n.dispatched, "certificate_issued")
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	tx       *gorm.DB
	set      repos.Set
	clock    time.Time
	notifier *recordingNotifier
	renderer *fakeRenderer
	bucket   gcp.BucketService
	locker   redislock.Locker

	progression  domainagg.ProgressionAggregate
	missions     MissionService
	quiz         QuizService
	certificates CertificateService
	journeys     JourneyService
	progress     ProgressService
	users        UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithLocker(t, redislock.NewLocalLocker())
}

func newHarnessWithLocker(t *testing.T, locker redislock.Locker) *harness {
	t.Helper()
	log := testutil.Logger(t)
	tx := testutil.Tx(t, testutil.DB(t))
	bucket, err := gcp.NewBucketService(context.Background(), log, gcp.ObjectStorageConfig{
		Mode:          gcp.ObjectStorageModeLocal,
		LocalDir:      t.TempDir(),
		PublicBaseURL: "https://files.example.com",
	})
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	h := &harness{
		t:        t,
		ctx:      context.Background(),
		tx:       tx,
		set:      repos.NewSet(tx, log),
		clock:    time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC),
		notifier: &recordingNotifier{},
		renderer: &fakeRenderer{},
		bucket:   bucket,
		locker:   locker,
	}
	now := func() time.Time { return h.clock }

	base := aggregates.BaseDeps{DB: tx, Log: log}
	progression := aggregates.NewProgressionAggregate(aggregates.ProgressionAggregateDeps{
		Base:     base,
		Users:    h.set.User,
		Journeys: h.set.Journey,
		Missions: h.set.Mission,
		Progress: h.set.MissionProgress,
		Attempts: h.set.QuizAttempt,
	})
	certAgg := aggregates.NewCertificateAggregate(aggregates.CertificateAggregateDeps{
		Base:         base,
		Users:        h.set.User,
		Missions:     h.set.Mission,
		Progress:     h.set.MissionProgress,
		Certificates: h.set.Certificate,
	})

	h.progression = progression
	h.certificates = NewCertificateService(CertificateServiceDeps{
		Log:          log,
		Config:       CertificateConfig{BonusPoints: 500, FrontendURL: "https://app.example.com/"},
		Users:        h.set.User,
		Journeys:     h.set.Journey,
		Missions:     h.set.Mission,
		Progress:     h.set.MissionProgress,
		Certificates: h.set.Certificate,
		Aggregate:    certAgg,
		Renderer:     h.renderer,
		Bucket:       bucket,
		Notifier:     h.notifier,
		Now:          now,
	})
	h.quiz = NewQuizService(QuizServiceDeps{
		Log:          log,
		Policy:       DefaultQuizPolicy(),
		Missions:     h.set.Mission,
		Questions:    h.set.QuizQuestion,
		Attempts:     h.set.QuizAttempt,
		Progress:     h.set.MissionProgress,
		Users:        h.set.User,
		Progression:  progression,
		Certificates: h.certificates,
		Notifier:     h.notifier,
		Locker:       locker,
		Now:          now,
	})
	h.missions = NewMissionService(log, h.set.Mission, h.set.Card, h.set.MissionProgress, progression)
	h.journeys = NewJourneyService(log, h.set.Journey, h.set.Mission, h.set.MissionProgress)
	h.progress = NewProgressService(log, h.set.User, h.set.Journey, h.set.Mission, h.set.MissionProgress, h.set.Certificate)
	h.users = NewUserService(log, h.set.User, h.set.Certificate)
	return h
}

func (h *harness) as(u *types.User) context.Context {
	return ctxutil.WithRequestData(h.ctx, &ctxutil.RequestData{UserID: u.ID, FirebaseUID: u.FirebaseUID})
}

func (h *harness) user(name string) *types.User {
	return testutil.SeedUser(h.t, h.ctx, h.tx, name)
}

func (h *harness) progressRow(u *types.User, missionID uint) *types.MissionProgress {
	h.t.Helper()
	p, err := h.set.MissionProgress.Get(h.dbc(), u.ID, missionID)
	if err != nil {
		h.t.Fatalf("get progress: %v", err)
	}
	return p
}

func (h *harness) reload(u *types.User) *types.User {
	h.t.Helper()
	fresh, err := h.set.User.GetByID(h.dbc(), u.ID)
	if err != nil || fresh == nil {
		h.t.Fatalf("reload user: %v", err)
	}
	return fresh
}

func (h *harness) dbc() dbctx.Context { return dbctx.Context{Ctx: h.ctx} }

// answersFor answers the first correct seeded questions right and the rest
// wrong. Seeded questions have ids m<mission>-qNN and correct option "a".
func answersFor(missionID uint, total, correct int) map[string]string {
	out := make(map[string]string, total)
	for i := 1; i <= total; i++ {
		choice := "b"
		if i <= correct {
			choice = "a"
		}
		out[fmt.Sprintf("m%d-q%02d", missionID, i)] = choice
	}
	return out
}

var errBoom = errors.New("boom")

