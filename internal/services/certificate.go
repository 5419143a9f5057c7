package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/missions-backend/internal/data/repos"
	types "github.com/yungbote/missions-backend/internal/domain"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/observability"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/gcp"
	"github.com/yungbote/missions-backend/internal/platform/logger"
	"github.com/yungbote/missions-backend/internal/platform/render"
)

const certificateNumberTries = 5

type CertificateConfig struct {
	RenderTimeout time.Duration
	BonusPoints   int
	FrontendURL   string
}

// CertificateDetails is the public view returned by verification.
type CertificateDetails struct {
	ID                uuid.UUID `json:"id"`
	CertificateNumber string    `json:"certificateNumber"`
	VerificationCode  string    `json:"verificationCode"`
	IssuedAt          time.Time `json:"issuedAt"`
	JourneyID         uint      `json:"journeyId"`
	UserName          string    `json:"userName"`
	UserEmail         string    `json:"userEmail"`
	JourneyName       string    `json:"journeyName"`
	JourneyTitle      string    `json:"journeyTitle"`
	CompletedMissions int       `json:"completedMissions"`
	TotalPoints       int       `json:"totalPoints"`
}

type CertificateVerification struct {
	Valid       bool                `json:"valid"`
	Certificate *CertificateDetails `json:"certificate,omitempty"`
	Message     string              `json:"message,omitempty"`
}

type ReconcileResult struct {
	Pending int
	Issued  int
	Failed  int
}

type CertificateService interface {
	// IssueForJourney is idempotent per (user, journey); created reports
	// whether this call inserted the certificate.
	IssueForJourney(ctx context.Context, userID uuid.UUID, journeyID uint) (cert *types.Certificate, created bool, err error)
	List(ctx context.Context) ([]*types.Certificate, error)
	Download(ctx context.Context, id uuid.UUID) (*types.Certificate, io.ReadCloser, error)
	Verify(ctx context.Context, code string) (*CertificateVerification, error)
	ReconcilePending(ctx context.Context, limit int) (ReconcileResult, error)
}

type CertificateServiceDeps struct {
	Log          *logger.Logger
	Config       CertificateConfig
	Users        repos.UserRepo
	Journeys     repos.JourneyRepo
	Missions     repos.MissionRepo
	Progress     repos.MissionProgressRepo
	Certificates repos.CertificateRepo
	Aggregate    domainagg.CertificateAggregate
	Renderer     render.CertificateRenderer
	Bucket       gcp.BucketService
	Notifier     Notifier
	Metrics      *observability.Metrics
	Now          func() time.Time
}

type certificateService struct {
	log          *logger.Logger
	cfg          CertificateConfig
	users        repos.UserRepo
	journeys     repos.JourneyRepo
	missions     repos.MissionRepo
	progress     repos.MissionProgressRepo
	certificates repos.CertificateRepo
	aggregate    domainagg.CertificateAggregate
	renderer     render.CertificateRenderer
	bucket       gcp.BucketService
	notifier     Notifier
	metrics      *observability.Metrics
	now          func() time.Time
}

func NewCertificateService(deps CertificateServiceDeps) CertificateService {
	cfg := deps.Config
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 20 * time.Second
	}
	if cfg.BonusPoints < 0 {
		cfg.BonusPoints = 0
	}
	cfg.FrontendURL = strings.TrimRight(strings.TrimSpace(cfg.FrontendURL), "/")
	s := &certificateService{
		log:          deps.Log.With("service", "CertificateService"),
		cfg:          cfg,
		users:        deps.Users,
		journeys:     deps.Journeys,
		missions:     deps.Missions,
		progress:     deps.Progress,
		certificates: deps.Certificates,
		aggregate:    deps.Aggregate,
		renderer:     deps.Renderer,
		bucket:       deps.Bucket,
		notifier:     deps.Notifier,
		metrics:      deps.Metrics,
		now:          deps.Now,
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func (s *certificateService) IssueForJourney(ctx context.Context, userID uuid.UUID, journeyID uint) (*types.Certificate, bool, error) {
	if userID == uuid.Nil || journeyID == 0 {
		return nil, false, invalidf("user and journey are required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.certificates.GetByUserJourney(dbc, userID, journeyID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	user, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return nil, false, err
	}
	journey, err := s.journeys.GetByID(dbc, journeyID)
	if err != nil {
		return nil, false, err
	}
	if user == nil || journey == nil {
		return nil, false, ErrNotFound
	}
	total, err := s.missions.CountByJourney(dbc, journeyID)
	if err != nil {
		return nil, false, err
	}
	done, err := s.progress.CountCompletedInJourney(dbc, userID, journeyID)
	if err != nil {
		return nil, false, err
	}
	if total == 0 || done < total {
		return nil, false, ErrJourneyNotCompleted
	}

	issuedAt := s.now()
	yearStart := time.Date(issuedAt.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	issuedThisYear, err := s.certificates.CountIssuedBetween(dbc, yearStart, yearStart.AddDate(1, 0, 0))
	if err != nil {
		return nil, false, err
	}

	for try := 0; try < certificateNumberTries; try++ {
		number := fmt.Sprintf("VCA-%d-%05d", issuedAt.Year(), issuedThisYear+1+int64(try))
		code := uuid.NewString()

		pdf, err := s.render(ctx, render.CertificateData{
			RecipientName:     user.Name,
			RecipientEmail:    user.Email,
			JourneyName:       journey.Name,
			JourneyTitle:      journey.Title,
			CertificateNumber: number,
			VerificationCode:  code,
			IssuedAt:          issuedAt,
			CompletedMissions: int(done),
			TotalPoints:       user.TotalPoints,
			VerifyURL:         s.cfg.FrontendURL + "/verify/" + code,
		})
		if err != nil {
			s.metrics.IncCertificate("failed")
			return nil, false, err
		}

		key := "certificates/" + number + ".pdf"
		if err := s.bucket.UploadFile(ctx, key, bytes.NewReader(pdf)); err != nil {
			s.metrics.IncCertificate("failed")
			return nil, false, fmt.Errorf("%w: store certificate pdf: %w", ErrRetryable, err)
		}

		res, err := s.aggregate.Issue(ctx, domainagg.IssueCertificateInput{
			UserID:            userID,
			JourneyID:         journeyID,
			CertificateNumber: number,
			VerificationCode:  code,
			PDFURL:            s.bucket.GetPublicURL(key),
			StorageKey:        key,
			IssuedAt:          issuedAt,
			BonusPoints:       s.cfg.BonusPoints,
		})
		if domainagg.IsCode(err, domainagg.CodeConflict) {
			s.deleteOrphan(ctx, key)
			s.log.Warn("certificate number taken, retrying", "number", number, "try", try+1)
			continue
		}
		if err != nil {
			s.deleteOrphan(ctx, key)
			s.metrics.IncCertificate("failed")
			return nil, false, translateAggregateError(err)
		}
		if !res.Created {
			if res.Certificate == nil || res.Certificate.StorageKey != key {
				s.deleteOrphan(ctx, key)
			}
			return res.Certificate, false, nil
		}

		cert := res.Certificate
		if cert.Journey == nil {
			cert.Journey = journey
		}
		s.metrics.IncCertificate("issued")
		s.log.Info("certificate issued",
			"user_id", userID,
			"journey_id", journeyID,
			"certificate_number", number,
		)
		s.notifier.CertificateIssued(ctx, user, journey, cert, pdf)
		return cert, true, nil
	}
	s.metrics.IncCertificate("failed")
	return nil, false, fmt.Errorf("%w: no free certificate number after %d tries", ErrRetryable, certificateNumberTries)
}

func (s *certificateService) render(ctx context.Context, data render.CertificateData) ([]byte, error) {
	start := time.Now()
	renderCtx, cancel := context.WithTimeout(ctx, s.cfg.RenderTimeout)
	defer cancel()
	pdf, err := s.renderer.RenderCertificate(renderCtx, data)
	if err == nil && len(pdf) == 0 {
		err = errors.New("renderer returned an empty document")
	}
	if err != nil {
		s.metrics.ObserveCertificateRender("failed", time.Since(start))
		s.log.Error("certificate render failed", "error", err, "certificate_number", data.CertificateNumber)
		return nil, fmt.Errorf("%w: render certificate: %w", ErrRetryable, err)
	}
	s.metrics.ObserveCertificateRender("success", time.Since(start))
	return pdf, nil
}

func (s *certificateService) deleteOrphan(ctx context.Context, key string) {
	if err := s.bucket.DeleteFile(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("orphaned certificate pdf not deleted", "key", key, "error", err)
	}
}

func (s *certificateService) List(ctx context.Context) ([]*types.Certificate, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.certificates.ListByUser(dbctx.Context{Ctx: ctx}, userID)
}

func (s *certificateService) Download(ctx context.Context, id uuid.UUID) (*types.Certificate, io.ReadCloser, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, nil, err
	}
	cert, err := s.certificates.GetForUser(dbctx.Context{Ctx: ctx}, id, userID)
	if err != nil {
		return nil, nil, err
	}
	if cert == nil {
		return nil, nil, ErrNotFound
	}
	body, err := s.bucket.DownloadFile(ctx, cert.StorageKey)
	if errors.Is(err, gcp.ErrObjectNotFound) {
		s.log.Error("certificate pdf missing from storage", "certificate_id", cert.ID, "key", cert.StorageKey)
		return nil, nil, fmt.Errorf("%w: certificate pdf", ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read certificate pdf: %w", ErrRetryable, err)
	}
	return cert, body, nil
}

func (s *certificateService) Verify(ctx context.Context, code string) (*CertificateVerification, error) {
	code = strings.TrimSpace(code)
	notFound := &CertificateVerification{Valid: false, Message: "Certificado no encontrado"}
	if code == "" {
		return notFound, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	cert, err := s.certificates.GetByVerificationCode(dbc, code)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return notFound, nil
	}
	user, err := s.users.GetByID(dbc, cert.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return notFound, nil
	}
	completed, err := s.progress.CountCompletedInJourney(dbc, cert.UserID, cert.JourneyID)
	if err != nil {
		return nil, err
	}
	details := &CertificateDetails{
		ID:                cert.ID,
		CertificateNumber: cert.CertificateNumber,
		VerificationCode:  cert.VerificationCode,
		IssuedAt:          cert.IssuedAt,
		JourneyID:         cert.JourneyID,
		UserName:          user.Name,
		UserEmail:         user.Email,
		CompletedMissions: int(completed),
		TotalPoints:       user.TotalPoints,
	}
	if cert.Journey != nil {
		details.JourneyName = cert.Journey.Name
		details.JourneyTitle = cert.Journey.Title
	}
	return &CertificateVerification{Valid: true, Certificate: details}, nil
}

// ReconcilePending issues certificates for completed journeys that have
// none, e.g. after a render failure during quiz submission.
func (s *certificateService) ReconcilePending(ctx context.Context, limit int) (ReconcileResult, error) {
	if limit <= 0 {
		limit = 100
	}
	pending, err := s.progress.ListCompletedWithoutCertificate(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return ReconcileResult{}, err
	}
	res := ReconcileResult{Pending: len(pending)}
	for _, p := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		_, created, err := s.IssueForJourney(ctx, p.UserID, p.JourneyID)
		if err != nil {
			res.Failed++
			s.log.Warn("reconcile certificate failed", "user_id", p.UserID, "journey_id", p.JourneyID, "error", err)
			continue
		}
		if created {
			res.Issued++
		}
	}
	return res, nil
}
