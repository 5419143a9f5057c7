package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/observability"
	"github.com/yungbote/missions-backend/internal/platform/logger"
	"github.com/yungbote/missions-backend/internal/platform/sendgrid"
)

// =========================
// Notifier
// =========================

// Notifier fires user-facing emails. Implementations never block the caller
// on delivery and never surface delivery errors.
type Notifier interface {
	Welcome(ctx context.Context, user *types.User)
	MissionCompleted(ctx context.Context, user *types.User, mission *types.Mission, points int, nextMissionTitle *string)
	CertificateIssued(ctx context.Context, user *types.User, journey *types.Journey, cert *types.Certificate, pdf []byte)
}

type NopNotifier struct{}

func (NopNotifier) Welcome(context.Context, *types.User) {}
func (NopNotifier) MissionCompleted(context.Context, *types.User, *types.Mission, int, *string) {
}
func (NopNotifier) CertificateIssued(context.Context, *types.User, *types.Journey, *types.Certificate, []byte) {
}

// =========================
// Mailer
// =========================

type Email struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Attachments []sendgrid.Attachment
	Category    string
}

type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

type sendgridMailer struct {
	client sendgrid.Client
}

func NewSendGridMailer(client sendgrid.Client) Mailer {
	return &sendgridMailer{client: client}
}

func (m *sendgridMailer) Send(ctx context.Context, msg Email) error {
	req := sendgrid.SendEmailRequest{
		To:          []sendgrid.EmailAddress{{Email: msg.To, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTML:        msg.HTML,
		Attachments: msg.Attachments,
	}
	if msg.Category != "" {
		req.Categories = []string{msg.Category}
	}
	_, err := m.client.Send(ctx, req)
	return err
}

// consoleMailer logs instead of sending; used when no provider is configured.
type consoleMailer struct {
	log *logger.Logger
}

func NewConsoleMailer(log *logger.Logger) Mailer {
	return &consoleMailer{log: log.With("mailer", "console")}
}

func (m *consoleMailer) Send(_ context.Context, msg Email) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	m.log.Info("email (console)",
		"to", msg.To,
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML),
		"attachments", strings.Join(names, ","),
	)
	return nil
}

// =========================
// Dispatcher
// =========================

type NotifierConfig struct {
	FrontendURL    string
	Timeout        time.Duration
	MaxConcurrency int64
}

type EmailNotifier struct {
	log     *logger.Logger
	mailer  Mailer
	cfg     NotifierConfig
	sem     *semaphore.Weighted
	metrics *observability.Metrics
	wg      sync.WaitGroup
}

// NewEmailNotifier sends each email on its own goroutine, detached from the
// caller's cancellation and bounded by cfg.Timeout.
func NewEmailNotifier(log *logger.Logger, mailer Mailer, cfg NotifierConfig, metrics *observability.Metrics) *EmailNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	cfg.FrontendURL = strings.TrimRight(strings.TrimSpace(cfg.FrontendURL), "/")
	return &EmailNotifier{
		log:     log.With("service", "EmailNotifier"),
		mailer:  mailer,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrency),
		metrics: metrics,
	}
}

func (n *EmailNotifier) Welcome(ctx context.Context, user *types.User) {
	if user == nil {
		return
	}
	html, err := RenderWelcomeEmail(WelcomeEmail{UserName: user.Name, FrontendURL: n.cfg.FrontendURL})
	n.dispatch(ctx, "welcome", user, WelcomeSubject(), html, nil, err)
}

func (n *EmailNotifier) MissionCompleted(ctx context.Context, user *types.User, mission *types.Mission, points int, nextMissionTitle *string) {
	if user == nil || mission == nil {
		return
	}
	data := MissionCompletedEmail{
		UserName:      user.Name,
		MissionNumber: mission.Number,
		MissionTitle:  mission.Title,
		Points:        points,
		FrontendURL:   n.cfg.FrontendURL,
	}
	if nextMissionTitle != nil {
		data.NextMissionTitle = *nextMissionTitle
	}
	html, err := RenderMissionCompletedEmail(data)
	n.dispatch(ctx, "mission_completed", user, MissionCompletedSubject(mission.Number), html, nil, err)
}

func (n *EmailNotifier) CertificateIssued(ctx context.Context, user *types.User, journey *types.Journey, cert *types.Certificate, pdf []byte) {
	if user == nil || journey == nil || cert == nil {
		return
	}
	html, err := RenderCertificateEmail(CertificateEmail{
		UserName:          user.Name,
		JourneyName:       journey.Name,
		CertificateNumber: cert.CertificateNumber,
		VerificationCode:  cert.VerificationCode,
		FrontendURL:       n.cfg.FrontendURL,
	})
	var attachments []sendgrid.Attachment
	if len(pdf) > 0 {
		attachments = append(attachments, sendgrid.Attachment{
			Filename: cert.PDFFilename(),
			MIMEType: "application/pdf",
			Content:  pdf,
		})
	}
	n.dispatch(ctx, "certificate_issued", user, CertificateSubject(journey.Name), html, attachments, err)
}

func (n *EmailNotifier) dispatch(ctx context.Context, kind string, user *types.User, subject, html string, attachments []sendgrid.Attachment, renderErr error) {
	if renderErr != nil {
		n.log.Error("email render failed", "kind", kind, "error", renderErr)
		n.metrics.IncNotification(kind, "failed")
		return
	}
	msg := Email{
		To:          user.Email,
		ToName:      user.Name,
		Subject:     subject,
		HTML:        html,
		Attachments: attachments,
		Category:    kind,
	}
	base := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(base, n.cfg.Timeout)
		defer cancel()
		if err := n.sem.Acquire(sendCtx, 1); err != nil {
			n.log.Warn("email dropped waiting for a send slot", "kind", kind, "error", err)
			n.metrics.IncNotification(kind, "dropped")
			return
		}
		defer n.sem.Release(1)
		if err := n.mailer.Send(sendCtx, msg); err != nil {
			n.log.Error("email send failed", "kind", kind, "user_id", user.ID, "error", err)
			n.metrics.IncNotification(kind, "failed")
			return
		}
		n.metrics.IncNotification(kind, "sent")
	}()
}

// Wait blocks until in-flight sends finish or ctx ends.
func (n *EmailNotifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for email sends: %w", ctx.Err())
	}
}
