package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/missions-backend/internal/data/repos/testutil"
	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/observability"
)

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []Email
}

func (m *fakeMailer) Send(_ context.Context, msg Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestRenderEmails(t *testing.T) {
	welcome, err := RenderWelcomeEmail(WelcomeEmail{UserName: "<b>Ana</b>", FrontendURL: "https://app.example.com"})
	require.NoError(t, err)
	assert.Contains(t, welcome, "&lt;b&gt;Ana&lt;/b&gt;")
	assert.Contains(t, welcome, "https://app.example.com/dashboard")
	assert.Contains(t, welcome, "Aprende construyendo")

	withNext, err := RenderMissionCompletedEmail(MissionCompletedEmail{
		UserName:         "Ana",
		MissionNumber:    2,
		MissionTitle:     "Tu primera app",
		Points:           125,
		NextMissionTitle: "Conecta una API",
	})
	require.NoError(t, err)
	assert.Contains(t, withNext, "Misión 2: Tu primera app")
	assert.Contains(t, withNext, "+125")
	assert.Contains(t, withNext, "Conecta una API")

	last, err := RenderMissionCompletedEmail(MissionCompletedEmail{UserName: "Ana", MissionNumber: 4, MissionTitle: "Final"})
	require.NoError(t, err)
	assert.NotContains(t, last, "Siguiente misión")

	cert, err := RenderCertificateEmail(CertificateEmail{
		UserName:          "Ana",
		JourneyName:       "Básico",
		CertificateNumber: "VCA-2026-00001",
		VerificationCode:  "abc",
		FrontendURL:       "https://app.example.com",
	})
	require.NoError(t, err)
	assert.Contains(t, cert, "VCA-2026-00001")
	assert.Contains(t, cert, "https://app.example.com/verify/abc")

	assert.Equal(t, "¡Misión 3 completada!", MissionCompletedSubject(3))
	assert.Equal(t, "¡Felicitaciones! Tu Certificado de Básico", CertificateSubject("Básico"))
}

func TestEmailNotifierSendsInBackground(t *testing.T) {
	mailer := &fakeMailer{}
	metrics := observability.New(observability.Config{})
	n := NewEmailNotifier(testutil.Logger(t), mailer, NotifierConfig{FrontendURL: "https://app.example.com/"}, metrics)
	user := &types.User{Name: "Ana", Email: "ana@example.com"}
	journey := &types.Journey{Name: "Básico"}
	cert := &types.Certificate{CertificateNumber: "VCA-2026-00007", VerificationCode: "code"}

	ctx, cancel := context.WithCancel(context.Background())
	n.Welcome(ctx, user)
	n.MissionCompleted(ctx, user, &types.Mission{Number: 1, Title: "Hola"}, 150, nil)
	n.CertificateIssued(ctx, user, journey, cert, []byte("%PDF"))
	cancel()
	n.CertificateIssued(ctx, nil, journey, cert, nil)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, n.Wait(waitCtx))

	require.Len(t, mailer.sent, 3, "a cancelled caller does not cancel the send")
	byCategory := map[string]Email{}
	for _, m := range mailer.sent {
		byCategory[m.Category] = m
		assert.Equal(t, "ana@example.com", m.To)
	}
	assert.Equal(t, WelcomeSubject(), byCategory["welcome"].Subject)
	assert.Equal(t, "¡Misión 1 completada!", byCategory["mission_completed"].Subject)
	certMail := byCategory["certificate_issued"]
	require.Len(t, certMail.Attachments, 1)
	assert.Equal(t, "VCA-2026-00007.pdf", certMail.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", certMail.Attachments[0].MIMEType)
	assert.Contains(t, certMail.HTML, "https://app.example.com/verify/code")

	var prom strings.Builder
	require.NoError(t, metrics.WritePrometheus(&prom))
	assert.Contains(t, prom.String(), `kind="welcome",status="sent"`)
}

func TestEmailNotifierSwallowsSendErrors(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("provider down")}
	n := NewEmailNotifier(testutil.Logger(t), mailer, NotifierConfig{}, nil)
	n.Welcome(context.Background(), &types.User{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, n.Wait(context.Background()))
	assert.Empty(t, mailer.sent)
}

func TestConsoleMailer(t *testing.T) {
	m := NewConsoleMailer(testutil.Logger(t))
	assert.NoError(t, m.Send(context.Background(), Email{To: "a@example.com", Subject: "hi", HTML: "<p>hi</p>"}))
}
