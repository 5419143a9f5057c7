package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	types "github.com/yungbote/missions-backend/internal/domain"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/platform/logger"
	"github.com/yungbote/missions-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeQuiz struct {
	submitErr error
	gotID     uint
	gotAns    map[string]string
}

func (f *fakeQuiz) GetQuestions(context.Context, uint) ([]services.PublicQuestion, error) {
	return []services.PublicQuestion{{ID: "m1q1", Question: "?"}}, nil
}

func (f *fakeQuiz) GetStatus(context.Context, uint) (*services.QuizStatus, error) {
	return &services.QuizStatus{MaxAttempts: 3, CanAttempt: true}, nil
}

func (f *fakeQuiz) Submit(_ context.Context, id uint, answers map[string]string) (*services.QuizResult, error) {
	f.gotID, f.gotAns = id, answers
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &services.QuizResult{Score: 9, Total: 10, Passed: true, PointsEarned: 125}, nil
}

func (f *fakeQuiz) GetAttempts(context.Context, uint) ([]*types.QuizAttempt, error) {
	return nil, nil
}

type fakeCertificates struct {
	cert *types.Certificate
	pdf  string
	err  error
}

func (f *fakeCertificates) IssueForJourney(context.Context, uuid.UUID, uint) (*types.Certificate, bool, error) {
	return nil, false, errors.New("unused")
}

func (f *fakeCertificates) List(context.Context) ([]*types.Certificate, error) {
	return []*types.Certificate{f.cert}, nil
}

func (f *fakeCertificates) Download(context.Context, uuid.UUID) (*types.Certificate, io.ReadCloser, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.cert, io.NopCloser(strings.NewReader(f.pdf)), nil
}

func (f *fakeCertificates) Verify(_ context.Context, code string) (*services.CertificateVerification, error) {
	if code != "good" {
		return &services.CertificateVerification{Message: "Certificado no encontrado"}, nil
	}
	return &services.CertificateVerification{Valid: true, Certificate: &services.CertificateDetails{CertificateNumber: f.cert.CertificateNumber}}, nil
}

func (f *fakeCertificates) ReconcilePending(context.Context, int) (services.ReconcileResult, error) {
	return services.ReconcileResult{}, nil
}

type envelope struct {
	Error struct {
		Message string         `json:"message"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestToAPIError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"mission locked", fmt.Errorf("%w: x", services.ErrMissionNotAvailable), 403, "mission_not_available"},
		{"already passed", services.ErrQuizAlreadyPassed, 403, "quiz_already_passed"},
		{"quota", &services.QuotaExhaustedError{NextAttemptAt: time.Now()}, 403, "quota_exhausted"},
		{"in progress", services.ErrSubmissionInProgress, 409, "submission_in_progress"},
		{"no questions", services.ErrNoQuestions, 404, "not_found"},
		{"gorm not found", gorm.ErrRecordNotFound, 404, "not_found"},
		{"aggregate not found", domainagg.NewError(domainagg.CodeNotFound, "op", "missing", nil), 404, "not_found"},
		{"invalid", services.ErrInvalidRequest, 400, "invalid_request"},
		{"aggregate validation", domainagg.NewError(domainagg.CodeValidation, "op", "bad", nil), 400, "invalid_request"},
		{"unauthorized", services.ErrUnauthorized, 401, "unauthorized"},
		{"conflict", domainagg.NewError(domainagg.CodeConflict, "op", "dup", nil), 409, "conflict"},
		{"journey incomplete", services.ErrJourneyNotCompleted, 409, "journey_not_completed"},
		{"retryable", fmt.Errorf("%w: render", services.ErrRetryable), 503, "retryable"},
		{"other", errors.New("boom"), 500, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := toAPIError(tc.err)
			if got.Status != tc.status || got.Code != tc.code {
				t.Fatalf("toAPIError(%v) = %d/%s, want %d/%s", tc.err, got.Status, got.Code, tc.status, tc.code)
			}
		})
	}
}

func TestQuizSubmit(t *testing.T) {
	quiz := &fakeQuiz{}
	h := NewQuizHandler(quiz)
	r := gin.New()
	r.POST("/quiz/:missionId/submit", h.Submit)

	rec := do(t, r, http.MethodPost, "/quiz/3/submit", `{"answers":{"m3q1":"a"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, quiz.gotID)
	assert.Equal(t, map[string]string{"m3q1": "a"}, quiz.gotAns)
	var res services.QuizResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 125, res.PointsEarned)
	assert.Contains(t, rec.Body.String(), `"pointsEarned":125`)

	rec = do(t, r, http.MethodPost, "/quiz/3/submit", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Error.Code)

	rec = do(t, r, http.MethodPost, "/quiz/abc/submit", `{"answers":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	next := time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC)
	quiz.submitErr = &services.QuotaExhaustedError{NextAttemptAt: next}
	rec = do(t, r, http.MethodPost, "/quiz/3/submit", `{"answers":{"m3q1":"a"}}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, "quota_exhausted", env.Error.Code)
	assert.Equal(t, "2026-04-11T08:00:00Z", env.Error.Details["nextAttemptAt"])

	quiz.submitErr = errors.New("db exploded")
	rec = do(t, r, http.MethodPost, "/quiz/3/submit", `{"answers":{"m3q1":"a"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db exploded")
}

func TestCertificateDownloadAndVerify(t *testing.T) {
	certs := &fakeCertificates{
		cert: &types.Certificate{ID: uuid.New(), CertificateNumber: "VCA-2026-00001"},
		pdf:  "%PDF-1.4 body",
	}
	h := NewCertificateHandler(logger.NewNop(), certs)
	r := gin.New()
	r.GET("/certificates/:id/download", h.Download)
	r.GET("/verify/:code", h.Verify)

	rec := do(t, r, http.MethodGet, "/certificates/"+certs.cert.ID.String()+"/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="VCA-2026-00001.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 body", rec.Body.String())

	rec = do(t, r, http.MethodGet, "/certificates/not-a-uuid/download", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	certs.err = services.ErrNotFound
	rec = do(t, r, http.MethodGet, "/certificates/"+uuid.NewString()+"/download", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/verify/good", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)

	rec = do(t, r, http.MethodGet, "/verify/bad", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":false`)
	assert.NotContains(t, rec.Body.String(), "certificateNumber")
}

type pingerFunc func(context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	healthy := NewHealthHandler(pingerFunc(func(context.Context) error { return nil }))
	down := NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("down") }))
	r := gin.New()
	r.GET("/ok", healthy.HealthCheck)
	r.GET("/down", down.HealthCheck)

	rec := do(t, r, http.MethodGet, "/ok", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodGet, "/down", "").Code)
}
