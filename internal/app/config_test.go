package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/missions-backend/internal/platform/firebase"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FIREBASE_PROJECT_ID", "DATABASE_URL", "SERVER_CORS_ORIGINS", "QUIZ_MAX_ATTEMPTS",
		"QUIZ_WINDOW", "PORT", "SERVER_PORT", "SENDGRID_API_KEY", "STORAGE_MODE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigRequiresFirebaseProject(t *testing.T) {
	clearConfigEnv(t)
	_, err := LoadConfig("")
	if !errors.Is(err, ErrMissingFirebaseProject) {
		t.Fatalf("expected ErrMissingFirebaseProject, got %v", err)
	}
}

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "vca-prod")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/missions?sslmode=require")
	t.Setenv("SERVER_CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("QUIZ_MAX_ATTEMPTS", "5")
	t.Setenv("QUIZ_WINDOW", "12h")
	t.Setenv("PORT", "9000")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "vca-prod", cfg.Firebase.ProjectID)
	assert.Equal(t, firebase.DefaultJWKSURL, cfg.Firebase.JWKSURL)
	assert.Equal(t, "postgres://u:p@db:5432/missions?sslmode=require", cfg.Postgres().DSN())
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, ":9000", cfg.Addr())

	policy := cfg.QuizPolicy()
	assert.Equal(t, 5, policy.MaxAttempts)
	assert.Equal(t, 12*time.Hour, policy.Window)
	assert.Equal(t, 8, policy.PassScore)
	assert.Equal(t, 30*time.Second, policy.LockTTL)

	assert.Equal(t, 500, cfg.Certificates.BonusPoints)
	assert.Equal(t, "@every 10m", cfg.Certificates.ReconcileCron)
	assert.Equal(t, 20*time.Second, cfg.Certificates.RenderTimeout)
	assert.Equal(t, 30*time.Second, cfg.Email.Timeout)
	assert.Empty(t, cfg.Email.SendGridAPIKey)
}

func TestLoadConfigFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "7070"
  cors_origins: ["https://vibecoding.academy"]
firebase:
  project_id: vca-staging
storage:
  mode: gcs
  bucket: vca-certificates
certificates:
  reconcile_cron: ""
  frontend_url: https://vibecoding.academy
quiz:
  pass_score: 7
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr())
	assert.Equal(t, []string{"https://vibecoding.academy"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "vca-staging", cfg.Firebase.ProjectID)
	assert.Equal(t, "vca-certificates", cfg.ObjectStorage().Bucket)
	assert.Equal(t, "gcs", string(cfg.ObjectStorage().Mode))
	assert.Equal(t, "", cfg.Certificates.ReconcileCron)
	assert.Equal(t, 7, cfg.QuizPolicy().PassScore)
	assert.Equal(t, 3, cfg.QuizPolicy().MaxAttempts)
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "vca")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfigRejectsNonPositiveQuizSettings(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "vca")
	t.Setenv("QUIZ_MAX_ATTEMPTS", "0")
	_, err := LoadConfig("")
	require.Error(t, err)
}
