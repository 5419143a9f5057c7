package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/missions-backend/internal/http/handlers"
	httpMW "github.com/yungbote/missions-backend/internal/http/middleware"
	"github.com/yungbote/missions-backend/internal/observability"
	"github.com/yungbote/missions-backend/internal/platform/logger"
	"github.com/yungbote/missions-backend/internal/services"
)

func TestRouterProtectsAPIAndCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := observability.New(observability.Config{})
	log := logger.NewNop()
	var auth services.AuthService
	r := NewRouter(RouterConfig{
		Log:            log,
		Metrics:        metrics,
		HealthHandler:  httpH.NewHealthHandler(nil),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth),
		JourneyHandler: httpH.NewJourneyHandler(nil),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journeys", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated journeys: got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}

	if got := metrics.APIRequestCount(http.MethodGet, "/api/journeys", "401"); got != 1 {
		t.Fatalf("api request count: got %v want 1", got)
	}
}
