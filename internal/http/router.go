package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/missions-backend/internal/http/handlers"
	httpMW "github.com/yungbote/missions-backend/internal/http/middleware"
	"github.com/yungbote/missions-backend/internal/observability"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	// ServiceName enables otelgin spans when non-empty.
	ServiceName string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler

	JourneyHandler     *httpH.JourneyHandler
	MissionHandler     *httpH.MissionHandler
	QuizHandler        *httpH.QuizHandler
	ProgressHandler    *httpH.ProgressHandler
	CertificateHandler *httpH.CertificateHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Public
		if cfg.AuthHandler != nil {
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
		if cfg.CertificateHandler != nil {
			api.GET("/verify/:code", cfg.CertificateHandler.Verify)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
		}

		if cfg.UserHandler != nil {
			protected.GET("/users/profile", cfg.UserHandler.GetProfile)
			protected.PATCH("/users/preferences", cfg.UserHandler.UpdatePreferences)
		}

		// Curriculum
		if cfg.JourneyHandler != nil {
			protected.GET("/journeys", cfg.JourneyHandler.List)
			protected.GET("/journeys/:id", cfg.JourneyHandler.Get)
		}
		if cfg.MissionHandler != nil {
			protected.GET("/missions/:id", cfg.MissionHandler.Get)
			protected.POST("/missions/:id/start", cfg.MissionHandler.Start)
			protected.GET("/missions/:id/cards", cfg.MissionHandler.Cards)
		}

		// Quiz
		if cfg.QuizHandler != nil {
			protected.GET("/quiz/:missionId", cfg.QuizHandler.Questions)
			protected.GET("/quiz/:missionId/status", cfg.QuizHandler.Status)
			protected.POST("/quiz/:missionId/submit", cfg.QuizHandler.Submit)
			protected.GET("/quiz/:missionId/attempts", cfg.QuizHandler.Attempts)
		}

		if cfg.ProgressHandler != nil {
			protected.GET("/progress", cfg.ProgressHandler.Get)
			protected.GET("/progress/journey/:id", cfg.ProgressHandler.Journey)
		}

		if cfg.CertificateHandler != nil {
			protected.GET("/certificates", cfg.CertificateHandler.List)
			protected.GET("/certificates/:id/download", cfg.CertificateHandler.Download)
		}
	}

	return r
}
