package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/missions-backend/internal/http"
	httpH "github.com/yungbote/missions-backend/internal/http/handlers"
	httpMW "github.com/yungbote/missions-backend/internal/http/middleware"
	"github.com/yungbote/missions-backend/internal/observability"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	User        *httpH.UserHandler
	Journey     *httpH.JourneyHandler
	Mission     *httpH.MissionHandler
	Quiz        *httpH.QuizHandler
	Progress    *httpH.ProgressHandler
	Certificate *httpH.CertificateHandler
}

func wireHandlers(log *logger.Logger, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(db),
		Auth:        httpH.NewAuthHandler(services.Auth, services.User),
		User:        httpH.NewUserHandler(services.User),
		Journey:     httpH.NewJourneyHandler(services.Journey),
		Mission:     httpH.NewMissionHandler(services.Mission),
		Quiz:        httpH.NewQuizHandler(services.Quiz),
		Progress:    httpH.NewProgressHandler(services.Progress),
		Certificate: httpH.NewCertificateHandler(log, services.Certificates),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg *Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	serviceName := ""
	if cfg.Observability.OtelEnabled {
		serviceName = cfg.Observability.ServiceName
	}
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		CORSOrigins:        cfg.Server.CORSOrigins,
		ServiceName:        serviceName,
		HealthHandler:      handlers.Health,
		AuthHandler:        handlers.Auth,
		AuthMiddleware:     middleware.Auth,
		UserHandler:        handlers.User,
		JourneyHandler:     handlers.Journey,
		MissionHandler:     handlers.Mission,
		QuizHandler:        handlers.Quiz,
		ProgressHandler:    handlers.Progress,
		CertificateHandler: handlers.Certificate,
	})
}
