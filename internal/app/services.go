package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/missions-backend/internal/data/aggregates"
	"github.com/yungbote/missions-backend/internal/data/repos"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/observability"
	"github.com/yungbote/missions-backend/internal/platform/logger"
	"github.com/yungbote/missions-backend/internal/services"
)

type Aggregates struct {
	Progression domainagg.ProgressionAggregate
	Certificate domainagg.CertificateAggregate
}

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Journey      services.JourneyService
	Mission      services.MissionService
	Quiz         services.QuizService
	Progress     services.ProgressService
	Certificates services.CertificateService

	Notifier   *services.EmailNotifier
	Reconciler *services.CertificateReconciler
}

func wireAggregates(db *gorm.DB, log *logger.Logger, metrics *observability.Metrics, r repos.Set) Aggregates {
	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{
		DB:       db,
		Log:      log,
		Runner:   aggregates.NewGormTxRunner(db),
		Hooks:    aggregates.NewObservabilityHooks(metrics),
		CASGuard: aggregates.NewCASGuard(db),
	}
	return Aggregates{
		Progression: aggregates.NewProgressionAggregate(aggregates.ProgressionAggregateDeps{
			Base:     base,
			Users:    r.User,
			Journeys: r.Journey,
			Missions: r.Mission,
			Progress: r.MissionProgress,
			Attempts: r.QuizAttempt,
		}),
		Certificate: aggregates.NewCertificateAggregate(aggregates.CertificateAggregateDeps{
			Base:         base,
			Users:        r.User,
			Missions:     r.Mission,
			Progress:     r.MissionProgress,
			Certificates: r.Certificate,
		}),
	}
}

func wireServices(log *logger.Logger, cfg *Config, metrics *observability.Metrics, r repos.Set, aggs Aggregates, clients Clients) Services {
	log.Info("Wiring services...")

	notifier := services.NewEmailNotifier(log, clients.Mailer, services.NotifierConfig{
		FrontendURL:    cfg.Certificates.FrontendURL,
		Timeout:        cfg.Email.Timeout,
		MaxConcurrency: cfg.Email.MaxConcurrency,
	}, metrics)

	certificates := services.NewCertificateService(services.CertificateServiceDeps{
		Log: log,
		Config: services.CertificateConfig{
			RenderTimeout: cfg.Certificates.RenderTimeout,
			BonusPoints:   cfg.Certificates.BonusPoints,
			FrontendURL:   cfg.Certificates.FrontendURL,
		},
		Users:        r.User,
		Journeys:     r.Journey,
		Missions:     r.Mission,
		Progress:     r.MissionProgress,
		Certificates: r.Certificate,
		Aggregate:    aggs.Certificate,
		Renderer:     clients.Renderer,
		Bucket:       clients.Bucket,
		Notifier:     notifier,
		Metrics:      metrics,
	})

	quiz := services.NewQuizService(services.QuizServiceDeps{
		Log:          log,
		Policy:       cfg.QuizPolicy(),
		Missions:     r.Mission,
		Questions:    r.QuizQuestion,
		Attempts:     r.QuizAttempt,
		Progress:     r.MissionProgress,
		Users:        r.User,
		Progression:  aggs.Progression,
		Certificates: certificates,
		Notifier:     notifier,
		Locker:       clients.Locker,
		Metrics:      metrics,
	})

	return Services{
		Auth:         services.NewAuthService(log, clients.Verifier, r.User, aggs.Progression, notifier),
		User:         services.NewUserService(log, r.User, r.Certificate),
		Journey:      services.NewJourneyService(log, r.Journey, r.Mission, r.MissionProgress),
		Mission:      services.NewMissionService(log, r.Mission, r.Card, r.MissionProgress, aggs.Progression),
		Quiz:         quiz,
		Progress:     services.NewProgressService(log, r.User, r.Journey, r.Mission, r.MissionProgress, r.Certificate),
		Certificates: certificates,
		Notifier:     notifier,
		Reconciler: services.NewCertificateReconciler(
			log, certificates, metrics,
			cfg.Certificates.ReconcileCron, cfg.Certificates.ReconcileBatch,
		),
	}
}
