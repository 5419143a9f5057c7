package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/missions-backend/internal/platform/firebase"
	"github.com/yungbote/missions-backend/internal/platform/gcp"
	"github.com/yungbote/missions-backend/internal/platform/logger"
	"github.com/yungbote/missions-backend/internal/platform/redislock"
	"github.com/yungbote/missions-backend/internal/platform/render"
	"github.com/yungbote/missions-backend/internal/platform/sendgrid"
	"github.com/yungbote/missions-backend/internal/services"
)

type Clients struct {
	// Redis is nil when no address is configured; Locker then falls back
	// to an in-process lock, which is only correct for a single replica.
	Redis    *goredis.Client
	Locker   redislock.Locker
	Bucket   gcp.BucketService
	Renderer render.CertificateRenderer
	Verifier firebase.Verifier
	Mailer   services.Mailer
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err := redislock.NewClient(ctx, redislock.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
		out.Locker = redislock.NewRedisLocker(rdb, "missions:lock:")
	} else {
		log.Warn("redis.addr not set; using in-process submission lock")
		out.Locker = redislock.NewLocalLocker()
	}

	// Object storage
	bucket, err := resolveBucketService(ctx, log, cfg.ObjectStorage())
	if err != nil {
		out.Close()
		return Clients{}, err
	}
	out.Bucket = bucket

	renderer, err := render.NewCertificateRenderer(log)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init certificate renderer: %w", err)
	}
	out.Renderer = renderer

	// Firebase
	verifier, err := firebase.NewVerifier(&http.Client{Timeout: 10 * time.Second}, firebase.Config{
		ProjectID: cfg.Firebase.ProjectID,
		JWKSURL:   cfg.Firebase.JWKSURL,
	})
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init firebase verifier: %w", err)
	}
	out.Verifier = verifier

	// Email
	if strings.TrimSpace(cfg.Email.SendGridAPIKey) != "" {
		sg, err := sendgrid.New(log, sendgrid.Config{
			APIKey:           cfg.Email.SendGridAPIKey,
			DefaultFromEmail: cfg.Email.FromEmail,
			DefaultFromName:  cfg.Email.FromName,
			Timeout:          cfg.Email.Timeout,
			MaxRetries:       cfg.Email.MaxRetries,
		})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init sendgrid: %w", err)
		}
		out.Mailer = services.NewSendGridMailer(sg)
	} else {
		log.Warn("email.sendgrid_api_key not set; emails are logged instead of sent")
		out.Mailer = services.NewConsoleMailer(log)
	}

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
