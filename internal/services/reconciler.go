package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/missions-backend/internal/observability"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

// CertificateReconciler periodically issues certificates that a failed
// render or upload left behind.
type CertificateReconciler struct {
	log          *logger.Logger
	certificates CertificateService
	metrics      *observability.Metrics
	spec         string
	batch        int

	mu      sync.Mutex
	running bool
}

func NewCertificateReconciler(log *logger.Logger, certificates CertificateService, metrics *observability.Metrics, spec string, batch int) *CertificateReconciler {
	return &CertificateReconciler{
		log:          log.With("service", "CertificateReconciler"),
		certificates: certificates,
		metrics:      metrics,
		spec:         strings.TrimSpace(spec),
		batch:        batch,
	}
}

// Start schedules passes until ctx ends. An empty spec disables the job.
func (r *CertificateReconciler) Start(ctx context.Context) error {
	if r.spec == "" {
		r.log.Info("certificate reconciler disabled")
		return nil
	}
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(r.spec, func() { r.RunOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	r.log.Info("certificate reconciler started", "spec", r.spec)
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		r.log.Info("certificate reconciler stopped")
	}()
	return nil
}

// RunOnce performs one pass. Overlapping passes are skipped.
func (r *CertificateReconciler) RunOnce(ctx context.Context) ReconcileResult {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.metrics.IncReconcilerRun("skipped")
		return ReconcileResult{}
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	res, err := r.certificates.ReconcilePending(ctx, r.batch)
	switch {
	case err != nil:
		r.metrics.IncReconcilerRun("error")
		r.log.Error("certificate reconcile pass failed", "error", err)
	case res.Failed > 0:
		r.metrics.IncReconcilerRun("partial")
	default:
		r.metrics.IncReconcilerRun("success")
	}
	if res.Pending > 0 {
		r.log.Info("certificate reconcile pass",
			"pending", res.Pending,
			"issued", res.Issued,
			"failed", res.Failed,
		)
	}
	return res
}
