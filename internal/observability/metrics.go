package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	aggregateOps       *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	quizSubmissions   *CounterVec
	missionsCompleted *CounterVec
	certificates      *CounterVec
	renderLatency     *HistogramVec
	notifications     *CounterVec
	reconcilerRuns    *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeInterval time.Duration
}

type Config struct {
	Enabled        bool
	ScrapeInterval time.Duration
}

var (
	initMu   sync.Mutex
	instance *Metrics
)

// Current returns the process-wide metrics, or nil when disabled.
// All Metrics methods are safe on a nil receiver.
func Current() *Metrics {
	initMu.Lock()
	defer initMu.Unlock()
	return instance
}

func Init(log *logger.Logger, cfg Config) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	initMu.Lock()
	defer initMu.Unlock()
	if instance == nil {
		instance = New(cfg)
		if log != nil {
			log.Info("metrics enabled")
		}
	}
	return instance
}

// New builds an unregistered Metrics set; tests use it directly.
func New(cfg Config) *Metrics {
	interval := cfg.ScrapeInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Metrics{
		apiRequests: NewCounterVec("missions_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"missions_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("missions_api_inflight_requests", "In-flight API requests."),

		aggregateOps: NewHistogramVec(
			"missions_aggregate_operation_duration_seconds",
			"Aggregate write latency by operation/status.",
			[]string{"op", "status"},
			nil,
		),
		aggregateConflicts: NewCounterVec("missions_aggregate_conflicts_total", "Aggregate writes that ended in a conflict.", []string{"op"}),
		aggregateRetries:   NewCounterVec("missions_aggregate_retryable_total", "Aggregate writes that ended in a retryable failure.", []string{"op"}),

		quizSubmissions:   NewCounterVec("missions_quiz_submissions_total", "Quiz submissions by outcome.", []string{"outcome"}),
		missionsCompleted: NewCounterVec("missions_completed_total", "Missions completed by journey.", []string{"journey_id"}),
		certificates:      NewCounterVec("missions_certificates_total", "Certificate issuance by status.", []string{"status"}),
		renderLatency: NewHistogramVec(
			"missions_certificate_render_duration_seconds",
			"Certificate render latency by status.",
			[]string{"status"},
			[]float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		),
		notifications:  NewCounterVec("missions_notifications_total", "Notifications by kind/status.", []string{"kind", "status"}),
		reconcilerRuns: NewCounterVec("missions_certificate_reconciler_runs_total", "Certificate reconciler passes by status.", []string{"status"}),

		pgStats:   NewGaugeVec("missions_postgres_pool", "Postgres connection pool stats.", []string{"stat"}),
		redisUp:   NewGauge("missions_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("missions_redis_ping_seconds", "Latency of the last redis ping."),

		scrapeInterval: interval,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	all := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateConflicts, m.aggregateRetries,
		m.quizSubmissions, m.missionsCompleted, m.certificates, m.renderLatency,
		m.notifications, m.reconcilerRuns,
		m.pgStats, m.redisUp, m.redisPing,
	}
	for _, pw := range all {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

// APIRequestCount reads the request counter for one label set.
func (m *Metrics) APIRequestCount(method, route, status string) float64 {
	if m == nil {
		return 0
	}
	return m.apiRequests.Value(method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

// IncQuizSubmission records one submission outcome: passed, failed,
// not_available, already_passed, quota_exhausted, in_progress or error.
func (m *Metrics) IncQuizSubmission(outcome string) {
	if m == nil {
		return
	}
	m.quizSubmissions.Inc(outcome)
}

func (m *Metrics) IncMissionCompleted(journeyID string) {
	if m == nil {
		return
	}
	m.missionsCompleted.Inc(journeyID)
}

func (m *Metrics) IncCertificate(status string) {
	if m == nil {
		return
	}
	m.certificates.Inc(status)
}

func (m *Metrics) ObserveCertificateRender(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.renderLatency.Observe(dur.Seconds(), status)
}

func (m *Metrics) IncNotification(kind, status string) {
	if m == nil {
		return
	}
	m.notifications.Inc(kind, status)
}

func (m *Metrics) IncReconcilerRun(status string) {
	if m == nil {
		return
	}
	m.reconcilerRuns.Inc(status)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
