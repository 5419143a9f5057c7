package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yungbote/missions-backend/internal/data/db"
	"github.com/yungbote/missions-backend/internal/platform/firebase"
	"github.com/yungbote/missions-backend/internal/platform/gcp"
	"github.com/yungbote/missions-backend/internal/services"
)

var ErrMissingFirebaseProject = errors.New("firebase.project_id is required")

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Firebase      FirebaseConfig      `mapstructure:"firebase"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Email         EmailConfig         `mapstructure:"email"`
	Quiz          QuizConfig          `mapstructure:"quiz"`
	Certificates  CertificatesConfig  `mapstructure:"certificates"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Rollbar       RollbarConfig       `mapstructure:"rollbar"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	LogMode         string        `mapstructure:"log_mode"`
}

type DatabaseConfig struct {
	URL          string        `mapstructure:"url"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Name         string        `mapstructure:"name"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnMaxLife  time.Duration `mapstructure:"conn_max_life"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type FirebaseConfig struct {
	ProjectID string `mapstructure:"project_id"`
	JWKSURL   string `mapstructure:"jwks_url"`
}

type StorageConfig struct {
	Mode            string `mapstructure:"mode"`
	Bucket          string `mapstructure:"bucket"`
	LocalDir        string `mapstructure:"local_dir"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	EmulatorHost    string `mapstructure:"emulator_host"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type EmailConfig struct {
	SendGridAPIKey string        `mapstructure:"sendgrid_api_key"`
	FromEmail      string        `mapstructure:"from_email"`
	FromName       string        `mapstructure:"from_name"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int64         `mapstructure:"max_concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type QuizConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
	PassScore   int           `mapstructure:"pass_score"`
}

type CertificatesConfig struct {
	RenderTimeout  time.Duration `mapstructure:"render_timeout"`
	ReconcileCron  string        `mapstructure:"reconcile_cron"`
	ReconcileBatch int           `mapstructure:"reconcile_batch"`
	BonusPoints    int           `mapstructure:"bonus_points"`
	FrontendURL    string        `mapstructure:"frontend_url"`
}

type ObservabilityConfig struct {
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ScrapeInterval  time.Duration `mapstructure:"scrape_interval"`
	OtelEnabled     bool          `mapstructure:"otel_enabled"`
	OtelEndpoint    string        `mapstructure:"otel_endpoint"`
	OtelHeaders     string        `mapstructure:"otel_headers"`
	OtelInsecure    bool          `mapstructure:"otel_insecure"`
	OtelSampleRatio float64       `mapstructure:"otel_sample_ratio"`
	ServiceName     string        `mapstructure:"service_name"`
	Environment     string        `mapstructure:"environment"`
	Version         string        `mapstructure:"version"`
}

type RollbarConfig struct {
	Token       string `mapstructure:"token"`
	Environment string `mapstructure:"environment"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.log_mode", "dev")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "missions")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_life", "30m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "30s")

	v.SetDefault("firebase.project_id", "")
	v.SetDefault("firebase.jwks_url", firebase.DefaultJWKSURL)

	v.SetDefault("storage.mode", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.local_dir", "./data/objects")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.emulator_host", "")
	v.SetDefault("storage.credentials_file", "")

	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.from_email", "noreply@vibecoding.academy")
	v.SetDefault("email.from_name", "Vibe Coding Academy")
	v.SetDefault("email.timeout", "30s")
	v.SetDefault("email.max_concurrency", 8)
	v.SetDefault("email.max_retries", 2)

	def := services.DefaultQuizPolicy()
	v.SetDefault("quiz.max_attempts", def.MaxAttempts)
	v.SetDefault("quiz.window", def.Window.String())
	v.SetDefault("quiz.pass_score", def.PassScore)

	v.SetDefault("certificates.render_timeout", "20s")
	v.SetDefault("certificates.reconcile_cron", "@every 10m")
	v.SetDefault("certificates.reconcile_batch", 50)
	v.SetDefault("certificates.bonus_points", 500)
	v.SetDefault("certificates.frontend_url", "http://localhost:5173")

	v.SetDefault("observability.metrics_enabled", false)
	v.SetDefault("observability.metrics_addr", ":9090")
	v.SetDefault("observability.scrape_interval", "15s")
	v.SetDefault("observability.otel_enabled", false)
	v.SetDefault("observability.otel_endpoint", "")
	v.SetDefault("observability.otel_headers", "")
	v.SetDefault("observability.otel_insecure", false)
	v.SetDefault("observability.otel_sample_ratio", 0.1)
	v.SetDefault("observability.service_name", "missions-backend")
	v.SetDefault("observability.environment", "local")
	v.SetDefault("observability.version", "dev")

	v.SetDefault("rollbar.token", "")
	v.SetDefault("rollbar.environment", "")
}

// LoadConfig reads .env (when present), then an optional config file, then
// the environment. Nested keys map to env names with "." replaced by "_",
// e.g. FIREBASE_PROJECT_ID. An explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if p := strings.TrimSpace(path); p != "" {
		v.SetConfigFile(p)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("email.sendgrid_api_key", "SENDGRID_API_KEY")
	_ = v.BindEnv("rollbar.token", "ROLLBAR_TOKEN")
	_ = v.BindEnv("server.log_mode", "LOG_MODE")
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if strings.TrimSpace(path) != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Firebase.ProjectID) == "" {
		return ErrMissingFirebaseProject
	}
	if c.Quiz.MaxAttempts <= 0 || c.Quiz.Window <= 0 || c.Quiz.PassScore <= 0 {
		return fmt.Errorf("quiz: max_attempts, window and pass_score must be positive")
	}
	return nil
}

// splitList accepts both YAML lists and a single comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) Addr() string {
	port := strings.TrimSpace(c.Server.Port)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func (c *Config) Postgres() db.PostgresConfig {
	return db.PostgresConfig{
		URL:          c.Database.URL,
		Host:         c.Database.Host,
		Port:         c.Database.Port,
		User:         c.Database.User,
		Password:     c.Database.Password,
		Name:         c.Database.Name,
		SSLMode:      c.Database.SSLMode,
		MaxOpenConns: c.Database.MaxOpenConns,
		MaxIdleConns: c.Database.MaxIdleConns,
		ConnMaxLife:  c.Database.ConnMaxLife,
	}
}

func (c *Config) ObjectStorage() gcp.ObjectStorageConfig {
	return gcp.ObjectStorageConfig{
		Mode:            gcp.ObjectStorageMode(strings.TrimSpace(c.Storage.Mode)),
		Bucket:          c.Storage.Bucket,
		EmulatorHost:    c.Storage.EmulatorHost,
		LocalDir:        c.Storage.LocalDir,
		PublicBaseURL:   c.Storage.PublicBaseURL,
		CredentialsFile: c.Storage.CredentialsFile,
	}
}

func (c *Config) QuizPolicy() services.QuizPolicy {
	p := services.DefaultQuizPolicy()
	p.MaxAttempts = c.Quiz.MaxAttempts
	p.Window = c.Quiz.Window
	p.PassScore = c.Quiz.PassScore
	if c.Redis.LockTTL > 0 {
		p.LockTTL = c.Redis.LockTTL
	}
	return p
}
