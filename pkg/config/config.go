package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	Queue     QueueConfig
	Tracking  TrackingConfig
	Retention RetentionConfig
	Cron      CronConfig
	Flags     FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FUNNELMAIL_APP_ENV" required:"true"`
	Port         string `envconfig:"FUNNELMAIL_APP_PORT" default:"8080"`
	MetricsPort  string `envconfig:"FUNNELMAIL_METRICS_PORT" default:"9090"`
	LogLevel     string `envconfig:"FUNNELMAIL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FUNNELMAIL_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"FUNNELMAIL_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FUNNELMAIL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN             string        `envconfig:"FUNNELMAIL_DB_DSN" required:"true"`
	MaxOpenConns    int           `envconfig:"FUNNELMAIL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FUNNELMAIL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FUNNELMAIL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FUNNELMAIL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	AutoMigrateDir  string        `envconfig:"FUNNELMAIL_DB_MIGRATIONS_DIR" default:"pkg/migrate/migrations"`
}

type RedisConfig struct {
	Address      string        `envconfig:"FUNNELMAIL_REDIS_ADDR" required:"true"`
	Password     string        `envconfig:"FUNNELMAIL_REDIS_PASSWORD"`
	DB           int           `envconfig:"FUNNELMAIL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FUNNELMAIL_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"FUNNELMAIL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FUNNELMAIL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FUNNELMAIL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SMTPConfig struct {
	Host     string `envconfig:"FUNNELMAIL_SMTP_HOST" required:"true"`
	Port     int    `envconfig:"FUNNELMAIL_SMTP_PORT" default:"587"`
	User     string `envconfig:"FUNNELMAIL_SMTP_USER"`
	Password string `envconfig:"FUNNELMAIL_SMTP_PASSWORD"`
	From     string `envconfig:"FUNNELMAIL_SMTP_FROM" required:"true"`
	FromName string `envconfig:"FUNNELMAIL_SMTP_FROM_NAME" default:"FunnelMail"`
}

type QueueConfig struct {
	BatchSize               int           `envconfig:"FUNNELMAIL_QUEUE_BATCH_SIZE" default:"50"`
	PollInterval            time.Duration `envconfig:"FUNNELMAIL_QUEUE_POLL_INTERVAL" default:"30s"`
	DefaultMaxAttempts      int           `envconfig:"FUNNELMAIL_QUEUE_MAX_ATTEMPTS" default:"3"`
	HighPriorityMaxAttempts int           `envconfig:"FUNNELMAIL_QUEUE_HIGH_PRIORITY_MAX_ATTEMPTS" default:"5"`
	StaleClaimAfter         time.Duration `envconfig:"FUNNELMAIL_QUEUE_STALE_CLAIM_AFTER" default:"10m"`
}

type TrackingConfig struct {
	SigningSecret string        `envconfig:"FUNNELMAIL_TRACKING_SECRET" required:"true"`
	PublicBaseURL string        `envconfig:"FUNNELMAIL_TRACKING_BASE_URL" required:"true"`
	TokenTTL      time.Duration `envconfig:"FUNNELMAIL_TRACKING_TOKEN_TTL" default:"2160h"`
}

type RetentionConfig struct {
	DeliveryLogWindow time.Duration `envconfig:"FUNNELMAIL_RETENTION_DELIVERY_LOG" default:"2160h"`
	TerminalJobWindow time.Duration `envconfig:"FUNNELMAIL_RETENTION_TERMINAL_JOBS" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"FUNNELMAIL_CRON_INTERVAL" default:"24h"`
	LockKey  string        `envconfig:"FUNNELMAIL_CRON_LOCK_KEY" default:"funnelmail:cron:lock"`
	LockTTL  time.Duration `envconfig:"FUNNELMAIL_CRON_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FUNNELMAIL_AUTO_MIGRATE" default:"false"`
}
