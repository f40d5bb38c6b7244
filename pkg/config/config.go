package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by the services.
const EnvPrefix = "mecanica"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Workflow     WorkflowConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MECANICA_APP_ENV" required:"true"`
	Port         string `envconfig:"MECANICA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MECANICA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MECANICA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MECANICA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MECANICA_DB_DSN"`
	Driver string `envconfig:"MECANICA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MECANICA_DB_HOST"`
	Port     int    `envconfig:"MECANICA_DB_PORT" default:"5432"`
	User     string `envconfig:"MECANICA_DB_USER"`
	Password string `envconfig:"MECANICA_DB_PASSWORD"`
	Name     string `envconfig:"MECANICA_DB_NAME"`
	SSLMode  string `envconfig:"MECANICA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MECANICA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MECANICA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MECANICA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MECANICA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database DSN or host/user/name components required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MECANICA_REDIS_URL"`
	Address      string        `envconfig:"MECANICA_REDIS_ADDR"`
	Password     string        `envconfig:"MECANICA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MECANICA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MECANICA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MECANICA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MECANICA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MECANICA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MECANICA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WorkflowConfig carries the business knobs of the service-order workflow.
type WorkflowConfig struct {
	BudgetValidityDays int `envconfig:"MECANICA_BUDGET_VALIDITY_DAYS" default:"3"`
}

// BudgetValidity returns the budget validity window as a duration.
func (w WorkflowConfig) BudgetValidity() time.Duration {
	days := w.BudgetValidityDays
	if days <= 0 {
		days = 3
	}
	return time.Duration(days) * 24 * time.Hour
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MECANICA_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"MECANICA_CRON_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MECANICA_AUTO_MIGRATE" default:"false"`
}
