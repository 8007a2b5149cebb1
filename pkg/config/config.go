package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Tracking  TrackingConfig
	Courier   CourierConfig
	Stripe    StripeConfig
	Messaging MessagingConfig
	Batch     BatchConfig
	Dispatch  DispatchConfig
	Cron      CronConfig
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
	Env          string `envconfig:"HARBORBOX_APP_ENV" required:"true"`
	Port         string `envconfig:"HARBORBOX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HARBORBOX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HARBORBOX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HARBORBOX_DB_DSN"`
	Driver string `envconfig:"HARBORBOX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HARBORBOX_DB_HOST"`
	LegacyPort     int    `envconfig:"HARBORBOX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HARBORBOX_DB_USER"`
	LegacyPassword string `envconfig:"HARBORBOX_DB_PASSWORD"`
	LegacyName     string `envconfig:"HARBORBOX_DB_NAME"`
	LegacySSLMode  string `envconfig:"HARBORBOX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HARBORBOX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HARBORBOX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HARBORBOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HARBORBOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either HARBORBOX_DB_DSN or host/user/name must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"HARBORBOX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HARBORBOX_REDIS_ADDR"`
	Password     string        `envconfig:"HARBORBOX_REDIS_PASSWORD"`
	DB           int           `envconfig:"HARBORBOX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HARBORBOX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HARBORBOX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HARBORBOX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HARBORBOX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HARBORBOX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// TrackingConfig signs the customer-facing tracking tokens.
type TrackingConfig struct {
	Secret            string `envconfig:"HARBORBOX_TRACKING_SECRET" required:"true"`
	Issuer            string `envconfig:"HARBORBOX_TRACKING_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HARBORBOX_TRACKING_EXPIRATION_MINUTES" default:"1440"`
}

// TokenTTL returns the tracking token TTL configured in minutes.
func (t TrackingConfig) TokenTTL() time.Duration {
	if t.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(t.ExpirationMinutes) * time.Minute
}

// CourierConfig points at the delivery provider's task API.
type CourierConfig struct {
	BaseURL string `envconfig:"HARBORBOX_COURIER_BASE_URL" required:"true"`
	APIKey  string `envconfig:"HARBORBOX_COURIER_API_KEY" required:"true"`
	// WebhookSecret signs inbound webhook payloads.
	WebhookSecret string `envconfig:"HARBORBOX_COURIER_WEBHOOK_SECRET" required:"true"`
	// StrictWebhookVerification rejects deliveries whose signature does not
	// match. The legacy system logged mismatches and accepted the payload
	// anyway; set false only while rotating secrets.
	StrictWebhookVerification bool          `envconfig:"HARBORBOX_COURIER_STRICT_WEBHOOK_VERIFICATION" default:"true"`
	Timeout                   time.Duration `envconfig:"HARBORBOX_COURIER_TIMEOUT" default:"10s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"HARBORBOX_STRIPE_API_KEY"`
	Env    string `envconfig:"HARBORBOX_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment.
func (s StripeConfig) Environment() string {
	return strings.ToLower(strings.TrimSpace(s.Env))
}

// MessagingConfig points at the SMS/email dispatcher.
type MessagingConfig struct {
	BaseURL        string        `envconfig:"HARBORBOX_MESSAGING_BASE_URL"`
	APIKey         string        `envconfig:"HARBORBOX_MESSAGING_API_KEY"`
	OperatorPhone  string        `envconfig:"HARBORBOX_MESSAGING_OPERATOR_PHONE"`
	Timeout        time.Duration `envconfig:"HARBORBOX_MESSAGING_TIMEOUT" default:"10s"`
}

// BatchConfig guards the internal batch endpoints.
type BatchConfig struct {
	BearerToken string `envconfig:"HARBORBOX_BATCH_BEARER_TOKEN" required:"true"`
	DryRun      bool   `envconfig:"HARBORBOX_BATCH_DRY_RUN" default:"false"`
}

// DispatchConfig carries the operator-side dispatch constants.
type DispatchConfig struct {
	// FleetTeamID identifies the operator-owned fleet team. Drivers whose
	// team list contains it classify as fleet drivers.
	FleetTeamID      int64   `envconfig:"HARBORBOX_DISPATCH_FLEET_TEAM_ID" required:"true"`
	WarehouseAddress string  `envconfig:"HARBORBOX_DISPATCH_WAREHOUSE_ADDRESS" required:"true"`
	WarehouseLat     float64 `envconfig:"HARBORBOX_DISPATCH_WAREHOUSE_LAT" required:"true"`
	WarehouseLng     float64 `envconfig:"HARBORBOX_DISPATCH_WAREHOUSE_LNG" required:"true"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"HARBORBOX_CRON_INTERVAL" default:"1h"`
	LockKey  string        `envconfig:"HARBORBOX_CRON_LOCK_KEY" default:"cron:worker"`
	LockTTL  time.Duration `envconfig:"HARBORBOX_CRON_LOCK_TTL" default:"55m"`
}
