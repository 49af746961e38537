package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Push         PushConfig
	Outbox       OutboxConfig
	Housekeeping HousekeepingConfig
	HTTP         HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Push.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SERVICO_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"SERVICO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERVICO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

type ServiceConfig struct {
	Kind string `envconfig:"SERVICO_SERVICE_KIND" default:"notifier"`
}

type DBConfig struct {
	DSN    string `envconfig:"SERVICO_DB_DSN"`
	Driver string `envconfig:"SERVICO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SERVICO_DB_HOST"`
	LegacyPort     int    `envconfig:"SERVICO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERVICO_DB_USER"`
	LegacyPassword string `envconfig:"SERVICO_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERVICO_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERVICO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVICO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVICO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVICO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVICO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERVICO_REDIS_URL"`
	Address      string        `envconfig:"SERVICO_REDIS_ADDR"`
	Password     string        `envconfig:"SERVICO_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERVICO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERVICO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERVICO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERVICO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERVICO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVICO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SERVICO_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"SERVICO_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"SERVICO_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	StoreEventsTopic        string `envconfig:"SERVICO_PUBSUB_STORE_EVENTS_TOPIC" default:"servico-store-events"`
	StoreEventsSubscription string `envconfig:"SERVICO_PUBSUB_STORE_EVENTS_SUBSCRIPTION" required:"true"`
}

type PushConfig struct {
	Provider     string `envconfig:"SERVICO_PUSH_PROVIDER" default:"fcm"`
	FCMProjectID string `envconfig:"SERVICO_FCM_PROJECT_ID"`
	SNSRegion    string `envconfig:"SERVICO_SNS_REGION" default:"ap-south-1"`
}

// ProjectID returns the FCM project, falling back to the GCP project.
func (p PushConfig) ProjectID(gcp GCPConfig) string {
	if id := strings.TrimSpace(p.FCMProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(gcp.ProjectID)
}

// NormalizedProvider returns the lower-cased provider name.
func (p PushConfig) NormalizedProvider() string {
	provider := strings.ToLower(strings.TrimSpace(p.Provider))
	if provider == "" {
		return PushProviderFCM
	}
	return provider
}

func (p PushConfig) validate() error {
	switch p.NormalizedProvider() {
	case PushProviderFCM, PushProviderSNS:
		return nil
	default:
		return fmt.Errorf("unsupported push provider %q", p.Provider)
	}
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SERVICO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SERVICO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SERVICO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type HousekeepingConfig struct {
	Interval                  time.Duration `envconfig:"SERVICO_HOUSEKEEPING_INTERVAL" default:"24h"`
	NotificationRetentionDays int           `envconfig:"SERVICO_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays       int           `envconfig:"SERVICO_OUTBOX_RETENTION_DAYS" default:"7"`
}

type HTTPConfig struct {
	Port string `envconfig:"SERVICO_HTTP_PORT" default:"8080"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
