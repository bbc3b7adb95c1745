package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Tracing      TracingConfig
	Ledger       LedgerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs error
	if c.DB.MaxOpenConns > 0 && c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		errs = multierr.Append(errs, fmt.Errorf("%s must not exceed %s", EnvDBMaxIdleConns, EnvDBMaxOpenConns))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvOutboxBatchSize))
	}
	if c.Outbox.MaxAttempts <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvOutboxMaxAttempts))
	}
	if c.Ledger.TxRetryAttempts < 1 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be at least 1", EnvLedgerTxRetryAttempts))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be between 0 and 1", EnvTracingSampleRate))
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case TracingExporterOTLP, TracingExporterStdout, TracingExporterNone:
	default:
		errs = multierr.Append(errs, fmt.Errorf("%s must be one of otlp, stdout, none", EnvTracingExporter))
	}
	if c.Service.Kind == ServiceKindOutboxPublisher && strings.TrimSpace(c.PubSub.WorkOrdersTopic) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%s is required for the outbox publisher", EnvPubSubWorkOrdersTopic))
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"HANGAR_APP_ENV" required:"true"`
	Port         string `envconfig:"HANGAR_APP_PORT" required:"true"`
	Version      string `envconfig:"HANGAR_APP_VERSION" default:"dev"`
	LogLevel     string `envconfig:"HANGAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HANGAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HANGAR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HANGAR_DB_DSN"`
	Driver string `envconfig:"HANGAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HANGAR_DB_HOST"`
	LegacyPort     int    `envconfig:"HANGAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HANGAR_DB_USER"`
	LegacyPassword string `envconfig:"HANGAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"HANGAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"HANGAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HANGAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HANGAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HANGAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HANGAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL            string        `envconfig:"HANGAR_REDIS_URL"`
	Address        string        `envconfig:"HANGAR_REDIS_ADDR"`
	Password       string        `envconfig:"HANGAR_REDIS_PASSWORD"`
	DB             int           `envconfig:"HANGAR_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"HANGAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"HANGAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"HANGAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"HANGAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"HANGAR_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"HANGAR_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HANGAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HANGAR_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HANGAR_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HANGAR_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HANGAR_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	WorkOrdersTopic        string `envconfig:"HANGAR_PUBSUB_WORK_ORDERS_TOPIC"`
	WorkOrdersSubscription string `envconfig:"HANGAR_PUBSUB_WORK_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HANGAR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HANGAR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HANGAR_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type TracingConfig struct {
	Enabled    bool    `envconfig:"HANGAR_TRACING_ENABLED" default:"false"`
	Exporter   string  `envconfig:"HANGAR_TRACING_EXPORTER" default:"none"`
	Endpoint   string  `envconfig:"HANGAR_TRACING_ENDPOINT" default:"localhost:4317"`
	Insecure   bool    `envconfig:"HANGAR_TRACING_INSECURE" default:"true"`
	SampleRate float64 `envconfig:"HANGAR_TRACING_SAMPLE_RATE" default:"1.0"`
}

type LedgerConfig struct {
	TxRetryAttempts int `envconfig:"HANGAR_LEDGER_TX_RETRY_ATTEMPTS" default:"3"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = DefaultSQLiteDSN
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
