package config

const (
	EnvPrefix = "HANGAR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	ServiceKindAPI             = "api"
	ServiceKindOutboxPublisher = "outbox-publisher"

	TracingExporterOTLP   = "otlp"
	TracingExporterStdout = "stdout"
	TracingExporterNone   = "none"

	DefaultSQLiteDSN = "file:hangar.db?cache=shared&_fk=1"
)

const (
	EnvAppEnv      = "HANGAR_APP_ENV"
	EnvPort        = "HANGAR_APP_PORT"
	EnvServiceKind = "HANGAR_SERVICE_KIND"

	EnvDBDSN          = "HANGAR_DB_DSN"
	EnvDBHost         = "HANGAR_DB_HOST"
	EnvDBUser         = "HANGAR_DB_USER"
	EnvDBName         = "HANGAR_DB_NAME"
	EnvDBPassword     = "HANGAR_DB_PASSWORD"
	EnvDBMaxOpenConns = "HANGAR_DB_MAX_OPEN_CONNS"
	EnvDBMaxIdleConns = "HANGAR_DB_MAX_IDLE_CONNS"

	EnvRedisURL = "HANGAR_REDIS_URL"

	EnvUseSQLite   = "HANGAR_USE_SQLITE"
	EnvAutoMigrate = "HANGAR_AUTO_MIGRATE"

	EnvGCPProjectID = "HANGAR_GCP_PROJECT_ID"

	EnvPubSubWorkOrdersTopic = "HANGAR_PUBSUB_WORK_ORDERS_TOPIC"
	EnvPubSubWorkOrdersSub   = "HANGAR_PUBSUB_WORK_ORDERS_SUBSCRIPTION"

	EnvOutboxBatchSize   = "HANGAR_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvOutboxMaxAttempts = "HANGAR_OUTBOX_MAX_ATTEMPTS"

	EnvTracingExporter   = "HANGAR_TRACING_EXPORTER"
	EnvTracingSampleRate = "HANGAR_TRACING_SAMPLE_RATE"

	EnvLedgerTxRetryAttempts = "HANGAR_LEDGER_TX_RETRY_ATTEMPTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
