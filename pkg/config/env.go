package config

// EnvPrefix is handed to envconfig; every field below also carries an explicit
// MARKET_* key.
const EnvPrefix = "MARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "MARKET_APP_ENV"
	EnvPort     = "MARKET_APP_PORT"
	EnvLogLevel = "MARKET_LOG_LEVEL"

	EnvDBDSN  = "MARKET_DB_DSN"
	EnvDBHost = "MARKET_DB_HOST"
	EnvDBUser = "MARKET_DB_USER"
	EnvDBName = "MARKET_DB_NAME"

	EnvRedisURL = "MARKET_REDIS_URL"

	EnvJWTSecret  = "MARKET_JWT_SECRET"
	EnvJWTIssuer  = "MARKET_JWT_ISSUER"
	EnvJWTExpMins = "MARKET_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID       = "MARKET_GCP_PROJECT_ID"
	EnvPubSubSalesTopic   = "MARKET_PUBSUB_SALES_TOPIC"
	EnvCORSAllowedOrigins = "MARKET_CORS_ALLOWED_ORIGINS"

	EnvPendingSaleTTL = "MARKET_PENDING_SALE_TTL"
	EnvCronInterval   = "MARKET_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
