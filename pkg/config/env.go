package config

const (
	EnvPrefix = "PHYTOPRO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "PHYTOPRO_APP_ENV"
	EnvPort     = "PHYTOPRO_APP_PORT"
	EnvLogLevel = "PHYTOPRO_LOG_LEVEL"

	EnvDBDSN  = "PHYTOPRO_DB_DSN"
	EnvDBHost = "PHYTOPRO_DB_HOST"
	EnvDBUser = "PHYTOPRO_DB_USER"
	EnvDBName = "PHYTOPRO_DB_NAME"

	EnvRedisURL  = "PHYTOPRO_REDIS_URL"
	EnvJWTSecret = "PHYTOPRO_JWT_SECRET"
	EnvJWTIssuer = "PHYTOPRO_JWT_ISSUER"

	EnvShippingCost          = "PHYTOPRO_SHIPPING_COST"
	EnvFreeShippingThreshold = "PHYTOPRO_FREE_SHIPPING_THRESHOLD"
	EnvCORSOrigins           = "PHYTOPRO_CORS_ORIGINS"
	EnvStripeAPIKey          = "PHYTOPRO_STRIPE_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
