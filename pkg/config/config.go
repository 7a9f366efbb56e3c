package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	CORS          CORSConfig
	Shipping      ShippingConfig
	Checkout      CheckoutConfig
	Stripe        StripeConfig
	OAuth         OAuthConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Shipping.parse(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PHYTOPRO_APP_ENV" required:"true"`
	Port         string `envconfig:"PHYTOPRO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHYTOPRO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHYTOPRO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PHYTOPRO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PHYTOPRO_DB_DSN"`
	Driver string `envconfig:"PHYTOPRO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PHYTOPRO_DB_HOST"`
	LegacyPort     int    `envconfig:"PHYTOPRO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHYTOPRO_DB_USER"`
	LegacyPassword string `envconfig:"PHYTOPRO_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHYTOPRO_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHYTOPRO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHYTOPRO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHYTOPRO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHYTOPRO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHYTOPRO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PHYTOPRO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PHYTOPRO_REDIS_ADDR"`
	Password     string        `envconfig:"PHYTOPRO_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHYTOPRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHYTOPRO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHYTOPRO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHYTOPRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHYTOPRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHYTOPRO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"PHYTOPRO_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"PHYTOPRO_JWT_ISSUER" required:"true"`
}

// SessionConfig controls the lifetime and cookie delivery of login sessions.
type SessionConfig struct {
	TTL          time.Duration `envconfig:"PHYTOPRO_SESSION_TTL" default:"168h"`
	CookieName   string        `envconfig:"PHYTOPRO_SESSION_COOKIE_NAME" default:"session_token"`
	CookieSecure bool          `envconfig:"PHYTOPRO_SESSION_COOKIE_SECURE" default:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHYTOPRO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHYTOPRO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHYTOPRO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHYTOPRO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHYTOPRO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PHYTOPRO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PHYTOPRO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PHYTOPRO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PHYTOPRO_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PHYTOPRO_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PHYTOPRO_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PHYTOPRO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PHYTOPRO_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"PHYTOPRO_EVENTING_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
	HTTPIdempotencyTTL    time.Duration `envconfig:"PHYTOPRO_EVENTING_HTTP_IDEMPOTENCY_TTL" default:"24h"`
}

type CORSConfig struct {
	Origins []string `envconfig:"PHYTOPRO_CORS_ORIGINS" default:"*"`
}

// ShippingConfig holds the flat shipping fee and the free shipping threshold.
// Amounts are configured in euros ("9.90") and resolved to cents on Load.
type ShippingConfig struct {
	FlatFee       string `envconfig:"PHYTOPRO_SHIPPING_COST" default:"9.90"`
	FreeThreshold string `envconfig:"PHYTOPRO_FREE_SHIPPING_THRESHOLD" default:"150.00"`

	FlatFeeCents       int `ignored:"true"`
	FreeThresholdCents int `ignored:"true"`
}

func (s *ShippingConfig) parse() error {
	fee, err := ParseEuroCents(s.FlatFee)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvShippingCost, err)
	}
	threshold, err := ParseEuroCents(s.FreeThreshold)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvFreeShippingThreshold, err)
	}
	s.FlatFeeCents = fee
	s.FreeThresholdCents = threshold
	return nil
}

// ParseEuroCents converts a decimal euro amount ("9.90") to integer cents.
func ParseEuroCents(value string) (int, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	return types.EurosToCents(amount)
}

type CheckoutConfig struct {
	PaymentExpiry time.Duration `envconfig:"PHYTOPRO_CHECKOUT_PAYMENT_EXPIRY" default:"25h"`
}

type StripeConfig struct {
	APIKey        string        `envconfig:"PHYTOPRO_STRIPE_API_KEY"`
	WebhookSecret string        `envconfig:"PHYTOPRO_STRIPE_WEBHOOK_SECRET"`
	Env           string        `envconfig:"PHYTOPRO_STRIPE_ENV" default:"test"`
	Currency      string        `envconfig:"PHYTOPRO_STRIPE_CURRENCY" default:"eur"`
	Timeout       time.Duration `envconfig:"PHYTOPRO_STRIPE_TIMEOUT" default:"15s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// OAuthConfig points at the third-party provider that exchanges a one-time
// session id for the user's profile.
type OAuthConfig struct {
	SessionDataURL string        `envconfig:"PHYTOPRO_OAUTH_SESSION_DATA_URL" default:"https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"`
	Timeout        time.Duration `envconfig:"PHYTOPRO_OAUTH_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PHYTOPRO_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"PHYTOPRO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"PHYTOPRO_PUBSUB_ORDERS_TOPIC" default:"phytopro-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PHYTOPRO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PHYTOPRO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PHYTOPRO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PHYTOPRO_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"PHYTOPRO_CRON_LOCK_TTL" default:"30m"`
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
