package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "TAPICEROS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TAPICEROS_DB_DSN"
	EnvDBHost = "TAPICEROS_DB_HOST"
	EnvDBUser = "TAPICEROS_DB_USER"
	EnvDBName = "TAPICEROS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Firebase     FirebaseConfig
	Webhook      WebhookConfig
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
	Env          string `envconfig:"TAPICEROS_APP_ENV" required:"true"`
	Port         string `envconfig:"TAPICEROS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TAPICEROS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TAPICEROS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TAPICEROS_DB_DSN"`
	Driver string `envconfig:"TAPICEROS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TAPICEROS_DB_HOST"`
	LegacyPort     int    `envconfig:"TAPICEROS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TAPICEROS_DB_USER"`
	LegacyPassword string `envconfig:"TAPICEROS_DB_PASSWORD"`
	LegacyName     string `envconfig:"TAPICEROS_DB_NAME"`
	LegacySSLMode  string `envconfig:"TAPICEROS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TAPICEROS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TAPICEROS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TAPICEROS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TAPICEROS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TAPICEROS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TAPICEROS_REDIS_ADDR"`
	Password     string        `envconfig:"TAPICEROS_REDIS_PASSWORD"`
	DB           int           `envconfig:"TAPICEROS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TAPICEROS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TAPICEROS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TAPICEROS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TAPICEROS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TAPICEROS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TAPICEROS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TAPICEROS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TAPICEROS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TAPICEROS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TAPICEROS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TAPICEROS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TAPICEROS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TAPICEROS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TAPICEROS_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TAPICEROS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TAPICEROS_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey         string `envconfig:"TAPICEROS_STRIPE_API_KEY"`
	Secret         string `envconfig:"TAPICEROS_STRIPE_SECRET"`
	Env            string `envconfig:"TAPICEROS_STRIPE_ENV" default:"test"`
	PremiumPriceID string `envconfig:"TAPICEROS_STRIPE_PREMIUM_PRICE_ID"`
	SuccessURL     string `envconfig:"TAPICEROS_STRIPE_SUCCESS_URL" default:"https://app.tapiceros.net/payment/success"`
	CancelURL      string `envconfig:"TAPICEROS_STRIPE_CANCEL_URL" default:"https://app.tapiceros.net/payment/cancel"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FirebaseConfig struct {
	CredentialsJSON string `envconfig:"TAPICEROS_FIREBASE_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"TAPICEROS_FIREBASE_CREDENTIALS_FILE"`
	ProjectID       string `envconfig:"TAPICEROS_FIREBASE_PROJECT_ID"`
}

// Configured reports whether any credential source is present.
func (f FirebaseConfig) Configured() bool {
	return f.CredentialsJSON != "" || f.CredentialsFile != ""
}

type WebhookConfig struct {
	EventTTL    time.Duration `envconfig:"TAPICEROS_WEBHOOK_EVENT_TTL" default:"720h"`
	PushTimeout time.Duration `envconfig:"TAPICEROS_WEBHOOK_PUSH_TIMEOUT" default:"5s"`
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
