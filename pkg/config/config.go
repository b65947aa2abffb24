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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	BotAPI       BotAPIConfig
	License      LicenseConfig
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
	Env          string `envconfig:"KYTHIA_APP_ENV" required:"true"`
	Port         string `envconfig:"KYTHIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KYTHIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KYTHIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KYTHIA_DB_DSN"`
	Driver string `envconfig:"KYTHIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KYTHIA_DB_HOST"`
	LegacyPort     int    `envconfig:"KYTHIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KYTHIA_DB_USER"`
	LegacyPassword string `envconfig:"KYTHIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"KYTHIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"KYTHIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KYTHIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KYTHIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KYTHIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KYTHIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KYTHIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KYTHIA_REDIS_ADDR"`
	Password     string        `envconfig:"KYTHIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"KYTHIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KYTHIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KYTHIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KYTHIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KYTHIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KYTHIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KYTHIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KYTHIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KYTHIA_JWT_EXPIRATION_MINUTES" default:"10080"`
	SessionTTLMinutes int    `envconfig:"KYTHIA_SESSION_TTL_MINUTES" default:"20160"`
}

// SessionTTL returns the redis session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

// RateLimitConfig carries the per-surface throttling policies. The limits
// mirror what the bot fleet was shipped against, so loosen with care.
type RateLimitConfig struct {
	Distributed bool `envconfig:"KYTHIA_RATE_LIMIT_DISTRIBUTED" default:"false"`

	VerifyWindow time.Duration `envconfig:"KYTHIA_RATE_LIMIT_VERIFY_WINDOW" default:"1m"`
	VerifyLimit  int           `envconfig:"KYTHIA_RATE_LIMIT_VERIFY_LIMIT" default:"5"`

	TelemetryWindow time.Duration `envconfig:"KYTHIA_RATE_LIMIT_TELEMETRY_WINDOW" default:"1m"`
	TelemetryLimit  int           `envconfig:"KYTHIA_RATE_LIMIT_TELEMETRY_LIMIT" default:"10"`

	GenerateWindow time.Duration `envconfig:"KYTHIA_RATE_LIMIT_GENERATE_WINDOW" default:"1m"`
	GenerateLimit  int           `envconfig:"KYTHIA_RATE_LIMIT_GENERATE_LIMIT" default:"5"`

	ListWindow time.Duration `envconfig:"KYTHIA_RATE_LIMIT_LIST_WINDOW" default:"1m"`
	ListLimit  int           `envconfig:"KYTHIA_RATE_LIMIT_LIST_LIMIT" default:"20"`

	DetailWindow time.Duration `envconfig:"KYTHIA_RATE_LIMIT_DETAIL_WINDOW" default:"1m"`
	DetailLimit  int           `envconfig:"KYTHIA_RATE_LIMIT_DETAIL_LIMIT" default:"10"`
}

type BotAPIConfig struct {
	BaseURL string        `envconfig:"KYTHIA_BOT_API_URL" default:"http://localhost:3000/api"`
	Secret  string        `envconfig:"KYTHIA_BOT_API_SECRET"`
	Timeout time.Duration `envconfig:"KYTHIA_BOT_API_TIMEOUT" default:"5s"`
}

type LicenseConfig struct {
	// KeyPrefix is the leading segment of generated keys
	// (KEYPREFIX-XXXX-XXXX-XXXX-XXXX).
	KeyPrefix string `envconfig:"KYTHIA_LICENSE_KEY_PREFIX" default:"KYTHIA"`

	// OwnerIDs lists the Discord user IDs allowed to manage licenses.
	// A single ID reproduces the original single-operator model.
	OwnerIDs []string `envconfig:"KYTHIA_LICENSE_OWNER_IDS" required:"true"`

	// SuspendedTelemetry keeps accepting telemetry from suspended licenses
	// so operators can see why a bot stopped working.
	SuspendedTelemetry bool `envconfig:"KYTHIA_LICENSE_SUSPENDED_TELEMETRY" default:"true"`
}

// IsOwner reports whether the given user ID may use the license admin surface.
func (l LicenseConfig) IsOwner(userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false
	}
	for _, id := range l.OwnerIDs {
		if strings.TrimSpace(id) == userID {
			return true
		}
	}
	return false
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KYTHIA_AUTO_MIGRATE" default:"false"`
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

const (
	EnvPrefix = "kythia"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "KYTHIA_DB_DSN"
	EnvDBHost = "KYTHIA_DB_HOST"
	EnvDBUser = "KYTHIA_DB_USER"
	EnvDBName = "KYTHIA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
