package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FIELDOPS"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv     = "FIELDOPS_APP_ENV"
	EnvPort       = "FIELDOPS_APP_PORT"
	EnvDBDSN      = "FIELDOPS_REMOTE_DB_DSN"
	EnvDBHost     = "FIELDOPS_REMOTE_DB_HOST"
	EnvDBUser     = "FIELDOPS_REMOTE_DB_USER"
	EnvDBName     = "FIELDOPS_REMOTE_DB_NAME"
	EnvCachePath  = "FIELDOPS_CACHE_PATH"
	EnvRedisURL   = "FIELDOPS_REDIS_URL"
	EnvJWTSecret  = "FIELDOPS_JWT_SECRET"
	EnvAgentToken = "FIELDOPS_AGENT_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App      AppConfig
	RemoteDB RemoteDBConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Sync     SyncConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.RemoteDB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FIELDOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"FIELDOPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FIELDOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIELDOPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RemoteDBConfig points at the hosted Postgres backend owned by the back office.
type RemoteDBConfig struct {
	DSN string `envconfig:"FIELDOPS_REMOTE_DB_DSN"`

	LegacyHost     string `envconfig:"FIELDOPS_REMOTE_DB_HOST"`
	LegacyPort     int    `envconfig:"FIELDOPS_REMOTE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FIELDOPS_REMOTE_DB_USER"`
	LegacyPassword string `envconfig:"FIELDOPS_REMOTE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FIELDOPS_REMOTE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FIELDOPS_REMOTE_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"FIELDOPS_REMOTE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"FIELDOPS_REMOTE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"FIELDOPS_REMOTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIELDOPS_REMOTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// CacheConfig configures the local SQLite database that backs the cache store.
type CacheConfig struct {
	Path        string        `envconfig:"FIELDOPS_CACHE_PATH" default:"data/fieldops-cache.db"`
	BusyTimeout time.Duration `envconfig:"FIELDOPS_CACHE_BUSY_TIMEOUT" default:"5s"`
	AutoMigrate bool          `envconfig:"FIELDOPS_CACHE_AUTO_MIGRATE" default:"true"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FIELDOPS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FIELDOPS_REDIS_ADDR"`
	Password     string        `envconfig:"FIELDOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIELDOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIELDOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FIELDOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FIELDOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIELDOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIELDOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig carries the secret used to verify backend-issued access tokens
// plus the agent's own provisioned token, whose subject claim identifies the
// actor for audit rows written by background drains.
type AuthConfig struct {
	JWTSecret  string `envconfig:"FIELDOPS_JWT_SECRET" required:"true"`
	Issuer     string `envconfig:"FIELDOPS_JWT_ISSUER" default:"fieldops"`
	AgentToken string `envconfig:"FIELDOPS_AGENT_TOKEN"`
}

type SyncConfig struct {
	ProbeInterval  time.Duration `envconfig:"FIELDOPS_SYNC_PROBE_INTERVAL" default:"15s"`
	ProbeTimeout   time.Duration `envconfig:"FIELDOPS_SYNC_PROBE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"FIELDOPS_SYNC_IDEMPOTENCY_TTL" default:"24h"`
	FetchOnBoot    bool          `envconfig:"FIELDOPS_SYNC_FETCH_ON_BOOT" default:"true"`
}

func (db *RemoteDBConfig) ensureDSN() error {
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
