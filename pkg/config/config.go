package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Storefront StorefrontConfig
	Checkout   CheckoutConfig
	Storage    StorageConfig
	DB         DBConfig
	Redis      RedisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Storage.Backend == StorageBackendPostgres {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SITHEE_APP_ENV" required:"true"`
	Port         string `envconfig:"SITHEE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SITHEE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SITHEE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorefrontConfig points at the external commerce API that owns orders,
// products, and auth. A single base URL, matching the upstream deployment.
type StorefrontConfig struct {
	APIBaseURL     string        `envconfig:"SITHEE_API_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"SITHEE_API_REQUEST_TIMEOUT" default:"10s"`
}

// CheckoutConfig tunes the order-submission workflow.
type CheckoutConfig struct {
	// ShippingFee is the flat delivery fee added to every order, in the
	// catalog's currency unit.
	ShippingFee int64 `envconfig:"SITHEE_CHECKOUT_SHIPPING_FEE" default:"50"`
	// LocalFallback controls whether unreachable-backend submissions complete
	// with a locally synthesized order id instead of surfacing the failure.
	LocalFallback bool          `envconfig:"SITHEE_CHECKOUT_LOCAL_FALLBACK" default:"true"`
	FallbackDelay time.Duration `envconfig:"SITHEE_CHECKOUT_FALLBACK_DELAY" default:"1500ms"`
	RedirectDelay time.Duration `envconfig:"SITHEE_CHECKOUT_REDIRECT_DELAY" default:"2s"`
}

// StorageConfig selects the slot-storage backend used to persist carts and
// session state between restarts.
type StorageConfig struct {
	Backend string `envconfig:"SITHEE_STORAGE_BACKEND" default:"sqlite"`
	FileDir string `envconfig:"SITHEE_STORAGE_FILE_DIR" default:"./data"`
}

func (s StorageConfig) validate() error {
	switch s.Backend {
	case StorageBackendMemory, StorageBackendFile, StorageBackendSQLite, StorageBackendPostgres, StorageBackendRedis:
		return nil
	}
	return fmt.Errorf("unknown storage backend %q", s.Backend)
}

type DBConfig struct {
	DSN    string `envconfig:"SITHEE_DB_DSN"`
	Driver string `envconfig:"SITHEE_DB_DRIVER" default:"sqlite"`

	// SQLitePath is used when the sqlite backend is selected.
	SQLitePath string `envconfig:"SITHEE_DB_SQLITE_PATH" default:"./data/storefront.db"`

	LegacyHost     string `envconfig:"SITHEE_DB_HOST"`
	LegacyPort     int    `envconfig:"SITHEE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SITHEE_DB_USER"`
	LegacyPassword string `envconfig:"SITHEE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SITHEE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SITHEE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SITHEE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SITHEE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SITHEE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SITHEE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SITHEE_REDIS_URL"`
	Address      string        `envconfig:"SITHEE_REDIS_ADDR"`
	Password     string        `envconfig:"SITHEE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SITHEE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SITHEE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SITHEE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SITHEE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SITHEE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SITHEE_REDIS_WRITE_TIMEOUT" default:"5s"`
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
