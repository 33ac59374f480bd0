package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Gateway GatewayConfig
	Views   ViewConfig
	DemoAPI DemoAPIConfig
	DB      DBConfig
	Redis   RedisConfig
	Metrics MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Gateway.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Views.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPDESK_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"SHOPDESK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SHOPDESK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SHOPDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// GatewayConfig points the dashboard at the REST backend.
type GatewayConfig struct {
	BaseURL   string        `envconfig:"SHOPDESK_API_BASE_URL" default:"http://localhost:5000"`
	Timeout   time.Duration `envconfig:"SHOPDESK_API_TIMEOUT" default:"0s"`
	UserAgent string        `envconfig:"SHOPDESK_API_USER_AGENT" default:"shopdesk-dashboard"`
}

func (g GatewayConfig) validate() error {
	u, err := url.Parse(strings.TrimSpace(g.BaseURL))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvAPIBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvAPIBaseURL, g.BaseURL)
	}
	if g.Timeout < 0 {
		return fmt.Errorf("%s cannot be negative", EnvAPITimeout)
	}
	return nil
}

// ViewConfig holds the fixed page size of each list view.
type ViewConfig struct {
	CustomersPageSize    int `envconfig:"SHOPDESK_CUSTOMERS_PAGE_SIZE" default:"10"`
	ManufacturesPageSize int `envconfig:"SHOPDESK_MANUFACTURES_PAGE_SIZE" default:"5"`
	SalesPageSize        int `envconfig:"SHOPDESK_SALES_PAGE_SIZE" default:"10"`
	StocksPageSize       int `envconfig:"SHOPDESK_STOCKS_PAGE_SIZE" default:"10"`
}

func (v ViewConfig) validate() error {
	sizes := map[string]int{
		EnvCustomersPageSize:    v.CustomersPageSize,
		EnvManufacturesPageSize: v.ManufacturesPageSize,
		EnvSalesPageSize:        v.SalesPageSize,
		EnvStocksPageSize:       v.StocksPageSize,
	}
	for key, size := range sizes {
		if size < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", key, size)
		}
	}
	return nil
}

// DemoAPIConfig configures the sample-data backend.
type DemoAPIConfig struct {
	Port        string   `envconfig:"SHOPDESK_DEMO_PORT" default:"5000"`
	CORSOrigins []string `envconfig:"SHOPDESK_DEMO_CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	Seed        bool     `envconfig:"SHOPDESK_DEMO_SEED" default:"true"`
	AutoMigrate bool     `envconfig:"SHOPDESK_DEMO_AUTO_MIGRATE" default:"true"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPDESK_DB_DSN"`
	Driver string `envconfig:"SHOPDESK_DB_DRIVER" default:"sqlite"`

	Host     string `envconfig:"SHOPDESK_DB_HOST"`
	Port     int    `envconfig:"SHOPDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPDESK_DB_USER"`
	Password string `envconfig:"SHOPDESK_DB_PASSWORD"`
	Name     string `envconfig:"SHOPDESK_DB_NAME"`
	SSLMode  string `envconfig:"SHOPDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

// ResolveDSN returns the configured DSN, building a postgres URL from the
// discrete host settings when no DSN is set.
func (db DBConfig) ResolveDSN() (string, error) {
	if db.DSN != "" {
		return db.DSN, nil
	}
	if db.IsSQLite() {
		return DefaultSQLiteDSN, nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// RedisConfig is optional; the demo backend skips idempotency when unset.
type RedisConfig struct {
	URL          string        `envconfig:"SHOPDESK_REDIS_URL"`
	Address      string        `envconfig:"SHOPDESK_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdemTTL      time.Duration `envconfig:"SHOPDESK_IDEMPOTENCY_TTL" default:"24h"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type MetricsConfig struct {
	Addr string `envconfig:"SHOPDESK_METRICS_ADDR"`
}
