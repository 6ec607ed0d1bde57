package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/rocketshoes/pkg/config"
	"github.com/utafrali/rocketshoes/pkg/database"
	"github.com/utafrali/rocketshoes/pkg/httpclient"
	"github.com/utafrali/rocketshoes/pkg/middleware"
	"github.com/utafrali/rocketshoes/pkg/validator"
)

// Snapshot storage backends.
const (
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the cart API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003" validate:"min=1,max=65535"`

	// Stock API
	StockAPIURL        string        `env:"STOCK_API_URL" envDefault:"http://localhost:3333" validate:"required,url"`
	StockAPITimeout    time.Duration `env:"STOCK_API_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	StockAPIMaxRetries int           `env:"STOCK_API_MAX_RETRIES" envDefault:"0" validate:"gte=0,lte=5"`

	// Stock API circuit breaker
	CBMaxRequests  uint32  `env:"STOCK_API_CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"STOCK_API_CB_INTERVAL" envDefault:"60" validate:"gte=0"`
	CBTimeout      int     `env:"STOCK_API_CB_TIMEOUT" envDefault:"30" validate:"gt=0"`
	CBFailureRatio float64 `env:"STOCK_API_CB_FAILURE_RATIO" envDefault:"0.5" validate:"gt=0,lte=1"`
	CBMinRequests  uint32  `env:"STOCK_API_CB_MIN_REQUESTS" envDefault:"5"`

	// Snapshot storage
	Storage     string `env:"CART_STORAGE" envDefault:"file" validate:"oneof=file redis postgres"`
	StoragePath string `env:"CART_STORAGE_PATH" envDefault:"data/cart.json" validate:"required_if=Storage file"`
	CartTTL     int    `env:"CART_TTL_HOURS" envDefault:"0" validate:"gte=0"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"required_if=Storage redis"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432" validate:"min=1,max=65535"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"rocketshoes"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"rocketshoes"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"rocketshoes"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SlowQueryMS      int    `env:"DB_SLOW_QUERY_MS" envDefault:"200" validate:"gte=0"`

	// Kafka. Events are disabled when no brokers are set.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaAsync   bool     `env:"KAFKA_ASYNC" envDefault:"true"`

	// HTTP surface
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"20" validate:"gte=0"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"40" validate:"gte=0"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0" validate:"gte=0,lte=1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	return cfg, nil
}

// Validate implements pkgconfig.Validator.
func (c *Config) Validate() error {
	return validator.Validate(c)
}

// EventsEnabled reports whether Kafka brokers are configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// CartTTLDuration returns the snapshot TTL, zero meaning no expiry.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// HTTPClient returns the stock API client settings.
func (c *Config) HTTPClient() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = c.StockAPITimeout
	hc.MaxRetries = c.StockAPIMaxRetries
	return hc
}

// CircuitBreaker returns the stock API breaker settings.
func (c *Config) CircuitBreaker() httpclient.CircuitBreakerConfig {
	return httpclient.CircuitBreakerConfig{
		Name:         "stock-api",
		MaxRequests:  c.CBMaxRequests,
		Interval:     time.Duration(c.CBInterval) * time.Second,
		Timeout:      time.Duration(c.CBTimeout) * time.Second,
		FailureRatio: c.CBFailureRatio,
		MinRequests:  c.CBMinRequests,
	}
}

// RateLimit returns the per-client limit for cart routes.
func (c *Config) RateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{RPS: c.RateLimitRPS, Burst: c.RateLimitBurst}
}

// Postgres returns the PostgreSQL connection settings.
func (c *Config) Postgres() database.PostgresConfig {
	pc := database.DefaultPostgresConfig()
	pc.Host = c.PostgresHost
	pc.Port = c.PostgresPort
	pc.User = c.PostgresUser
	pc.Password = c.PostgresPassword
	pc.DBName = c.PostgresDB
	pc.SSLMode = c.PostgresSSLMode
	return pc
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Addr = c.RedisAddr
	rc.Password = c.RedisPass
	rc.DB = c.RedisDB
	return rc
}

// StockAPIConfig holds configuration for the simulated stock API.
type StockAPIConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	HTTPPort    int    `env:"STOCK_API_HTTP_PORT" envDefault:"3333" validate:"min=1,max=65535"`

	// SeedFile replaces the built-in catalog when set.
	SeedFile string `env:"STOCK_API_SEED_FILE"`
}

// LoadStockAPI reads the stock API configuration from environment variables.
func LoadStockAPI() (*StockAPIConfig, error) {
	cfg := &StockAPIConfig{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load stock api config: %w", err)
	}
	return cfg, nil
}

// Validate implements pkgconfig.Validator.
func (c *StockAPIConfig) Validate() error {
	return validator.Validate(c)
}
