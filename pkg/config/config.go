package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config represents the application configuration
type Config struct {
	AlphaVantage AlphaVantageConfig `env:", prefix=ALPHAVANTAGE_"`
	MySQL        MySQLConfig        `env:", prefix=MYSQL_"`
	Redis        RedisConfig        `env:", prefix=REDIS_"`
	InfluxDB     InfluxConfig       `env:", prefix=INFLUXDB_"`
	NATS         NATSConfig         `env:", prefix=NATS_"`
	Features     FeaturesConfig     `env:", prefix=FEATURES_"`
	Logging      LoggingConfig      `env:", prefix=LOG_"`
}

// AlphaVantageConfig holds provider API configuration
type AlphaVantageConfig struct {
	APIKey            string        `env:"API_KEY"`
	BaseURL           string        `env:"BASE_URL, default=https://www.alphavantage.co/query"`
	ListingsURL       string        `env:"LISTINGS_URL, default=http://ftp.nasdaqtrader.com/dynamic/SymDir"`
	Timeout           time.Duration `env:"TIMEOUT, default=15s"`
	RequestsPerMinute int           `env:"REQUESTS_PER_MINUTE, default=5"`
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	Host            string        `env:"HOST, default=localhost"`
	Port            int           `env:"PORT, default=3306"`
	Database        string        `env:"DATABASE, default=stockmarket"`
	User            string        `env:"USER, default=stockmarket"`
	Password        string        `env:"PASSWORD"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS, default=25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS, default=5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME, default=5m"`
}

// RedisConfig holds Redis configuration for the raw-payload cache
type RedisConfig struct {
	Host         string        `env:"HOST, default=localhost"`
	Port         int           `env:"PORT, default=6379"`
	Password     string        `env:"PASSWORD"`
	DB           int           `env:"DB, default=0"`
	PoolSize     int           `env:"POOL_SIZE, default=10"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=3s"`
}

// InfluxConfig holds InfluxDB configuration for the time-series mirror
type InfluxConfig struct {
	URL     string        `env:"URL, default=http://localhost:8086"`
	Token   string        `env:"TOKEN"`
	Org     string        `env:"ORG, default=stock-market"`
	Bucket  string        `env:"BUCKET, default=quotes"`
	Timeout time.Duration `env:"TIMEOUT, default=10s"`
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL           string        `env:"URL, default=nats://localhost:4222"`
	MaxReconnect  int           `env:"MAX_RECONNECT, default=10"`
	ReconnectWait time.Duration `env:"RECONNECT_WAIT, default=2s"`
}

// FeaturesConfig holds optional pipeline features
type FeaturesConfig struct {
	PayloadCacheEnabled bool          `env:"PAYLOAD_CACHE_ENABLED, default=false"`
	PayloadCacheTTL     time.Duration `env:"PAYLOAD_CACHE_TTL, default=12h"`
	InfluxMirrorEnabled bool          `env:"INFLUX_MIRROR_ENABLED, default=false"`
	EventsEnabled       bool          `env:"EVENTS_ENABLED, default=false"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LEVEL, default=info"`
	Format string `env:"FORMAT, default=text"`
	Output string `env:"OUTPUT, default=stdout"`
}

// Load loads configuration from environment variables using go-envconfig
func Load() (*Config, error) {
	ctx := context.Background()
	var cfg Config

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MySQL.Host == "" {
		return fmt.Errorf("MySQL host is required")
	}

	if c.MySQL.Port <= 0 || c.MySQL.Port > 65535 {
		return fmt.Errorf("invalid MySQL port: %d", c.MySQL.Port)
	}

	if c.AlphaVantage.BaseURL == "" {
		return fmt.Errorf("AlphaVantage base URL is required")
	}

	if c.AlphaVantage.RequestsPerMinute <= 0 {
		return fmt.Errorf("invalid requests per minute: %d", c.AlphaVantage.RequestsPerMinute)
	}

	return nil
}

// GetMySQLDSN returns MySQL DSN string
func (c *Config) GetMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		c.MySQL.User,
		c.MySQL.Password,
		c.MySQL.Host,
		c.MySQL.Port,
		c.MySQL.Database,
	)
}

// GetRedisAddr returns Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
