// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultSessionSecret = "devsessionsecret"
)

type Config struct {
	App     AppConfig
	Server  ServerConfig
	DB      DBConfig
	Session SessionConfig
	JWT     JWTConfig
	Redis   RedisConfig
	AMQP    AMQPConfig
	Log     LogConfig
	Cache   CacheConfig
	Admin   AdminConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Dev      bool   `envconfig:"DEV" default:"false"`
	DemoData bool   `envconfig:"DEMO_DATA" default:"false"`
}

func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, "production") }

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

type DBConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"sqlite"`
	URL        string `envconfig:"DATABASE_DSN"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"bistro.db"`

	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"bistro"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"bistro"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"MIGRATIONS" default:"true"`
}

// DSN returns the connection string for the configured driver.
func (d DBConfig) DSN() string {
	if d.Driver == DriverSQLite {
		if d.URL != "" {
			return d.URL
		}
		return d.SQLitePath
	}
	if d.URL != "" {
		return NormalizeDSN(d.URL)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type SessionConfig struct {
	Secret string `envconfig:"SESSION_SECRET" default:"devsessionsecret"`
}

type JWTConfig struct {
	Secret string        `envconfig:"JWT_SECRET"`
	Issuer string        `envconfig:"JWT_ISSUER" default:"go-bistro"`
	TTL    time.Duration `envconfig:"JWT_TTL" default:"1h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	Address      string        `envconfig:"REDIS_ADDR"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool { return r.URL != "" || r.Address != "" }

type AMQPConfig struct {
	URL      string `envconfig:"AMQP_URL"`
	Exchange string `envconfig:"AMQP_EXCHANGE" default:"bistro.events"`
}

func (a AMQPConfig) Enabled() bool { return a.URL != "" }

type LogConfig struct {
	Level     string `envconfig:"LOG_LEVEL" default:"info"`
	Format    string `envconfig:"LOG_FORMAT" default:"json"`
	WarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
}

type CacheConfig struct {
	SummaryTTL time.Duration `envconfig:"CACHE_SUMMARY_TTL" default:"60s"`
}

type AdminConfig struct {
	Email    string `envconfig:"ADMIN_EMAIL" default:"admin@bistro.local"`
	Password string `envconfig:"ADMIN_PASSWORD"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv parses the current environment without touching .env.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = cfg.Session.Secret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.App.IsProd() && c.Session.Secret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be set in production")
	}
	return nil
}
