package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Task access policies.
const (
	AccessAny   = "any"
	AccessOwner = "owner"
)

// Config holds all service configuration. Values come from an optional YAML
// file and are overridden by environment variables.
type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	Port     string `yaml:"port"      env:"PORT"      env-default:"8080"`

	UserStore string `yaml:"user_store" env:"USER_STORE" env-default:"postgres"`
	TaskStore string `yaml:"task_store" env:"TASK_STORE" env-default:"postgres"`

	PostgresDSN   string `yaml:"postgres_dsn"   env:"POSTGRES_DSN"`
	MongoURI      string `yaml:"mongo_uri"      env:"MONGO_URI"`
	MongoDB       string `yaml:"mongo_db"       env:"MONGO_DB"       env-default:"taskboard"`
	RedisAddr     string `yaml:"redis_addr"     env:"REDIS_ADDR"     env-default:"redis:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`

	SessionTTL     time.Duration `yaml:"session_ttl"     env:"SESSION_TTL"     env-default:"24h"`
	SessionSliding bool          `yaml:"session_sliding" env:"SESSION_SLIDING" env-default:"false"`
	CookieSecure   bool          `yaml:"cookie_secure"   env:"COOKIE_SECURE"   env-default:"false"`

	TaskAccess         string   `yaml:"task_access"           env:"TASK_ACCESS"           env-default:"any"`
	PasswordIterations int      `yaml:"password_iterations"   env:"PASSWORD_ITERATIONS"   env-default:"600000"`
	LoginRatePerMinute int      `yaml:"login_rate_per_minute" env:"LOGIN_RATE_PER_MINUTE" env-default:"10"`
	LoginBurst         int      `yaml:"login_burst"           env:"LOGIN_BURST"           env-default:"5"`
	AllowedOrigins     []string `yaml:"allowed_origins"       env:"ALLOWED_ORIGINS"       env-default:"http://localhost:8080" env-separator:","`
	// TrustedProxies lists the reverse proxies (CIDR or address) whose
	// X-Forwarded-For header identifies the client. Empty means none.
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`
}

// Load reads configuration from path if it exists, otherwise from the
// environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
		return &cfg, cfg.Validate()
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	}
	return &cfg, cfg.Validate()
}

// Validate checks enum values and that every selected backend is reachable
// through a configured address.
func (c *Config) Validate() error {
	switch c.UserStore {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("USER_STORE: unsupported backend %q", c.UserStore)
	}
	switch c.TaskStore {
	case StorePostgres, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("TASK_STORE: unsupported backend %q", c.TaskStore)
	}
	if c.TaskStore == StorePostgres && c.UserStore != StorePostgres {
		// tasks.author_id references users.id
		return errors.New("TASK_STORE=postgres requires USER_STORE=postgres")
	}
	if c.usesPostgres() && c.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}
	if c.TaskStore == StoreMongo && c.MongoURI == "" {
		return errors.New("MONGO_URI is required")
	}
	switch c.TaskAccess {
	case AccessAny, AccessOwner:
	default:
		return fmt.Errorf("TASK_ACCESS: unsupported policy %q", c.TaskAccess)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.PasswordIterations < 1 {
		return errors.New("PASSWORD_ITERATIONS must be positive")
	}
	if c.LoginRatePerMinute < 1 || c.LoginBurst < 1 {
		return errors.New("LOGIN_RATE_PER_MINUTE and LOGIN_BURST must be positive")
	}
	return nil
}

func (c *Config) usesPostgres() bool {
	return c.UserStore == StorePostgres || c.TaskStore == StorePostgres
}
