package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Store      StoreConfig      `yaml:"store"`
	Database   DatabaseConfig   `yaml:"database"`
	Machines   MachinesConfig   `yaml:"machines"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Events     EventsConfig     `yaml:"events"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateBurst       int      `yaml:"rate_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// AuthConfig configures session tokens. JWT_SECRET overrides Secret.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTLMinutes int           `yaml:"token_ttl_minutes"`
	TokenTTL        time.Duration `yaml:"-"`
}

// StoreConfig selects the data layer.
type StoreConfig struct {
	// Driver is memory, postgres or sqlite.
	Driver      string        `yaml:"driver"`
	MockDelayMs int           `yaml:"mock_delay_ms"`
	MockDelay   time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	// Seed loads the demo tenants into an empty database.
	Seed bool `yaml:"seed"`
}

// MachinesConfig tunes the cycle countdowns.
type MachinesConfig struct {
	CycleSeconds        int           `yaml:"cycle_seconds"`
	TickMillis          int           `yaml:"tick_millis"`
	TickInterval        time.Duration `yaml:"-"`
	NoticeWindowSeconds int           `yaml:"notice_window_seconds"`
	NoticeWindow        time.Duration `yaml:"-"`
	ReconcileSchedule   string        `yaml:"reconcile_schedule"`
}

// PushConfig holds the VAPID keys for web push notifications. Push is
// disabled when the keys are empty.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// EventsConfig enables Kafka publication. Events are dropped when Brokers is empty.
type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LogConfig sets the logrus level and format (text or json).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration from the given path. A missing file yields
// the defaults so the memory store can run without any setup.
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("config file %s not found; using defaults", path)
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.Secret = secret
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateBurst <= 0 {
		cfg.Server.RateBurst = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Auth.Secret == "" {
		return errors.New("auth.secret or JWT_SECRET must be set")
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 12 * 60
	}
	cfg.Auth.TokenTTL = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Driver {
	case "":
		cfg.Store.Driver = "memory"
	case "memory", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown store.driver %q", cfg.Store.Driver)
	}
	if cfg.Store.MockDelayMs < 0 {
		cfg.Store.MockDelayMs = 0
	} else if cfg.Store.MockDelayMs == 0 {
		cfg.Store.MockDelayMs = 400
	}
	cfg.Store.MockDelay = time.Duration(cfg.Store.MockDelayMs) * time.Millisecond
	if cfg.Store.Driver != "memory" && cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for the %s driver", cfg.Store.Driver)
	}

	if cfg.Machines.CycleSeconds <= 0 {
		cfg.Machines.CycleSeconds = 1800
	}
	if cfg.Machines.TickMillis <= 0 {
		cfg.Machines.TickMillis = 1000
	}
	cfg.Machines.TickInterval = time.Duration(cfg.Machines.TickMillis) * time.Millisecond
	if cfg.Machines.NoticeWindowSeconds <= 0 {
		cfg.Machines.NoticeWindowSeconds = 3
	}
	cfg.Machines.NoticeWindow = time.Duration(cfg.Machines.NoticeWindowSeconds) * time.Second
	if cfg.Machines.ReconcileSchedule == "" {
		cfg.Machines.ReconcileSchedule = "@every 1m"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize < cfg.WorkerPool.Size {
		cfg.WorkerPool.QueueSize = 64
	}

	if cfg.Events.Topic == "" {
		cfg.Events.Topic = "laundry.events"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return nil
}

// PushEnabled reports whether VAPID keys are configured.
func (cfg *Config) PushEnabled() bool {
	return cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != ""
}
