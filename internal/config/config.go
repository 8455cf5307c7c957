// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides: PHOTOMARKET_BOT_TOKEN,
// PHOTOMARKET_DATABASE_URL, PHOTOMARKET_AUTH_JWT_SECRET and so on.
const EnvPrefix = "PHOTOMARKET"

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token        string        `yaml:"token"`
	Mode         string        `yaml:"mode"` // polling | noop
	Username     string        `yaml:"username"`
	Workers      int           `yaml:"workers"` // per-user sharded update workers
	AdminIDs     []int64       `yaml:"admin_ids"`
	ChannelID    int64         `yaml:"channel_id" split_words:"true"`
	SessionStore string        `yaml:"session_store"` // memory | redis
	SessionTTL   time.Duration `yaml:"session_ttl"`
	RateLimit    int           `yaml:"rate_limit"` // updates per user per minute; 0 disables
	// ImageTimeout bounds one photo download plus its storage upload.
	ImageTimeout time.Duration `yaml:"image_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AdminAPIKey    string        `yaml:"admin_api_key" split_words:"true"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	MaxConns    int32  `yaml:"max_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
	CacheUsers  bool   `yaml:"cache_users"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type StorageConfig struct {
	SupabaseURL string `yaml:"supabase_url" split_words:"true"`
	SupabaseKey string `yaml:"supabase_key" split_words:"true"`
	Bucket      string `yaml:"bucket"`
	Folder      string `yaml:"folder"`
}

type PaymentConfig struct {
	ZarinPal struct {
		MerchantID  string `yaml:"merchant_id" split_words:"true"`
		CallbackURL string `yaml:"callback_url"`
		Sandbox     bool   `yaml:"sandbox"`
	} `yaml:"zarinpal"`
}

type AdsConfig struct {
	InitialStatus  string `yaml:"initial_status"` // pending | approved
	PublishWorkers int    `yaml:"publish_workers"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" split_words:"true"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type SchedulerConfig struct {
	ExpiryInterval    time.Duration `yaml:"expiry_interval"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	PaymentStaleAfter time.Duration `yaml:"payment_stale_after"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Payment   PaymentConfig   `yaml:"payment"`
	Ads       AdsConfig       `yaml:"ads"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-" ignored:"true"`
}

// LoadConfig reads the YAML file, then applies .env and PHOTOMARKET_* overrides.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse builds a Config from YAML bytes plus the environment.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Bot.Mode = strings.ToLower(strings.TrimSpace(cfg.Bot.Mode))
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	cfg.Bot.SessionStore = strings.ToLower(strings.TrimSpace(cfg.Bot.SessionStore))
	if cfg.Bot.SessionStore == "" {
		cfg.Bot.SessionStore = "memory"
	}
	if cfg.Bot.SessionTTL < 0 {
		cfg.Bot.SessionTTL = 0
	} else if cfg.Bot.SessionTTL == 0 {
		cfg.Bot.SessionTTL = 24 * time.Hour
	}
	if cfg.Bot.ImageTimeout <= 0 {
		cfg.Bot.ImageTimeout = 45 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "ads"
	}
	if cfg.Storage.Folder == "" {
		cfg.Storage.Folder = "ads"
	}
	cfg.Ads.InitialStatus = strings.ToLower(strings.TrimSpace(cfg.Ads.InitialStatus))
	if cfg.Ads.InitialStatus == "" {
		cfg.Ads.InitialStatus = "pending"
	}
	if cfg.Ads.PublishWorkers <= 0 {
		cfg.Ads.PublishWorkers = 2
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Hour
	}
	if cfg.Scheduler.ReconcileInterval <= 0 {
		cfg.Scheduler.ReconcileInterval = 5 * time.Minute
	}
	if cfg.Scheduler.PaymentStaleAfter <= 0 {
		cfg.Scheduler.PaymentStaleAfter = 30 * time.Minute
	}
}

func validate(cfg *Config) error {
	// Minimal validation
	switch cfg.Bot.Mode {
	case "polling":
		if cfg.Bot.Token == "" {
			return errors.New("bot.token is required")
		}
	case "noop":
	default:
		return fmt.Errorf("bot.mode %q: want polling or noop", cfg.Bot.Mode)
	}
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	switch cfg.Bot.SessionStore {
	case "memory":
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required when bot.session_store is redis")
		}
	default:
		return fmt.Errorf("bot.session_store %q: want memory or redis", cfg.Bot.SessionStore)
	}
	// Registration keeps photo URLs, never bytes, so a live bot or a shared
	// session store cannot run without object storage.
	if cfg.Bot.Mode == "polling" || cfg.Bot.SessionStore == "redis" {
		if cfg.Storage.SupabaseURL == "" || cfg.Storage.SupabaseKey == "" {
			return fmt.Errorf("storage.supabase_url and storage.supabase_key are required (bot.mode=%s, bot.session_store=%s)", cfg.Bot.Mode, cfg.Bot.SessionStore)
		}
	}
	switch cfg.Ads.InitialStatus {
	case "pending", "approved":
	default:
		return fmt.Errorf("ads.initial_status %q: want pending or approved", cfg.Ads.InitialStatus)
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
