package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

type Config struct {
	TelegramBotToken string        `koanf:"telegram_bot_token"`
	TelegramAPIURL   string        `koanf:"telegram_api_url"`
	AdminID          int64         `koanf:"admin_id"`
	DatabaseURL      string        `koanf:"database_url"`
	StoragePath      string        `koanf:"storage_path"`
	HTTPPort         string        `koanf:"http_port"`
	Timezone         string        `koanf:"timezone"`
	DispatchSpec     string        `koanf:"dispatch_spec"`
	SessionTTL       time.Duration `koanf:"-"`
	LogLevel         string        `koanf:"log_level"`
	AppEnv           AppEnv        `koanf:"app_env"`
}

// ConfigFiles are probed in order; the first one found is loaded.
var ConfigFiles = []string{
	"config.yaml",
	"config.yml",
	"config.json",
	"config.toml",
}

func Load() (*Config, error) {
	// A missing .env is normal in production, the real environment wins anyway.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	k := koanf.New(".")

	configFile, found := lo.Find(ConfigFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values: TELEGRAM_BOT_TOKEN -> telegram_bot_token
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Hosting platforms usually hand out PORT
	if !k.Exists("http_port") && k.Exists("port") {
		k.Set("http_port", k.String("port"))
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	ttl, err := time.ParseDuration(k.String("session_ttl"))
	if err != nil || ttl <= 0 {
		return nil, oops.With("session_ttl", k.String("session_ttl")).Errorf("invalid session ttl")
	}
	cfg.SessionTTL = ttl

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	cfg.DatabaseURL = NormalizeDatabaseURL(cfg.DatabaseURL)

	if cfg.TelegramBotToken == "" {
		return nil, errors.ErrMissingBotToken
	}
	if cfg.AdminID == 0 {
		return nil, errors.ErrMissingAdminID
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, oops.With("timezone", cfg.Timezone).Wrap(err)
	}

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"telegram_api_url": "https://api.telegram.org",
		"storage_path":     "./data",
		"http_port":        "8080",
		"timezone":         "Asia/Kolkata",
		"dispatch_spec":    "* * * * *",
		"session_ttl":      "15m",
		"log_level":        "info",
		"app_env":          "production",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}

// Location returns the zone scheduled posts and forwarding windows are evaluated in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SlogLevel maps LogLevel onto slog, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SQLitePath is the database file used when no DATABASE_URL is configured.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.StoragePath, "relay.db")
}

// NormalizeDatabaseURL rewrites the legacy postgres:// scheme some hosts still hand out.
func NormalizeDatabaseURL(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(url, "postgres://")
	}
	return url
}

func (c *Config) String() string {
	return fmt.Sprintf("env=%s admin=%d tz=%s dispatch=%q http=%s", c.AppEnv, c.AdminID, c.Timezone, c.DispatchSpec, c.HTTPPort)
}
