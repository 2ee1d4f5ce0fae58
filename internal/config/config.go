// internal/config/config.go
//
// Server configuration.
// Sources, lowest to highest precedence:
//   1. built-in defaults,
//   2. an optional config file (yaml/json/toml, chosen by extension),
//   3. environment variables (a .env file is loaded into the environment by main).
//
// Keys (env form): PORT, LOG_LEVEL, DB_PATH, JWT_SECRET, JWT_EXPIRES_DAYS,
// COOKIE_NAME, CLIENT_ORIGIN, APP_ENV, DAILY_SALT, PALETTE_FILE, SESSION_TTL.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DevSecret is the placeholder JWT secret; refused in production.
const DevSecret = "dev_secret_change_me"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Port           string
	LogLevel       zerolog.Level
	DBPath         string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	Production     bool
	DailySalt      string
	PaletteFile    string
	SessionTTL     time.Duration
}

// Load reads configuration. file may be empty.
func Load(file string) (Config, error) {
	v := viper.New()
	v.SetDefault("port", "5175")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", "./data/memorama.db")
	v.SetDefault("jwt_secret", DevSecret)
	v.SetDefault("jwt_expires_days", 14)
	v.SetDefault("cookie_name", "memorama_token")
	v.SetDefault("client_origin", "http://localhost:5173")
	v.SetDefault("app_env", "development")
	v.SetDefault("daily_salt", "memorama-daily")
	v.SetDefault("palette_file", "")
	v.SetDefault("session_ttl", "30m")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	c := Config{
		Port:           v.GetString("port"),
		DBPath:         v.GetString("db_path"),
		JWTSecret:      v.GetString("jwt_secret"),
		JWTExpiresDays: v.GetInt("jwt_expires_days"),
		CookieName:     v.GetString("cookie_name"),
		ClientOrigin:   v.GetString("client_origin"),
		Production:     v.GetString("app_env") == "production",
		DailySalt:      v.GetString("daily_salt"),
		PaletteFile:    v.GetString("palette_file"),
		SessionTTL:     v.GetDuration("session_ttl"),
	}

	lvl, err := zerolog.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: LOG_LEVEL: %v", ErrInvalid, err)
	}
	c.LogLevel = lvl

	if c.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("%w: SESSION_TTL must be positive, got %q", ErrInvalid, v.GetString("session_ttl"))
	}
	if c.JWTExpiresDays <= 0 {
		return Config{}, fmt.Errorf("%w: JWT_EXPIRES_DAYS must be positive", ErrInvalid)
	}
	if c.Production && c.JWTSecret == DevSecret {
		return Config{}, fmt.Errorf("%w: JWT_SECRET must be set in production", ErrInvalid)
	}
	return c, nil
}

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }
