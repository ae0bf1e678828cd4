package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	Auth struct {
		JWTSecret     string
		TokenLifetime time.Duration
	}
	Log struct {
		Level  string
		Format string
	}
	EventBuffer int
}

// Load reads config from environment (MARQ_ prefix) and optional marq.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("marq")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("auth.token_lifetime", "720h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("event_buffer", 64)

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Auth.JWTSecret = v.GetString("auth.jwt_secret")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.EventBuffer = v.GetInt("event_buffer")

	lifetime, err := time.ParseDuration(v.GetString("auth.token_lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid MARQ_AUTH_TOKEN_LIFETIME: %w", err)
	}
	cfg.Auth.TokenLifetime = lifetime

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("MARQ_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("MARQ_DB_DSN is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("MARQ_AUTH_JWT_SECRET is required")
	}

	return cfg, nil
}
