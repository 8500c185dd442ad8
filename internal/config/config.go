// Package config loads server configuration from environment variables and
// an optional YAML file.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string        `mapstructure:"port"`
	DBPath              string        `mapstructure:"db_path"`
	JWTSecret           string        `mapstructure:"jwt_secret"`
	TokenTTL            time.Duration `mapstructure:"-"`
	TokenTTLHours       int           `mapstructure:"token_ttl_hours"`
	CORSOrigins         []string      `mapstructure:"cors_origins"`
	MigrationsDir       string        `mapstructure:"migrations_dir"`
	LogLevel            string        `mapstructure:"log_level"`
	LeaderboardCacheTTL time.Duration `mapstructure:"leaderboard_cache_ttl"`
}

// Load reads configuration with the following precedence: explicit config
// file (if path is non-empty), then environment variables, then defaults.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "./data/focusflow.db")
	v.SetDefault("jwt_secret", "change-this-secret")
	v.SetDefault("token_ttl_hours", 72)
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("migrations_dir", "./migrations")
	v.SetDefault("log_level", "info")
	v.SetDefault("leaderboard_cache_ttl", 30*time.Second)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	// CORS_ORIGINS arrives as a comma-separated string from the environment.
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		parts := strings.Split(cfg.CORSOrigins[0], ",")
		origins := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		cfg.CORSOrigins = origins
	}

	if cfg.TokenTTLHours <= 0 {
		cfg.TokenTTLHours = 72
	}
	cfg.TokenTTL = time.Duration(cfg.TokenTTLHours) * time.Hour

	return cfg, nil
}
