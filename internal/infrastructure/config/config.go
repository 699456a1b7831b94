// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback), optionally seeded from a .env file
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	schedule := cfg.Sweep.Schedule
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Sweep         SweepConfig         `yaml:"sweep"`
	Redis         RedisConfig         `yaml:"redis"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"` // 0 disables rate limiting
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SweepConfig holds notification sweep settings
type SweepConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 1h"
	Lock     string `yaml:"lock"`     // "local" or "redis"
	LockTTL  string `yaml:"lock_ttl"` // duration string, e.g. "5m"
}

// RedisConfig holds Redis connection settings, used by the redis sweep lock
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${REDIS_PASSWORD})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Storage: StorageConfig{
			DatabasePath: "coolingoff.db",
		},
		Sweep: SweepConfig{
			Enabled:  true,
			Schedule: "@every 1h",
			Lock:     "local",
			LockTTL:  "5m",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// LoadFromEnv loads configuration from environment variables only.
// A .env file in the working directory is read first if present; variables
// already set in the environment take precedence.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	def := Default()
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("COOLINGOFF_PORT", def.Server.Port),
			AllowedOrigins: getEnvList("COOLINGOFF_ALLOWED_ORIGINS", def.Server.AllowedOrigins),
			RateLimitRPS:   getEnvFloat("COOLINGOFF_RATE_LIMIT_RPS", def.Server.RateLimitRPS),
			RateLimitBurst: getEnvInt("COOLINGOFF_RATE_LIMIT_BURST", def.Server.RateLimitBurst),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("COOLINGOFF_DB_PATH", def.Storage.DatabasePath),
		},
		Sweep: SweepConfig{
			Enabled:  getEnv("COOLINGOFF_SWEEP_ENABLED", "true") == "true",
			Schedule: getEnv("COOLINGOFF_SWEEP_SCHEDULE", def.Sweep.Schedule),
			Lock:     getEnv("COOLINGOFF_SWEEP_LOCK", def.Sweep.Lock),
			LockTTL:  getEnv("COOLINGOFF_SWEEP_LOCK_TTL", def.Sweep.LockTTL),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", def.Redis.Addr),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvFloat retrieves a float environment variable with a fallback default
func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		var result float64
		if _, err := fmt.Sscanf(val, "%g", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvList retrieves a comma-separated environment variable
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
