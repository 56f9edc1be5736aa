package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caregrid/caregrid/internal/invite"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvListenAddr   = "LISTEN_ADDR"
	EnvInviteTTL    = "INVITE_TTL"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// ErrMissingJWTSecret indicates no signing secret could be resolved.
var ErrMissingJWTSecret = errors.New("missing jwt secret (set JWT_SECRET or `jwt.secret` in config file)")

// LoadDatabaseDSN reads the database DSN, preferring the environment over
// the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// JWTConfig holds the settings for verifying caller identity tokens.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LoadJWTConfig loads JWT verification settings. The secret is required:
// every API request must carry a verifiable identity.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	var result JWTConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if strings.TrimSpace(result.Secret) == "" {
		return JWTConfig{}, ErrMissingJWTSecret
	}
	return result, nil
}

// DefaultListenAddr is used when neither the environment nor the config
// file specifies a listen address.
const DefaultListenAddr = ":8317"

// LoadListenAddr resolves the HTTP listen address.
func LoadListenAddr(configPath string) string {
	if addr := strings.TrimSpace(os.Getenv(EnvListenAddr)); addr != "" {
		return addr
	}

	type fileConfig struct {
		Server struct {
			Addr string `yaml:"addr"`
		} `yaml:"server"`
	}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			if addr := strings.TrimSpace(cfg.Server.Addr); addr != "" {
				return addr
			}
		}
	}
	return DefaultListenAddr
}

// LoadInviteTTL resolves the invitation lifetime. Zero and negative values
// fall back to the default.
func LoadInviteTTL(configPath string) time.Duration {
	if raw := strings.TrimSpace(os.Getenv(EnvInviteTTL)); raw != "" {
		if ttl, errParse := time.ParseDuration(raw); errParse == nil && ttl > 0 {
			return ttl
		}
	}

	type fileConfig struct {
		Invitations struct {
			TTL time.Duration `yaml:"ttl"`
		} `yaml:"invitations"`
	}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil && cfg.Invitations.TTL > 0 {
			return cfg.Invitations.TTL
		}
	}
	return invite.DefaultTTL
}
