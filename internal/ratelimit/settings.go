package ratelimit

import (
	internalsettings "github.com/caregrid/caregrid/internal/settings"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SettingsConfig captures limiter settings stored in the settings table.
type SettingsConfig struct {
	InviteLimit   int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// LoadSettingsConfig loads the current limiter settings snapshot.
func LoadSettingsConfig(conn *gorm.DB) SettingsConfig {
	return SettingsConfig{
		InviteLimit:   internalsettings.IntValue(conn, internalsettings.InviteRateLimitKey, internalsettings.DefaultInviteRateLimit),
		RedisEnabled:  internalsettings.BoolValue(conn, internalsettings.RateLimitRedisEnabledKey, false),
		RedisAddr:     internalsettings.StringValue(conn, internalsettings.RateLimitRedisAddrKey, ""),
		RedisPassword: internalsettings.StringValue(conn, internalsettings.RateLimitRedisPasswordKey, ""),
		RedisDB:       internalsettings.IntValue(conn, internalsettings.RateLimitRedisDBKey, 0),
		RedisPrefix:   internalsettings.StringValue(conn, internalsettings.RateLimitRedisPrefixKey, internalsettings.DefaultRateLimitRedisPrefix),
	}
}

// BuildLimiter returns the limiter implied by the settings: Redis-backed
// when enabled and an address is configured, in-memory otherwise.
func BuildLimiter(cfg SettingsConfig) Limiter {
	if cfg.RedisEnabled && cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisLimiter(client, cfg.RedisPrefix)
	}
	return NewMemoryLimiter()
}
