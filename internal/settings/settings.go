// Package settings exposes runtime configuration stored in the settings
// table, with code-side defaults.
package settings

import (
	"errors"
	"strconv"
	"strings"

	"github.com/caregrid/caregrid/internal/models"
	"gorm.io/gorm"
)

// DB config keys and defaults.
const (
	// InviteRateLimitKey controls invitations per caller per second (0 = unlimited).
	InviteRateLimitKey = "INVITE_RATE_LIMIT"
	// RateLimitRedisEnabledKey toggles Redis-backed rate limiting.
	RateLimitRedisEnabledKey = "RATE_LIMIT_REDIS_ENABLED"
	// RateLimitRedisAddrKey defines the Redis address for rate limiting.
	RateLimitRedisAddrKey = "RATE_LIMIT_REDIS_ADDR"
	// RateLimitRedisPasswordKey defines the Redis password for rate limiting.
	RateLimitRedisPasswordKey = "RATE_LIMIT_REDIS_PASSWORD"
	// RateLimitRedisDBKey defines the Redis DB index for rate limiting.
	RateLimitRedisDBKey = "RATE_LIMIT_REDIS_DB"
	// RateLimitRedisPrefixKey defines the Redis key prefix for rate limiting.
	RateLimitRedisPrefixKey = "RATE_LIMIT_REDIS_PREFIX"

	// DefaultInviteRateLimit is the fallback invite rate limit per second.
	DefaultInviteRateLimit = 5
	// DefaultRateLimitRedisPrefix is the fallback Redis key prefix.
	DefaultRateLimitRedisPrefix = "caregrid:rl"
)

// Value returns the raw setting value for a key, when present.
func Value(conn *gorm.DB, key string) (string, bool) {
	if conn == nil {
		return "", false
	}
	var row models.Setting
	if errFind := conn.Where("key = ?", key).First(&row).Error; errFind != nil {
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return "", false
		}
		return "", false
	}
	return row.Value, true
}

// IntValue returns a non-negative integer setting, or fallback.
func IntValue(conn *gorm.DB, key string, fallback int) int {
	raw, ok := Value(conn, key)
	if !ok {
		return fallback
	}
	parsed, errParse := strconv.Atoi(strings.TrimSpace(raw))
	if errParse != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

// BoolValue returns a boolean setting, or fallback.
func BoolValue(conn *gorm.DB, key string, fallback bool) bool {
	raw, ok := Value(conn, key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// StringValue returns a trimmed string setting, or fallback.
func StringValue(conn *gorm.DB, key, fallback string) string {
	raw, ok := Value(conn, key)
	if !ok {
		return fallback
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
