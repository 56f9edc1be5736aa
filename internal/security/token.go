// Package security verifies caller session tokens. Tokens are issued by the
// external identity provider with a shared HMAC secret; this service only
// authenticates the signature and extracts the caller's user ID.
package security

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims are the JWT claims carried by a caller session token.
type UserClaims struct {
	UserID uint64 `json:"uid"`
	jwt.RegisteredClaims
}

// ParseUserToken validates a session token and returns its claims.
func ParseUserToken(secret, token string) (*UserClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("security: empty jwt secret")
	}
	claims := &UserClaims{}
	parsed, errParse := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil {
		return nil, fmt.Errorf("security: parse token: %w", errParse)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("security: invalid token")
	}
	if claims.UserID == 0 {
		// Identity providers that only set the subject still work.
		if sub, errSub := claims.GetSubject(); errSub == nil && sub != "" {
			if id, errAtoi := strconv.ParseUint(sub, 10, 64); errAtoi == nil {
				claims.UserID = id
			}
		}
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("security: token has no user id")
	}
	return claims, nil
}

// SignUserToken issues a session token for a user. Used by tests and local
// tooling; production tokens come from the identity provider.
func SignUserToken(secret string, userID uint64, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := UserClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token, errSign := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return token, nil
}
