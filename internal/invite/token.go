// Package invite holds the invitation token and status logic shared by the
// invitation store and the group service.
package invite

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultTTL is the invitation lifetime used when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// tokenBytes is the entropy of a redemption token.
const tokenBytes = 32

// NewToken returns a fresh unguessable redemption token. Only its hash is
// persisted; the raw value is shown to the inviter once.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, errRead := rand.Read(buf); errRead != nil {
		return "", fmt.Errorf("invite: generate token: %w", errRead)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 digest stored and looked up in place of
// the raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
