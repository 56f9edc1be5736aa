package security

import (
	"testing"
	"time"
)

func TestSignAndParseUserToken(t *testing.T) {
	token, err := SignUserToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := ParseUserToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("user id = %d, want 42", claims.UserID)
	}
}

func TestParseUserToken_WrongSecret(t *testing.T) {
	token, err := SignUserToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, errParse := ParseUserToken("other", token); errParse == nil {
		t.Fatalf("expected signature mismatch error")
	}
}

func TestParseUserToken_Expired(t *testing.T) {
	token, err := SignUserToken("secret", 42, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, errParse := ParseUserToken("secret", token); errParse == nil {
		t.Fatalf("expected expiry error")
	}
}
