package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewJWTManager("test-secret-key", time.Hour)

	token, err := m.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "admin" {
		t.Errorf("subject = %q, want admin", claims.Subject)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > time.Hour {
		t.Errorf("expiry = %v", claims.ExpiresAt)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", time.Hour)
	other := NewJWTManager("secret-b", time.Hour)

	token, err := m.GenerateToken()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token validated with wrong secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	m := NewJWTManager("test-secret-key", -time.Minute)

	token, err := m.GenerateToken()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expired token validated")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	m := NewJWTManager("test-secret-key", time.Hour)

	for _, tok := range []string{"", "not.a.token", strings.Repeat("x", 300)} {
		if _, err := m.ValidateToken(tok); err == nil {
			t.Errorf("garbage token %q validated", tok)
		}
	}
}
