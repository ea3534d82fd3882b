package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vartasolar/fieldops-backend/pkg/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret: "test-secret",
		Issuer:    "fieldops",
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testAuthConfig()
	userID := uuid.New()
	now := time.Now()

	signed, err := MintAccessToken(cfg, now, time.Hour, userID, "technician")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != "technician" {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := testAuthConfig()
	signed, err := MintAccessToken(cfg, time.Now(), time.Hour, uuid.New(), "technician")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	other := testAuthConfig()
	other.JWTSecret = "different"
	if _, err := ParseAccessToken(other, signed); err == nil {
		t.Fatal("expected parse to fail with the wrong secret")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testAuthConfig()
	signed, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Hour, uuid.New(), "technician")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected parse to reject an expired token")
	}
}
