package auth

import (
	"testing"
	"time"

	"github.com/kythia/dashboard-backend/pkg/config"
)

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "kythia",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()

	token, err := MintSessionToken(cfg, now, SessionTokenPayload{UserID: "123456789", JTI: "jti-1"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}

	if claims.UserID != "123456789" {
		t.Fatalf("expected user_id 123456789, got %s", claims.UserID)
	}
	if claims.ID != "jti-1" {
		t.Fatalf("jti not preserved, got %s", claims.ID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if !claims.ExpiresAt.After(now.Add(29 * time.Minute)) {
		t.Fatalf("expiry not applied, got %s", claims.ExpiresAt)
	}
}

func TestMintGeneratesJTIWhenAbsent(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "kythia", ExpirationMinutes: 30}

	token, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{UserID: "123"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestMintRejectsMissingUser(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "kythia", ExpirationMinutes: 30}
	if _, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{}); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "kythia", ExpirationMinutes: 30}
	token, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{UserID: "123"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	cfg.Secret = "other"
	if _, err := ParseSessionToken(cfg, token); err == nil {
		t.Fatal("expected signature validation failure")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "kythia", ExpirationMinutes: 30}
	token, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{UserID: "123"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	cfg.Issuer = "someone-else"
	if _, err := ParseSessionToken(cfg, token); err == nil {
		t.Fatal("expected issuer validation failure")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "kythia", ExpirationMinutes: 5}
	token, err := MintSessionToken(cfg, time.Now().Add(-time.Hour), SessionTokenPayload{UserID: "123"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	if _, err := ParseSessionToken(cfg, token); err == nil {
		t.Fatal("expected expiry validation failure")
	}
}
