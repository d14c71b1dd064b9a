package auth

import (
	"testing"
	"time"

	"scripta/config"
	"scripta/internal/domain"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "scripta",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 42, "writer@example.com", domain.RoleWriter)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "writer@example.com" || claims.Role != domain.RoleWriter {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 1, "a@b.c", domain.RoleClient)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	other := testJWTConfig()
	other.AccessSecret = "different"
	if _, err := ParseAccessToken(other, token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessExpiry = -time.Minute
	token, err := GenerateAccessToken(cfg, 1, "a@b.c", domain.RoleClient)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateRefreshToken(cfg, 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	userID, err := ParseRefreshToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}

	// An access token is signed with the other secret and must not refresh.
	access, err := GenerateAccessToken(cfg, 42, "a@b.c", domain.RoleClient)
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	if _, err := ParseRefreshToken(cfg, access); err != ErrInvalidToken {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
}

func TestTokensRejectWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	other := testJWTConfig()
	other.Issuer = "someone-else"

	access, err := GenerateAccessToken(other, 1, "a@b.c", domain.RoleClient)
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	if _, err := ParseAccessToken(cfg, access); err != ErrInvalidToken {
		t.Errorf("access token with wrong issuer accepted: %v", err)
	}

	refresh, err := GenerateRefreshToken(other, 1)
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}
	if _, err := ParseRefreshToken(cfg, refresh); err != ErrInvalidToken {
		t.Errorf("refresh token with wrong issuer accepted: %v", err)
	}
}

func TestRefreshTokenNotAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	refresh, err := GenerateRefreshToken(cfg, 7)
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}
	// Signed with a different secret, so it must not pass access parsing.
	if _, err := ParseAccessToken(cfg, refresh); err != ErrInvalidToken {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
}
