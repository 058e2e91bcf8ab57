package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/radiopm/radiopm-server/internal/config"
	"github.com/radiopm/radiopm-server/internal/models"
)

func newTestManager(accessTTL time.Duration) *JWTManager {
	return NewJWTManager(&config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: time.Hour,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	mgr := newTestManager(time.Minute)
	user := &models.User{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Email:     "admin@example.com",
		IsAdmin:   true,
	}

	access, refresh, err := mgr.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected non-empty token pair")
	}

	claims, err := mgr.ValidateToken(access)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("user ID = %s, want %s", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("email = %s, want %s", claims.Email, user.Email)
	}
	if !claims.IsAdmin {
		t.Error("expected admin claim")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	mgr := newTestManager(-time.Minute)
	user := &models.User{BaseModel: models.BaseModel{ID: uuid.New()}}

	access, _, err := mgr.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	if _, err := mgr.ValidateToken(access); err == nil {
		t.Fatal("expected validation error for expired token")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	mgr := newTestManager(time.Minute)
	user := &models.User{BaseModel: models.BaseModel{ID: uuid.New()}}

	access, _, err := mgr.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	other := NewJWTManager(&config.JWTConfig{
		Secret:          "different-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if _, err := other.ValidateToken(access); err == nil {
		t.Fatal("expected validation error for wrong secret")
	}
}

func TestRefreshToken(t *testing.T) {
	mgr := newTestManager(time.Minute)
	user := &models.User{BaseModel: models.BaseModel{ID: uuid.New()}}

	_, refresh, err := mgr.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	access, _, err := mgr.RefreshToken(refresh)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}

	claims, err := mgr.ValidateToken(access)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("user ID = %s, want %s", claims.UserID, user.ID)
	}
}
