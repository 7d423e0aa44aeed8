package auth

import (
	"testing"
	"time"

	"github.com/erazemk/cautelas/internal/model"
)

func testUser() *model.User {
	return &model.User{ID: 1, Email: "admin@example.com", Name: "Admin", Role: model.RoleSuperAdmin}
}

func TestGenerateAndValidateToken(t *testing.T) {
	issuer := Issuer{Secret: "test-secret-key"}

	token, err := issuer.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("expected email 'admin@example.com', got %q", claims.Email)
	}
	if claims.Role != model.RoleSuperAdmin {
		t.Errorf("expected role SUPER_ADMIN, got %q", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}
}

func TestTokensHaveUniqueJTI(t *testing.T) {
	issuer := Issuer{Secret: "s"}
	a, _ := issuer.Generate(testUser())
	b, _ := issuer.Generate(testUser())
	ca, _ := issuer.Validate(a)
	cb, _ := issuer.Validate(b)
	if ca.ID == cb.ID {
		t.Errorf("expected distinct JTIs, both %q", ca.ID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := Issuer{Secret: "secret1"}.Generate(testUser())

	_, err := Issuer{Secret: "secret2"}.Validate(token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := Issuer{Secret: "secret"}.Validate("not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	issuer := Issuer{Secret: "test", TTL: 2 * time.Hour}
	token, _ := issuer.Generate(testUser())
	claims, _ := issuer.Validate(token)

	diff := time.Now().Add(2 * time.Hour).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := Issuer{Secret: "test", TTL: time.Nanosecond}
	token, _ := issuer.Generate(testUser())
	time.Sleep(1100 * time.Millisecond)
	if _, err := issuer.Validate(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword(16)
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	if len(a) != 16 {
		t.Errorf("expected 16 characters, got %d", len(a))
	}
	b, _ := GeneratePassword(16)
	if a == b {
		t.Error("expected two generated passwords to differ")
	}
}
