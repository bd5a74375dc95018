package auth_test

import (
	"testing"
	"time"

	"conmart/internal/auth"
)

func TestGenerateAndValidateToken(t *testing.T) {
	tok, err := auth.GenerateToken("secret", "u-1", "user", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := auth.ValidateToken("secret", tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected a JTI")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	tok, err := auth.GenerateToken("secret", "u-1", "user", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.ValidateToken("other", tok); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	tok, err := auth.GenerateToken("secret", "u-1", "user", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.ValidateToken("secret", tok); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestFromHeader(t *testing.T) {
	if tok, ok := auth.FromHeader("Token abc"); !ok || tok != "abc" {
		t.Fatalf("Token scheme: got %q %v", tok, ok)
	}
	if tok, ok := auth.FromHeader("Bearer xyz"); !ok || tok != "xyz" {
		t.Fatalf("Bearer scheme: got %q %v", tok, ok)
	}
	if _, ok := auth.FromHeader("Basic Zm9v"); ok {
		t.Fatal("Basic scheme should not be accepted")
	}
	if _, ok := auth.FromHeader(""); ok {
		t.Fatal("empty header should not be accepted")
	}
}
