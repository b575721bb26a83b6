package token

import (
	"testing"
	"time"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("secret", 1)

	tok, err := m.Generate(42, "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if time.Until(claims.ExpiresAt.Time) <= 0 {
		t.Fatal("expected a future expiry")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := NewJWTManager("secret-a", 1).Generate(1, "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := NewJWTManager("secret-b", 1).Verify(tok); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewJWTManager("secret", 1)
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Verify(tok); err == nil {
			t.Errorf("Verify(%q) should fail", tok)
		}
	}
}
