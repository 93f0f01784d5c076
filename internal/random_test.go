package internal

import (
	"encoding/base64"
	"testing"
)

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	if err != nil {
		t.Fatalf("RandomToken: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(a)
	if err != nil || len(raw) != 32 {
		t.Fatalf("expected 32 decoded bytes, got %d (%v)", len(raw), err)
	}

	b, _ := RandomToken(32)
	if a == b {
		t.Fatal("two tokens must differ")
	}
}

func TestRandomTokenRejectsLowEntropy(t *testing.T) {
	if _, err := RandomToken(8); err == nil {
		t.Fatal("expected error for 8-byte token")
	}
}

func TestTokensEqual(t *testing.T) {
	if !TokensEqual("abc", "abc") {
		t.Fatal("equal tokens must match")
	}
	if TokensEqual("abc", "abd") || TokensEqual("abc", "abcd") {
		t.Fatal("different tokens must not match")
	}
	if TokensEqual("", "") {
		t.Fatal("empty tokens must not match")
	}
}
