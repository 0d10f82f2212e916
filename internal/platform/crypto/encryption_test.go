package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := New(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("new error: %v", err)
	}
	sealed, err := svc.EncryptString("backend-bearer")
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	if bytes.Contains(sealed, []byte("backend-bearer")) {
		t.Fatal("expected ciphertext to hide the token")
	}
	plain, err := svc.DecryptString(sealed)
	if err != nil || plain != "backend-bearer" {
		t.Fatalf("expected round trip, got %q (%v)", plain, err)
	}
	if _, err := svc.Decrypt([]byte("short")); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
}

func TestNewRejectsWrongKeyLength(t *testing.T) {
	if _, err := New("too-short"); err == nil {
		t.Fatal("expected key length error")
	}
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new error: %v", err)
	}
	if svc.Configured() {
		t.Fatal("expected unconfigured service")
	}
	out, _ := svc.EncryptString("plain")
	if string(out) != "plain" {
		t.Fatalf("expected pass-through, got %q", out)
	}
}

func TestDerivedKeysAreStableAndScoped(t *testing.T) {
	a, err := NewWithFallback("", "jwt-secret")
	if err != nil || !a.Configured() {
		t.Fatalf("expected derived key, got %v", err)
	}
	b, _ := Derive("jwt-secret", sessionTokenInfo)
	other, _ := Derive("jwt-secret", "another-purpose")

	sealed, _ := a.EncryptString("token")
	if plain, err := b.DecryptString(sealed); err != nil || plain != "token" {
		t.Fatalf("expected same derivation to decrypt, got %q (%v)", plain, err)
	}
	if _, err := other.DecryptString(sealed); err == nil {
		t.Fatal("expected differently scoped key to fail")
	}
}
