package auth

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestSealOpen(t *testing.T) {
	s, err := NewSealer(bytes.Repeat([]byte{7}, KeySize))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	sealed, err := s.Seal("bearer-token")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if sealed == "bearer-token" {
		t.Fatal("sealed value must not equal plaintext")
	}

	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != "bearer-token" {
		t.Errorf("expected round trip, got %q", got)
	}
}

func TestOpenRejectsForeignKeyAndTampering(t *testing.T) {
	a, _ := NewSealer(bytes.Repeat([]byte{1}, KeySize))
	b, _ := NewSealer(bytes.Repeat([]byte{2}, KeySize))

	sealed, _ := a.Seal("secret")
	if _, err := b.Open(sealed); err == nil {
		t.Error("expected failure with a different key")
	}

	raw, _ := base64.RawURLEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	if _, err := a.Open(base64.RawURLEncoding.EncodeToString(raw)); err == nil {
		t.Error("expected failure for tampered value")
	}

	if _, err := a.Open("short"); err == nil {
		t.Error("expected failure for short value")
	}
}

func TestNewSealerKeyLength(t *testing.T) {
	if _, err := NewSealer([]byte("too short")); err == nil {
		t.Error("expected error for short key")
	}
}
