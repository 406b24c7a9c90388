package crypto

import (
	"errors"
	"testing"
)

func TestSealer_RoundTrip(t *testing.T) {
	s := NewSealer("master-secret")
	sealed, err := s.Seal("alice", "123-45-6789")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if !IsSealed(sealed) || sealed == "123-45-6789" {
		t.Fatalf("Expected sealed value, got %q", sealed)
	}
	plain, err := s.Open("alice", sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if plain != "123-45-6789" {
		t.Errorf("Open() = %q", plain)
	}
}

func TestSealer_OtherUserCannotOpen(t *testing.T) {
	s := NewSealer("master-secret")
	sealed, _ := s.Seal("alice", "secret")
	if _, err := s.Open("bob", sealed); !errors.Is(err, ErrOpen) {
		t.Errorf("Open() for another user error = %v, want ErrOpen", err)
	}
}

func TestSealer_NonceIsFresh(t *testing.T) {
	s := NewSealer("k")
	a, _ := s.Seal("u", "v")
	b, _ := s.Seal("u", "v")
	if a == b {
		t.Error("Expected different ciphertexts for repeated Seal calls")
	}
}

func TestSealer_Passthrough(t *testing.T) {
	s := NewSealer("")
	if s.Enabled() {
		t.Fatal("Expected empty master key to disable sealing")
	}
	got, err := s.Seal("u", "plain")
	if err != nil || got != "plain" {
		t.Errorf("Seal() = (%q, %v)", got, err)
	}

	enabled := NewSealer("k")
	got, err = enabled.Open("u", "legacy plain value")
	if err != nil || got != "legacy plain value" {
		t.Errorf("Open() of unsealed value = (%q, %v)", got, err)
	}

	var nilSealer *Sealer
	if got, _ := nilSealer.Seal("u", "x"); got != "x" {
		t.Errorf("nil Sealer should pass through, got %q", got)
	}
}

func TestSealer_Corrupted(t *testing.T) {
	s := NewSealer("k")
	if _, err := s.Open("u", prefix+"!!notbase64"); !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
	if _, err := s.Open("u", prefix+"AAAA"); !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen for short payload, got %v", err)
	}
}
