// Package crypto seals fact values with a per-user AES-256-GCM key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	prefix = "aes-gcm:"
	salt   = "recall/v1"
)

// ErrOpen is returned when a sealed value cannot be authenticated for the user.
var ErrOpen = errors.New("decrypt failed: invalid key or corrupted data")

// Sealer encrypts values for one user at a time. The zero master key makes every
// operation a passthrough.
type Sealer struct {
	master []byte
}

// NewSealer returns a Sealer derived from masterKey.
func NewSealer(masterKey string) *Sealer {
	return &Sealer{master: []byte(masterKey)}
}

// Enabled reports whether values are actually encrypted.
func (s *Sealer) Enabled() bool {
	return s != nil && len(s.master) > 0
}

// Seal returns "aes-gcm:" + base64(nonce + ciphertext + tag). The user id is
// bound as additional data, so a value sealed for one user never opens for another.
func (s *Sealer) Seal(user, plaintext string) (string, error) {
	if !s.Enabled() || plaintext == "" {
		return plaintext, nil
	}
	gcm, err := s.aead(user)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), []byte(user))
	return prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without the prefix are returned as they are.
func (s *Sealer) Open(user, value string) (string, error) {
	if !s.Enabled() || !IsSealed(value) {
		return value, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", ErrOpen
	}
	gcm, err := s.aead(user)
	if err != nil {
		return "", err
	}
	n := gcm.NonceSize()
	if len(data) < n {
		return "", ErrOpen
	}
	plain, err := gcm.Open(nil, data[:n], data[n:], []byte(user))
	if err != nil {
		return "", ErrOpen
	}
	return string(plain), nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, prefix)
}

func (s *Sealer) aead(user string) (cipher.AEAD, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.master, []byte(salt), []byte(user)), key); err != nil {
		return nil, fmt.Errorf("failed to derive user key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
