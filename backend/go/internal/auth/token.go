// Package auth issues and verifies the HS256 tokens that carry a user id.
package auth

import (
	"Recall_1.0/backend/go/internal/apperr"
	"Recall_1.0/backend/go/internal/config"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// ClaimUserID is the claim holding the user id.
const ClaimUserID = "user_id"

// Tokens signs and verifies user tokens with one shared secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates Tokens. An empty secret falls back to the default one and a
// non-positive ttl to one hour.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if secret == "" {
		secret = config.DefaultJWTSecret
	}
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL * time.Second
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// FromConfig builds Tokens from the auth section.
func FromConfig(cfg config.AuthConfig) *Tokens {
	return NewTokens(cfg.JwtSecret, time.Duration(cfg.TokenTTL)*time.Second)
}

// GenerateToken returns a token for userID that expires after the ttl.
func (t *Tokens) GenerateToken(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", apperr.Validation("Missing user")
	}
	claims := jwt.MapClaims{
		ClaimUserID: userID,
		"exp":       t.now().Add(t.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, algorithm and expiry and returns the user id.
func (t *Tokens) VerifyToken(token string) (string, error) {
	if token == "" {
		return "", apperr.Unauthorized("Missing token")
	}
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	parsed, err := parser.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", apperr.Unauthorized("Invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperr.Unauthorized("Invalid token")
	}
	// Claims are checked here rather than by the parser so a missing exp is rejected.
	if !claims.VerifyExpiresAt(t.now().Unix(), true) {
		return "", apperr.Unauthorized("Token expired")
	}
	userID, _ := claims[ClaimUserID].(string)
	if userID == "" {
		return "", apperr.Unauthorized("Invalid token")
	}
	return userID, nil
}
