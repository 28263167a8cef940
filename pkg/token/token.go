package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind scopes a token to the endpoint that may consume it.
type Kind string

const (
	KindOpen        Kind = "open"
	KindClick       Kind = "click"
	KindUnsubscribe Kind = "unsubscribe"
)

// Claims is the signed payload embedded in tracking links and pixels.
type Claims struct {
	Kind   Kind   `json:"knd"`
	Email  string `json:"eml,omitempty"`
	JobID  string `json:"jid,omitempty"`
	LeadID string `json:"lid,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HMAC-signed tracking tokens. Tokens are HS256
// JWTs; anything without a valid signature is rejected at parse time.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	return &Signer{secret: []byte(secret), ttl: ttl}, nil
}

// Sign produces a compact token for the given claims.
func (s *Signer) Sign(claims Claims) (string, error) {
	if claims.Kind == "" {
		return "", fmt.Errorf("token kind is required")
	}
	now := time.Now().UTC()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies the signature and expiry and returns the embedded claims.
// The expected kind must match; a click token cannot unsubscribe someone.
func (s *Signer) Parse(raw string, expected Kind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if claims.Kind != expected {
		return nil, fmt.Errorf("token kind %q not valid here", claims.Kind)
	}
	return claims, nil
}
