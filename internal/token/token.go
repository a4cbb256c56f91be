// Package token implements the magic-link capability granting an employer
// access to one job submission's applicant view without a full login.
//
// Tokens are HMAC-signed (HS256) with a server-held secret and carry an
// expiry that is checked during parsing. An earlier iteration of this scheme
// used unsigned base64 JSON; any field read from a token here has already
// been verified against the signature.
package token

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the magic-link lifetime when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidToken is returned for malformed, unsigned, tampered, or
	// incomplete tokens.
	ErrInvalidToken = errors.New("invalid magic link token")

	// ErrExpiredToken is returned when the token signature verifies but the
	// expiry has passed.
	ErrExpiredToken = errors.New("magic link token expired")
)

// Claims is the verified payload of a magic-link token.
type Claims struct {
	SubmissionID string `json:"submission_id"`
	SenderID     string `json:"sender_id"`
	jwt.RegisteredClaims
}

// MagicLink creates and verifies magic-link tokens.
type MagicLink struct {
	secret []byte
	ttl    time.Duration
}

// NewMagicLink builds a MagicLink signer. The secret is required; ttl <= 0
// falls back to DefaultTTL.
func NewMagicLink(secret string, ttl time.Duration) (*MagicLink, error) {
	if secret == "" {
		return nil, fmt.Errorf("magic link secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MagicLink{secret: []byte(secret), ttl: ttl}, nil
}

// Create issues a token scoped to one submission, sent to one recipient.
func (m *MagicLink) Create(submissionID, senderID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SubmissionID: submissionID,
		SenderID:     senderID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign magic link token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry in one call and returns the claims.
// Missing submission or sender ids are rejected even when the signature is
// valid.
func (m *MagicLink) Parse(tokenStr string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !parsed.Valid || claims.SubmissionID == "" || claims.SenderID == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

// CandidatesURL builds the employer applicant-view link for a token.
func CandidatesURL(baseURL, tokenStr string) string {
	return fmt.Sprintf("%s/employer/candidates?token=%s", baseURL, url.QueryEscape(tokenStr))
}

// SetupURL builds the employer account-setup link for a token.
func SetupURL(baseURL, tokenStr string) string {
	return fmt.Sprintf("%s/employer/setup?token=%s", baseURL, url.QueryEscape(tokenStr))
}
