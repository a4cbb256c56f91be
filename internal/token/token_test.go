package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMagicLink(t *testing.T) {
	_, err := NewMagicLink("", DefaultTTL)
	require.Error(t, err)

	ml, err := NewMagicLink("s3cret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, ml.ttl)
}

func TestMagicLink_RoundTrip(t *testing.T) {
	ml, err := NewMagicLink("s3cret", DefaultTTL)
	require.NoError(t, err)

	tok, err := ml.Create("sub-123", "sender-456")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := ml.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "sub-123", claims.SubmissionID)
	assert.Equal(t, "sender-456", claims.SenderID)

	// Expiry should be ~7 days out
	exp := claims.ExpiresAt.Time
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), exp, time.Minute)
}

func TestMagicLink_Parse_Malformed(t *testing.T) {
	ml, err := NewMagicLink("s3cret", DefaultTTL)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not a token", token: "not-base64url-%%%"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiIs"},
		{name: "wrong segment count", token: "aaaa.bbbb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, parseErr := ml.Parse(tt.token)
			assert.ErrorIs(t, parseErr, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestMagicLink_Parse_WrongSecret(t *testing.T) {
	signer, err := NewMagicLink("real-secret", DefaultTTL)
	require.NoError(t, err)
	forger, err := NewMagicLink("guessed-secret", DefaultTTL)
	require.NoError(t, err)

	tok, err := forger.Create("sub-123", "sender-456")
	require.NoError(t, err)

	_, err = signer.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMagicLink_Parse_MissingFields(t *testing.T) {
	ml, err := NewMagicLink("s3cret", DefaultTTL)
	require.NoError(t, err)

	tok, err := ml.Create("", "sender-456")
	require.NoError(t, err)
	_, err = ml.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tok, err = ml.Create("sub-123", "")
	require.NoError(t, err)
	_, err = ml.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMagicLink_Parse_Expired(t *testing.T) {
	ml, err := NewMagicLink("s3cret", time.Nanosecond)
	require.NoError(t, err)

	tok, err := ml.Create("sub-123", "sender-456")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = ml.Parse(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestLinkURLs(t *testing.T) {
	assert.Equal(t,
		"https://app.example.com/employer/candidates?token=abc",
		CandidatesURL("https://app.example.com", "abc"),
	)
	assert.Equal(t,
		"https://app.example.com/employer/setup?token=abc",
		SetupURL("https://app.example.com", "abc"),
	)
}
