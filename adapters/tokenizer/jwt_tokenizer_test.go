package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/learnchain/learnchain-api/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenizer(t *testing.T) *JWTTokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return &JWTTokenizer{signKey: key}
}

func testSession(ttl time.Duration) *core.Session {
	now := time.Now()
	return &core.Session{
		ID:        "session-1",
		UserID:    "user-1",
		Address:   "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tok := newTestTokenizer(t)
	session := testSession(time.Hour)

	token, err := tok.SessionToToken(session)
	require.NoError(t, err)

	parsed, err := tok.TokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, parsed.ID)
	assert.Equal(t, session.UserID, parsed.UserID)
	assert.Equal(t, session.Address, parsed.Address)
}

func TestExpiredTokenReturnsSession(t *testing.T) {
	tok := newTestTokenizer(t)
	session := testSession(-time.Minute)

	token, err := tok.SessionToToken(session)
	require.NoError(t, err)

	parsed, err := tok.TokenToSession(token)
	assert.ErrorIs(t, err, core.ErrSessionExpired)
	require.NotNil(t, parsed)
	assert.Equal(t, session.ID, parsed.ID)
}

func TestGarbageTokenIsInvalid(t *testing.T) {
	tok := newTestTokenizer(t)

	_, err := tok.TokenToSession("not.a.jwt")
	assert.ErrorIs(t, err, core.ErrInvalidSession)

	_, err = tok.TokenToSession("")
	assert.ErrorIs(t, err, core.ErrInvalidSession)
}

func TestTokenFromOtherKeyIsInvalid(t *testing.T) {
	tok := newTestTokenizer(t)
	other := newTestTokenizer(t)

	token, err := other.SessionToToken(testSession(time.Hour))
	require.NoError(t, err)

	_, err = tok.TokenToSession(token)
	assert.ErrorIs(t, err, core.ErrInvalidSession)
}
