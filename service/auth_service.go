package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/internal/eth"
	"github.com/learnchain/learnchain-api/internal/metrics"
	"github.com/learnchain/learnchain-api/ports"
)

const challengeMessageFormat = "Sign this message to authenticate with LearnChain: %s"

// AuthConfig holds challenge and session lifetimes.
type AuthConfig struct {
	ChallengeTTL time.Duration
	SessionTTL   time.Duration
}

// AuthService handles wallet-based authentication: nonce issuance, signature
// verification and session management.
type AuthService struct {
	challenges ports.ChallengeStore
	sessions   ports.SessionStore
	users      ports.UserStore
	tokenizer  ports.Tokenizer
	verifier   ports.SignatureVerifier
	events     ports.EventPublisher

	challengeTTL time.Duration
	sessionTTL   time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	challenges ports.ChallengeStore,
	sessions ports.SessionStore,
	users ports.UserStore,
	tokenizer ports.Tokenizer,
	verifier ports.SignatureVerifier,
	events ports.EventPublisher,
	cfg AuthConfig,
) *AuthService {
	if cfg.ChallengeTTL == 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &AuthService{
		challenges:   challenges,
		sessions:     sessions,
		users:        users,
		tokenizer:    tokenizer,
		verifier:     verifier,
		events:       events,
		challengeTTL: cfg.ChallengeTTL,
		sessionTTL:   cfg.SessionTTL,
	}
}

// IssueChallenge generates a fresh single-use challenge for the address,
// replacing any prior unconsumed one.
func (s *AuthService) IssueChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	addr, err := eth.NormalizeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidAddress, err)
	}

	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	now := time.Now()
	challenge := &core.Challenge{
		Address:   addr,
		Nonce:     nonce,
		Message:   fmt.Sprintf(challengeMessageFormat, nonce),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}

	if err := s.challenges.PutChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	metrics.ChallengeIssued()
	return challenge, nil
}

// Login consumes the pending challenge for the address, verifies the
// signature over its message and mints a session. The user record is created
// lazily on the first successful verification for an unseen address.
func (s *AuthService) Login(ctx context.Context, address, signature string) (string, *core.User, error) {
	addr, err := eth.NormalizeAddress(address)
	if err != nil {
		// A malformed address is indistinguishable from a bad signature
		// to the caller, so address enumeration yields nothing.
		metrics.Login("failure")
		return "", nil, core.ErrAuthenticationFailed
	}

	challenge, err := s.challenges.TakeChallenge(ctx, addr)
	if err != nil {
		metrics.Login("failure")
		return "", nil, err
	}

	if err := s.verifier.Verify(addr, challenge.Message, signature); err != nil {
		metrics.Login("failure")
		return "", nil, err
	}

	user, err := s.users.FindOrCreateUser(ctx, addr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	now := time.Now()
	session := &core.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Address:   addr,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create token: %w", err)
	}

	if err := s.sessions.PutSession(ctx, session, s.sessionTTL); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	metrics.Login("success")
	return token, user, nil
}

// Authenticate validates a bearer token and returns the stored session.
// Expiry is never extended on use.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*core.Session, error) {
	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		if errors.Is(err, core.ErrSessionExpired) {
			return nil, core.ErrSessionExpired
		}
		return nil, core.ErrInvalidSession
	}

	stored, err := s.sessions.GetSession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if stored == nil {
		// Revoked, or the record expired server-side.
		return nil, core.ErrInvalidSession
	}

	return stored, nil
}

// CurrentUser returns the user record for an authenticated session.
func (s *AuthService) CurrentUser(ctx context.Context, session *core.Session) (*core.User, error) {
	user, err := s.users.GetUserByAddress(ctx, session.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, core.ErrInvalidSession
	}
	return user, nil
}

// Logout revokes the session behind the token. Idempotent: revoking an
// already-revoked, expired or unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	session, err := s.tokenizer.TokenToSession(token)
	if session == nil {
		return nil
	}
	_ = err // an expired token still gets its record deleted

	if err := s.sessions.DeleteSession(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	if err := s.events.PublishLogout(ctx, session.Address, session.ID); err != nil {
		// The session is already revoked in the store, which is the part
		// that matters.
		log.Printf("warning: failed to publish logout event: %v", err)
	}

	return nil
}
