package ports

import (
	"context"
	"time"

	"github.com/learnchain/learnchain-api/core"
)

// ChallengeStore issues and consumes single-use authentication nonces.
type ChallengeStore interface {
	// PutChallenge stores a challenge, overwriting any prior unconsumed
	// challenge for the same address.
	PutChallenge(ctx context.Context, challenge *core.Challenge) error

	// TakeChallenge atomically retrieves and deletes the challenge for the
	// address. Any call consumes the challenge, success or not: it returns
	// core.ErrChallengeNotFound when no challenge exists and
	// core.ErrChallengeExpired when the stored challenge is past its TTL.
	TakeChallenge(ctx context.Context, address string) (*core.Challenge, error)
}

// SessionStore persists session records keyed by session id. A missing record
// means the session was revoked or never existed.
type SessionStore interface {
	PutSession(ctx context.Context, session *core.Session, ttl time.Duration) error

	// GetSession returns (nil, nil) when no record exists.
	GetSession(ctx context.Context, id string) (*core.Session, error)

	// DeleteSession removes a session record; deleting a missing record is
	// not an error.
	DeleteSession(ctx context.Context, id string) error
}

// UserStore persists wallet-identified users.
type UserStore interface {
	// FindOrCreateUser returns the user for the address, creating it
	// atomically when the address is previously unseen.
	FindOrCreateUser(ctx context.Context, address string) (*core.User, error)

	// GetUserByAddress returns (nil, nil) when no user exists.
	GetUserByAddress(ctx context.Context, address string) (*core.User, error)
}
