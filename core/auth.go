package core

import "time"

// Challenge is a single-use authentication nonce issued for a wallet address.
// Only the latest challenge per address is valid; it is destroyed on the first
// consumption attempt or on expiry.
type Challenge struct {
	Address   string    // Normalized wallet address the challenge was issued for
	Nonce     string    // Random nonce embedded in the message
	Message   string    // Human-readable message the wallet must sign
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
}

// Expired reports whether the challenge is past its expiry at the given time.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Session represents an authenticated user session. Sessions are
// fixed-duration: expiry is never extended on use, so a leaked token has a
// bounded lifetime.
type Session struct {
	ID        string    // Unique session identifier, carried as the token jti
	UserID    string    // ID of the authenticated user
	Address   string    // Normalized wallet address of the user
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the session expires
}

// User is a wallet-identified account, created lazily on the first
// successful signature verification for a previously-unseen address.
type User struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}
