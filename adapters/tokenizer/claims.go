package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with session-specific ones. The jti
// is the session id; the subject is the wallet address.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}
