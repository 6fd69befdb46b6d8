package ports

import "github.com/learnchain/learnchain-api/core"

// Tokenizer converts between sessions and bearer tokens.
type Tokenizer interface {
	SessionToToken(session *core.Session) (string, error)

	// TokenToSession parses and validates a token. On core.ErrSessionExpired
	// the parsed session is still returned alongside the error so callers can
	// revoke expired sessions.
	TokenToSession(token string) (*core.Session, error)
}
