package core

import "errors"

var (
	// ErrChallengeNotFound is returned when no unconsumed challenge exists
	// for the address, including when a challenge was already consumed.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrChallengeExpired is returned when the stored challenge is past its TTL.
	ErrChallengeExpired = errors.New("challenge has expired")

	// ErrAuthenticationFailed is returned when signature verification fails.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidAddress is returned when a wallet address is malformed.
	ErrInvalidAddress = errors.New("invalid wallet address")

	// ErrInvalidSession is returned when a session token is malformed,
	// unknown or revoked.
	ErrInvalidSession = errors.New("invalid session")

	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("session has expired")

	// ErrIncompleteSubmission is returned when a quiz submission omits an
	// answer for one or more question ids.
	ErrIncompleteSubmission = errors.New("incomplete submission")

	// ErrQuizNotFound is returned when the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")

	// ErrDisbursementFailed is returned when the external disbursement
	// collaborator reports an error for a granted reward.
	ErrDisbursementFailed = errors.New("disbursement failed")

	// ErrCodeConflict is returned by certificate stores when a verification
	// code is already reserved by another certificate.
	ErrCodeConflict = errors.New("verification code already in use")
)
