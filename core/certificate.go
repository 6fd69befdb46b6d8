package core

import "time"

// Certificate is a verifiable record of course completion. At most one exists
// per (UserID, CourseID). The verification code is globally unique, public and
// short enough for manual entry.
type Certificate struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	CourseID         string    `json:"courseId"`
	VerificationCode string    `json:"verificationCode"`
	TxHash           string    `json:"txHash,omitempty"`
	IssuedAt         time.Time `json:"issuedAt"`
}
