package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardType classifies the qualifying event that produced a reward.
type RewardType string

const (
	RewardCourseCompletion RewardType = "course_completion"
	RewardQuizBonus        RewardType = "quiz_bonus"
	RewardReferral         RewardType = "referral"
)

// RewardStatus tracks the disbursement lifecycle of a reward.
type RewardStatus string

const (
	RewardPending   RewardStatus = "pending"
	RewardConfirmed RewardStatus = "confirmed"
	RewardFailed    RewardStatus = "failed"
)

// Reward is a token-amount credit granted for a qualifying event. At most one
// reward may exist per (UserID, CourseID, Type); the store enforces this, not
// callers.
type Reward struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	CourseID  string          `json:"courseId"`
	Type      RewardType      `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Status    RewardStatus    `json:"status"`
	TxHash    string          `json:"txHash,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
