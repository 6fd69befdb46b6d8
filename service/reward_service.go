package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/internal/metrics"
	"github.com/learnchain/learnchain-api/ports"
	"github.com/shopspring/decimal"
)

// RewardLedger grants token rewards at most once per (user, course, type).
// Idempotency rides on the store's atomic insert, not on a prior read, so two
// simultaneous passing submissions can never produce two rewards.
type RewardLedger struct {
	rewards   ports.RewardStore
	disburser ports.Disburser
	events    ports.EventPublisher

	disburseTimeout time.Duration
}

// NewRewardLedger creates a new reward ledger.
func NewRewardLedger(rewards ports.RewardStore, disburser ports.Disburser, events ports.EventPublisher) *RewardLedger {
	return &RewardLedger{
		rewards:         rewards,
		disburser:       disburser,
		events:          events,
		disburseTimeout: 30 * time.Second,
	}
}

// GrantCourseCompletion grants the completion reward for (userID, courseID),
// returning the existing reward unchanged when one was already granted.
func (l *RewardLedger) GrantCourseCompletion(ctx context.Context, userID, courseID string, amount decimal.Decimal) (*core.Reward, error) {
	return l.grant(ctx, userID, courseID, core.RewardCourseCompletion, amount)
}

// GrantQuizBonus grants a bonus reward for (userID, courseID). Whether the
// bonus criteria are met is the caller's decision.
func (l *RewardLedger) GrantQuizBonus(ctx context.Context, userID, courseID string, amount decimal.Decimal) (*core.Reward, error) {
	return l.grant(ctx, userID, courseID, core.RewardQuizBonus, amount)
}

func (l *RewardLedger) grant(ctx context.Context, userID, courseID string, typ core.RewardType, amount decimal.Decimal) (*core.Reward, error) {
	reward := &core.Reward{
		ID:        uuid.New().String(),
		UserID:    userID,
		CourseID:  courseID,
		Type:      typ,
		Amount:    amount,
		Status:    core.RewardPending,
		CreatedAt: time.Now(),
	}

	stored, created, err := l.rewards.CreateRewardIfAbsent(ctx, reward)
	if err != nil {
		return nil, fmt.Errorf("failed to grant reward: %w", err)
	}
	if !created {
		return stored, nil
	}

	metrics.RewardGranted(string(typ))

	if err := l.events.PublishRewardGranted(ctx, stored); err != nil {
		log.Printf("warning: failed to publish reward event: %v", err)
	}

	// Disbursement happens off the request path; its outcome lands in the
	// reward's status, never in the grading response.
	disbursed := *stored
	go l.disburse(&disbursed)

	return stored, nil
}

func (l *RewardLedger) disburse(reward *core.Reward) {
	ctx, cancel := context.WithTimeout(context.Background(), l.disburseTimeout)
	defer cancel()

	txHash, err := l.disburser.Disburse(ctx, reward)
	if err != nil {
		log.Printf("reward %s: %v: %v", reward.ID, core.ErrDisbursementFailed, err)
		reward.Status = core.RewardFailed
	} else {
		reward.Status = core.RewardConfirmed
		reward.TxHash = txHash
	}

	updateCtx, cancelUpdate := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelUpdate()

	if err := l.rewards.UpdateRewardStatus(updateCtx, reward); err != nil {
		log.Printf("reward %s: failed to record disbursement outcome: %v", reward.ID, err)
	}
}

// ListRewards returns the user's rewards.
func (l *RewardLedger) ListRewards(ctx context.Context, userID string) ([]core.Reward, error) {
	return l.rewards.ListRewardsByUser(ctx, userID)
}
