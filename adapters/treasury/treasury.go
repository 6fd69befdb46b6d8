// Package treasury adapts the external reward-disbursement collaborator.
package treasury

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/ports"
)

// SimulatedTreasury stands in for the external payout service. It accepts any
// reward and returns an opaque transaction hash after a configurable delay.
// The real collaborator is expected to expose the same Disburse contract.
type SimulatedTreasury struct {
	delay time.Duration
}

// NewSimulatedTreasury creates a simulated disbursement collaborator.
func NewSimulatedTreasury(delay time.Duration) ports.Disburser {
	return &SimulatedTreasury{delay: delay}
}

// Disburse returns a pseudo transaction hash, honoring context cancellation.
func (t *SimulatedTreasury) Disburse(ctx context.Context, reward *core.Reward) (string, error) {
	if t.delay > 0 {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("disbursement cancelled: %w", ctx.Err())
		case <-time.After(t.delay):
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate tx hash: %w", err)
	}

	return "0x" + hex.EncodeToString(buf), nil
}
