package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/learnchain/learnchain-api/adapters/store"
	"github.com/learnchain/learnchain-api/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewardLedger_GrantIsIdempotent(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger := NewRewardLedger(mem, &stubDisburser{txHash: "0xabc"}, nopEvents{})
	ctx := context.Background()
	amount := decimal.NewFromInt(100)

	first, err := ledger.GrantCourseCompletion(ctx, "user-1", "course-1", amount)
	require.NoError(t, err)
	second, err := ledger.GrantCourseCompletion(ctx, "user-1", "course-1", amount)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	rewards, err := ledger.ListRewards(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, rewards, 1)
}

func TestRewardLedger_TypesAreIndependent(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger := NewRewardLedger(mem, &stubDisburser{txHash: "0xabc"}, nopEvents{})
	ctx := context.Background()

	_, err := ledger.GrantCourseCompletion(ctx, "user-1", "course-1", decimal.NewFromInt(100))
	require.NoError(t, err)
	bonus, err := ledger.GrantQuizBonus(ctx, "user-1", "course-1", decimal.NewFromInt(25))
	require.NoError(t, err)
	assert.Equal(t, core.RewardQuizBonus, bonus.Type)

	rewards, err := ledger.ListRewards(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, rewards, 2)
}

func TestRewardLedger_ConcurrentGrantsProduceOneReward(t *testing.T) {
	mem := store.NewMemoryStore()
	disburser := &stubDisburser{txHash: "0xabc"}
	ledger := NewRewardLedger(mem, disburser, nopEvents{})
	ctx := context.Background()
	amount := decimal.NewFromInt(100)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := ledger.GrantCourseCompletion(ctx, "user-1", "course-1", amount)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rewards, err := ledger.ListRewards(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rewards, 1)

	// Exactly the winning grant triggers disbursement.
	require.Eventually(t, func() bool {
		return disburser.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRewardLedger_DisbursementConfirms(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger := NewRewardLedger(mem, &stubDisburser{txHash: "0xfeed"}, nopEvents{})
	ctx := context.Background()

	granted, err := ledger.GrantCourseCompletion(ctx, "user-1", "course-1", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, core.RewardPending, granted.Status)
	assert.Empty(t, granted.TxHash)

	require.Eventually(t, func() bool {
		rewards, err := ledger.ListRewards(ctx, "user-1")
		require.NoError(t, err)
		return len(rewards) == 1 && rewards[0].Status == core.RewardConfirmed
	}, time.Second, 10*time.Millisecond)

	rewards, err := ledger.ListRewards(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", rewards[0].TxHash)
}

func TestRewardLedger_DisbursementFailureMarksFailed(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger := NewRewardLedger(mem, &stubDisburser{err: errors.New("treasury unavailable")}, nopEvents{})
	ctx := context.Background()

	granted, err := ledger.GrantCourseCompletion(ctx, "user-1", "course-1", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, core.RewardPending, granted.Status)

	require.Eventually(t, func() bool {
		rewards, err := ledger.ListRewards(ctx, "user-1")
		require.NoError(t, err)
		return len(rewards) == 1 && rewards[0].Status == core.RewardFailed
	}, time.Second, 10*time.Millisecond)

	rewards, err := ledger.ListRewards(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, rewards[0].TxHash)
}
