package service

import (
	"context"
	"crypto/ecdsa"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/internal/eth"
	"github.com/stretchr/testify/require"
)

// nopEvents drops every event. Service tests care about store state, not
// about the bus.
type nopEvents struct{}

func (nopEvents) PublishLogout(context.Context, string, string) error      { return nil }
func (nopEvents) PublishRewardGranted(context.Context, *core.Reward) error { return nil }
func (nopEvents) PublishCertificateIssued(context.Context, *core.Certificate) error {
	return nil
}

// stubDisburser resolves instantly with a fixed outcome and counts calls.
type stubDisburser struct {
	txHash string
	err    error
	calls  atomic.Int64
}

func (d *stubDisburser) Disburse(_ context.Context, _ *core.Reward) (string, error) {
	d.calls.Add(1)
	return d.txHash, d.err
}

func signMessage(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(eth.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[64] += 27 // wallet-style recovery id
	return hexutil.Encode(sig)
}
