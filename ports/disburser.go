package ports

import (
	"context"

	"github.com/learnchain/learnchain-api/core"
)

// Disburser is the external collaborator that pays out a granted reward and
// returns an opaque transaction hash. It is invoked off the request path;
// its outcome is reported back into the reward's status, never into the
// grading response.
type Disburser interface {
	Disburse(ctx context.Context, reward *core.Reward) (txHash string, err error)
}
