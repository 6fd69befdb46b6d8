package ports

import (
	"context"

	"github.com/learnchain/learnchain-api/core"
)

// EventPublisher notifies other instances and downstream consumers.
type EventPublisher interface {
	PublishLogout(ctx context.Context, address, sessionID string) error
	PublishRewardGranted(ctx context.Context, reward *core.Reward) error
	PublishCertificateIssued(ctx context.Context, cert *core.Certificate) error
}
