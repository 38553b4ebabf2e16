package bus

import (
	"context"

	"github.com/yungbote/collabhub-backend/internal/realtime"
)

// Bus relays hub messages between replicas. Every replica publishes to the
// bus and forwards what it receives into its local hub.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
