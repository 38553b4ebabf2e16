package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

// SSEClient is one open stream. Channels is guarded by the hub's lock and
// Outbound is closed exactly once by Hub.CloseClient.
type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	once     sync.Once
	Logger   *logger.Logger
}

// Done is closed when the hub drops the client.
func (c *SSEClient) Done() <-chan struct{} { return c.done }
