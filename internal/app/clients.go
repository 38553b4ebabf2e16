package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
	"github.com/yungbote/collabhub-backend/internal/realtime/bus"
	"github.com/yungbote/collabhub-backend/internal/services"
)

type Clients struct {
	Hub     *realtime.SSEHub
	Bus     bus.Bus
	Emitter services.SSEEmitter

	redisEmitter *services.RedisEmitter
}

// wireClients builds the realtime path. With REDIS_ADDR set, services publish
// to redis and every replica forwards the channel into its own hub; otherwise
// services broadcast straight into the local hub.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	hub := realtime.NewSSEHub(log, cfg.RealtimeBuffer)

	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return Clients{Hub: hub, Emitter: &services.HubEmitter{Hub: hub}}, nil
	}

	b, err := bus.NewRedisBus(log, cfg.RedisAddr, cfg.RedisChannel)
	if err != nil {
		hub.Close()
		return Clients{}, fmt.Errorf("init redis realtime bus: %w", err)
	}
	if err := b.StartForwarder(ctx, hub.Broadcast); err != nil {
		_ = b.Close()
		hub.Close()
		return Clients{}, fmt.Errorf("start redis forwarder: %w", err)
	}
	emitter := services.NewRedisEmitter(log, b, cfg.RealtimeBuffer*4)
	return Clients{Hub: hub, Bus: b, Emitter: emitter, redisEmitter: emitter}, nil
}

// Close flushes queued publishes before the bus and hub go away.
func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.redisEmitter != nil {
		c.redisEmitter.Close()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Hub != nil {
		c.Hub.Close()
	}
}
