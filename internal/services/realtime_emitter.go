package services

import (
	"context"
	"sync"

	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
	"github.com/yungbote/collabhub-backend/internal/realtime/bus"
)

// SSEEmitter hands a message to the realtime layer. Emit never blocks on
// delivery and never reports failure to the caller.
type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

// HubEmitter broadcasts straight into the in-process hub.
type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Broadcast(msg)
}

// RedisEmitter publishes through the bus from a single dispatcher goroutine,
// so messages leave this process in Emit order. When the queue is full the
// message is dropped.
type RedisEmitter struct {
	bus   bus.Bus
	log   *logger.Logger
	queue chan realtime.SSEMessage
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewRedisEmitter(log *logger.Logger, b bus.Bus, queueSize int) *RedisEmitter {
	if queueSize <= 0 {
		queueSize = 256
	}
	e := &RedisEmitter{
		bus:   b,
		log:   log.With("service", "RedisEmitter"),
		queue: make(chan realtime.SSEMessage, queueSize),
		done:  make(chan struct{}),
	}
	go e.dispatch()
	return e
}

func (e *RedisEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	select {
	case e.queue <- msg:
	default:
		e.log.Warn("Dropping realtime message; publish queue full", "channel", msg.Channel, "event", msg.Event)
	}
}

func (e *RedisEmitter) dispatch() {
	defer close(e.done)
	for msg := range e.queue {
		if err := e.bus.Publish(context.Background(), msg); err != nil {
			e.log.Warn("Realtime publish failed", "error", err, "channel", msg.Channel, "event", msg.Event)
		}
	}
}

// Close drains queued messages and stops the dispatcher.
func (e *RedisEmitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()
	<-e.done
}
