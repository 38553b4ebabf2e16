package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/collabhub-backend/internal/data/repos/testutil"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

type recordingBus struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
	gate chan struct{}
}

func (b *recordingBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b.gate != nil {
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *recordingBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	return nil
}

func (b *recordingBus) Close() error { return nil }

func TestRedisEmitterPreservesOrderAndDrainsOnClose(t *testing.T) {
	b := &recordingBus{}
	e := NewRedisEmitter(testutil.Logger(t), b, 64)
	projectID := uuid.New()

	for i := 0; i < 20; i++ {
		e.Emit(context.Background(), realtime.ProjectMessage(projectID, realtime.TaskDeleted{TaskID: uuid.New(), ProjectID: projectID}))
	}
	e.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.msgs) != 20 {
		t.Fatalf("published: want=20 got=%d", len(b.msgs))
	}
	e.Emit(context.Background(), realtime.SSEMessage{Channel: "late"})
}

func TestRedisEmitterDropsWhenQueueFull(t *testing.T) {
	b := &recordingBus{gate: make(chan struct{})}
	e := NewRedisEmitter(testutil.Logger(t), b, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			e.Emit(context.Background(), realtime.SSEMessage{Channel: "project:x", Event: realtime.SSEEventTaskCreated})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Emit blocked on a full queue")
	}
	close(b.gate)
	e.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.msgs) >= 10 || len(b.msgs) == 0 {
		t.Fatalf("expected some messages dropped, published %d", len(b.msgs))
	}
}

func TestHubEmitterBroadcastsToRoom(t *testing.T) {
	hub := realtime.NewSSEHub(testutil.Logger(t), 8)
	defer hub.Close()
	e := &HubEmitter{Hub: hub}
	projectID := uuid.New()
	c := hub.NewSSEClient(uuid.New())
	hub.AddChannel(c, realtime.ProjectChannel(projectID))

	e.Emit(context.Background(), realtime.ProjectMessage(projectID, realtime.ProjectDeleted{ProjectID: projectID}))
	select {
	case msg := <-c.Outbound:
		if msg.Event != realtime.SSEEventProjectDeleted {
			t.Fatalf("event: got %q", msg.Event)
		}
	case <-time.After(time.Second):
		t.Fatalf("no message delivered")
	}
}
