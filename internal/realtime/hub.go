package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

const (
	defaultOutboundBuffer = 64
	heartbeatInterval     = 15 * time.Second
)

// SSEHub routes messages to the clients joined to a channel. It keeps no
// backlog: a message reaches only the clients subscribed when it is
// broadcast.
type SSEHub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	bufferSize    int
	clients       map[uuid.UUID]*SSEClient
	subscriptions map[string]map[*SSEClient]bool
}

func NewSSEHub(log *logger.Logger, bufferSize int) *SSEHub {
	if bufferSize <= 0 {
		bufferSize = defaultOutboundBuffer
	}
	return &SSEHub{
		logger:        log.With("component", "SSEHub"),
		bufferSize:    bufferSize,
		clients:       make(map[uuid.UUID]*SSEClient),
		subscriptions: make(map[string]map[*SSEClient]bool),
	}
}

func (hub *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
	id := uuid.New()
	c := &SSEClient{
		ID:       id,
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan SSEMessage, hub.bufferSize),
		done:     make(chan struct{}),
		Logger:   hub.logger.With("clientID", id),
	}
	hub.mu.Lock()
	hub.clients[id] = c
	hub.mu.Unlock()
	return c
}

// Client looks up an open connection by id.
func (hub *SSEHub) Client(id uuid.UUID) (*SSEClient, bool) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	c, ok := hub.clients[id]
	return c, ok
}

// AddChannel subscribes client to channel. Joining twice is a no-op.
func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" || client == nil {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if _, open := hub.clients[client.ID]; !open {
		return
	}
	client.Channels[channel] = true
	subs, exists := hub.subscriptions[channel]
	if !exists {
		subs = make(map[*SSEClient]bool)
		hub.subscriptions[channel] = subs
	}
	subs[client] = true

	hub.logger.Debug("SSE client subscribed", "clientID", client.ID, "channel", channel)
}

// RemoveChannel unsubscribes client from channel. Leaving a channel the
// client never joined is a no-op.
func (hub *SSEHub) RemoveChannel(client *SSEClient, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" || client == nil {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()

	delete(client.Channels, channel)
	hub.dropSubscription(client, channel)
	hub.logger.Debug("SSE client unsubscribed from channel", "clientID", client.ID, "channel", channel)
}

func (hub *SSEHub) dropSubscription(client *SSEClient, channel string) {
	if subs, ok := hub.subscriptions[channel]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(hub.subscriptions, channel)
		}
	}
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for ch := range client.Channels {
		hub.dropSubscription(client, ch)
	}
	client.Channels = make(map[string]bool)
	delete(hub.clients, client.ID)
	hub.logger.Debug("SSE client unsubscribed from all channels", "clientID", client.ID)
}

// Subscribers reports how many clients are joined to channel.
func (hub *SSEHub) Subscribers(channel string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscriptions[channel])
}

// Broadcast hands msg to every subscriber without blocking. A subscriber
// whose buffer is full misses the message. MemberRemoved evicts the removed
// user's connections from the room and ProjectDeleted empties it, both after
// delivery.
func (hub *SSEHub) Broadcast(msg SSEMessage) {
	if msg.Channel == "" {
		return
	}
	hub.deliver(msg)

	switch msg.Event {
	case SSEEventMemberRemoved:
		if userID, ok := removedUser(msg.Data); ok {
			hub.EvictUser(userID, msg.Channel)
		}
	case SSEEventProjectDeleted:
		hub.ClearChannel(msg.Channel)
	}
}

func (hub *SSEHub) deliver(msg SSEMessage) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for c := range hub.subscriptions[msg.Channel] {
		select {
		case c.Outbound <- msg:
		default:
			hub.logger.Warn("Dropping SSE message; outbound buffer full", "clientID", c.ID, "channel", msg.Channel, "event", msg.Event)
		}
	}
}

// EvictUser unsubscribes every connection of userID from channel and reports
// how many were dropped.
func (hub *SSEHub) EvictUser(userID uuid.UUID, channel string) int {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	n := 0
	for c := range hub.subscriptions[channel] {
		if c.UserID != userID {
			continue
		}
		delete(c.Channels, channel)
		hub.dropSubscription(c, channel)
		n++
	}
	if n > 0 {
		hub.logger.Debug("Evicted user from channel", "userID", userID, "channel", channel, "connections", n)
	}
	return n
}

// ClearChannel unsubscribes every connection from channel.
func (hub *SSEHub) ClearChannel(channel string) int {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	subs := hub.subscriptions[channel]
	for c := range subs {
		delete(c.Channels, channel)
	}
	delete(hub.subscriptions, channel)
	return len(subs)
}

// Send delivers msg to a single client, bypassing channels.
func (hub *SSEHub) Send(client *SSEClient, msg SSEMessage) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if _, open := hub.clients[client.ID]; !open {
		return
	}
	select {
	case client.Outbound <- msg:
	default:
		hub.logger.Warn("Dropping direct SSE message; outbound buffer full", "clientID", client.ID)
	}
}

func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.logger.Debug("SSE client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, open := <-client.Outbound:
			if !open {
				return
			}
			raw, err := json.Marshal(msg)
			if err != nil {
				hub.logger.Warn("Failed to marshal SSE message", "error", err, "event", msg.Event)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: message\ndata: %s\n\n", raw)
			flusher.Flush()
		}
	}
}

// CloseClient detaches client from every room and closes its channels. It
// is safe to call more than once.
func (hub *SSEHub) CloseClient(client *SSEClient) {
	client.once.Do(func() {
		close(client.done)
		hub.RemoveClient(client)
		close(client.Outbound)
	})
}

// Close drops every client.
func (hub *SSEHub) Close() {
	hub.mu.RLock()
	all := make([]*SSEClient, 0, len(hub.clients))
	for _, c := range hub.clients {
		all = append(all, c)
	}
	hub.mu.RUnlock()
	for _, c := range all {
		hub.CloseClient(c)
	}
}
