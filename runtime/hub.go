// Package runtime runs the broadcast side of the chat: the hub following the
// store and the registry of its subscribers.
package runtime

import (
	"chat-guard/contract"
	"chat-guard/domain"
	"chat-guard/repositories"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub pushes the full store state to every subscriber each time the
// messages or the blocked users are written, whoever wrote them.
//
// Publications are serialized: every subscriber sees snapshots in the same
// order and with strictly increasing versions. Store notifications reach the
// hub on the store's own goroutine, never under the writer's locks, so a sink
// may call back into the message service. Sinks run under the publication
// lock and must not call the hub itself.
type Hub struct {
	log         *slog.Logger
	feed        contract.KeyValueStore
	messages    repositories.IMessageRepository
	blocked     repositories.IBlockedRepository
	registry    *Registry
	sinkTimeout time.Duration

	mu      sync.Mutex // publication lock
	version uint64

	currentMu sync.RWMutex
	current   domain.Snapshot

	following     chan struct{}
	followingOnce sync.Once
}

func NewHub(
	log *slog.Logger,
	feed contract.KeyValueStore,
	messages repositories.IMessageRepository,
	blocked repositories.IBlockedRepository,
	registry *Registry,
	sinkTimeout time.Duration,
) *Hub {
	return &Hub{
		log:         log,
		feed:        feed,
		messages:    messages,
		blocked:     blocked,
		registry:    registry,
		sinkTimeout: sinkTimeout,
		following:   make(chan struct{}),
	}
}

// Subscribe registers the sink and hands it the current state right away.
// The returned function removes the sink, calling it twice is harmless.
func (h *Hub) Subscribe(ctx context.Context, sink contract.SnapshotSink) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot, err := h.read(ctx, h.version)
	if err != nil {
		return nil, err
	}

	subscriberID := uuid.NewString()
	h.registry.Subscribe(subscriberID, sink)
	h.log.Debug("Subscriber added", "subscriber_id", subscriberID, "version", snapshot.Version)
	h.deliver(ctx, sink, snapshot)

	return func() {
		h.registry.Unsubscribe(subscriberID)
		h.log.Debug("Subscriber removed", "subscriber_id", subscriberID)
	}, nil
}

// Publish re-reads the store and sends a new snapshot to every subscriber.
func (h *Hub) Publish(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot, err := h.read(ctx, h.version+1)
	if err != nil {
		h.log.Error("Snapshot read failed", "error", err)
		return err
	}
	h.version = snapshot.Version
	h.setCurrent(snapshot)

	for _, sink := range h.registry.Sinks() {
		h.deliver(ctx, sink, snapshot)
	}
	return nil
}

// Current returns the last published snapshot.
func (h *Hub) Current() domain.Snapshot {
	h.currentMu.RLock()
	defer h.currentMu.RUnlock()
	return h.current
}

// Following is closed once Run watches the store and published its first
// snapshot. Writes made before that may never be broadcast.
func (h *Hub) Following() <-chan struct{} {
	return h.following
}

func (h *Hub) Subscribers() int {
	return h.registry.Len()
}

// Watch starts publishing on every change notification of the store,
// until the returned stop function is called.
func (h *Hub) Watch(ctx context.Context) (func(), error) {
	return h.feed.Watch(func(key string) {
		h.log.Debug("Store changed", "key", key)
		_ = h.Publish(ctx)
	}, repositories.MessagesKey, repositories.BlockedUsersKey)
}

// Run makes the hub a supervised worker: it publishes an initial snapshot,
// then follows the store until the context is done.
func (h *Hub) Run(ctx context.Context) error {
	stop, err := h.Watch(ctx)
	if err != nil {
		return err
	}
	defer stop()

	if err = h.Publish(ctx); err != nil {
		return err
	}
	h.followingOnce.Do(func() { close(h.following) })

	<-ctx.Done()
	h.log.Debug("Context done, hub stops following the store")
	return nil
}

func (h *Hub) read(ctx context.Context, version uint64) (domain.Snapshot, error) {
	messages, err := h.messages.Read(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	blocked, err := h.blocked.Read(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{
		Version:  version,
		Messages: messages,
		Blocked:  blocked,
		At:       time.Now().UTC(),
	}, nil
}

func (h *Hub) deliver(ctx context.Context, sink contract.SnapshotSink, snapshot domain.Snapshot) {
	if h.sinkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.sinkTimeout)
		defer cancel()
	}
	if err := sink.Consume(ctx, snapshot); err != nil {
		h.log.Warn("Sink failed to consume snapshot", "version", snapshot.Version, "error", err)
	}
}

func (h *Hub) setCurrent(snapshot domain.Snapshot) {
	h.currentMu.Lock()
	defer h.currentMu.Unlock()
	h.current = snapshot
}
