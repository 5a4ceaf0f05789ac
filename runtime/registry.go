package runtime

import (
	"chat-guard/contract"
	"sync"
)

// Registry keeps the hub subscribers in subscription order.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.SnapshotSink // map subscriber -> Sink
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.SnapshotSink),
	}
}

// Sinks returns the active sinks, oldest subscription first.
// Returns nil when nobody is subscribed.
func (r *Registry) Sinks() []contract.SnapshotSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var activeSinks []contract.SnapshotSink
	for _, subscriberID := range r.order {
		if sink, exists := r.sessions[subscriberID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers a sink under the given id, replacing any previous sink with the same id.
func (r *Registry) Subscribe(subscriberID string, sink contract.SnapshotSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[subscriberID]; !ok {
		r.order = append(r.order, subscriberID)
	}
	r.sessions[subscriberID] = sink
}

// Unsubscribe removes a subscriber. Unknown ids are ignored.
func (r *Registry) Unsubscribe(subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[subscriberID]; !ok {
		return
	}
	delete(r.sessions, subscriberID)
	for i, id := range r.order {
		if id == subscriberID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
