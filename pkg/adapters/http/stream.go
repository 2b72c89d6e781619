package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/entropia/pkg/snapshot"
)

// Event types pushed to snapshot subscribers.
const (
	EventStep    = "step"
	EventDeleted = "deleted"
)

// Event is a change to a stored snapshot.
type Event struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Frame *snapshot.Frame `json:"frame,omitempty"`
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{} // snapshot ID -> set of channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(id string) (chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 10)
	if _, ok := sm.subscribers[id]; !ok {
		sm.subscribers[id] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[id][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[id]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, id)
			}
		}
	}
}

// Subscribers returns the number of open subscriptions for id.
func (sm *StreamManager) Subscribers(id string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[id])
}

func (sm *StreamManager) Broadcast(id string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs := sm.subscribers[id]
	sm.logger.Debug("StreamManager: Broadcasting", "snapshot_id", id, "type", ev.Type, "subscribers", len(subs))
	for ch := range subs {
		select {
		case ch <- ev:
		default:
			// Slow client: drop.
			sm.logger.Warn("SSE: Client buffer full, dropping event", "snapshot_id", id)
		}
	}
}
