package realtime

import (
	"sync"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

const defaultSubscriberBuffer = 64

// Observer receives hub delivery statistics.
type Observer interface {
	ObserveEvent(entity, eventType string)
	ObserveDrop(entity string)
}

// Hub fans change events out to per-entity subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu       sync.RWMutex
	subs     map[crm.Entity]map[*Subscription]struct{}
	buffer   int
	observer Observer
	logger   *logging.Logger
}

// Subscription receives events for one entity on C until closed.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	entity crm.Entity
	hub    *Hub
	once   sync.Once
}

// NewHub creates a hub. buffer <= 0 selects the default per-subscriber buffer.
func NewHub(buffer int, observer Observer, logger *logging.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		subs:     make(map[crm.Entity]map[*Subscription]struct{}),
		buffer:   buffer,
		observer: observer,
		logger:   logger,
	}
}

// Subscribe registers interest in entity.
func (h *Hub) Subscribe(entity crm.Entity) *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, ch: ch, entity: entity, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[entity] == nil {
		h.subs[entity] = make(map[*Subscription]struct{})
	}
	h.subs[entity][s] = struct{}{}
	return s
}

// Close unregisters the subscription and closes C. It is idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		delete(h.subs[s.entity], s)
		h.mu.Unlock()
		close(s.ch)
	})
}

// Publish delivers ev to every subscriber of its entity and returns the
// number of subscribers that received it.
func (h *Hub) Publish(ev Event) int {
	if h.observer != nil {
		h.observer.ObserveEvent(string(ev.Entity), string(ev.Type))
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.subs[ev.Entity] {
		select {
		case s.ch <- ev:
			delivered++
		default:
			if h.observer != nil {
				h.observer.ObserveDrop(string(ev.Entity))
			}
			h.logger.Warn("dropping change event for slow subscriber", "entity", ev.Entity, "id", ev.ID)
		}
	}
	return delivered
}

// Subscribers returns the number of subscribers of entity.
func (h *Hub) Subscribers(entity crm.Entity) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[entity])
}
