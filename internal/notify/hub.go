// Package notify delivers notifications: persistent inbox rows plus a
// best-effort real-time push hub with one subscription group per user.
package notify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/meridian/supplyhub/internal/models"
	"go.uber.org/zap"
)

// Hub fans notifications out to live subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[chan models.Notification]struct{}
	logger *zap.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[chan models.Notification]struct{}),
		logger: logger.Named("notify_hub"),
	}
}

// Subscribe registers a listener for one user's notifications. The
// returned cancel function must be called when the listener goes away.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, 16)

	h.mu.Lock()
	group, ok := h.subs[userID]
	if !ok {
		group = make(map[chan models.Notification]struct{})
		h.subs[userID] = group
	}
	group[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if group, ok := h.subs[userID]; ok {
			delete(group, ch)
			if len(group) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// Publish pushes a notification to every live subscriber of its owner.
func (h *Hub) Publish(n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[n.UserID] {
		select {
		case ch <- n:
		default:
			h.logger.Warn("subscriber buffer full, dropping push",
				zap.String("user_id", n.UserID.String()),
				zap.String("notification_id", n.ID.String()),
			)
		}
	}
}

// SubscriberCount reports how many listeners a user currently has.
func (h *Hub) SubscriberCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
