package realtime

import (
	"context"
	"sync"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 16

// Hub fans order changes out to dashboard subscribers. Slow subscribers miss
// events rather than blocking the feed.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan domain.OrderChange]struct{}
	closed      bool
}

func CreateHub() *Hub {
	return &Hub{subscribers: make(map[chan domain.OrderChange]struct{})}
}

// Subscribe registers a listener. The returned function cancels the
// subscription and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe() (<-chan domain.OrderChange, func()) {
	ch := make(chan domain.OrderChange, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if _, ok := h.subscribers[ch]; ok {
				delete(h.subscribers, ch)
				close(ch)
			}
		})
	}

	return ch, cancel
}

func (h *Hub) Publish(change domain.OrderChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- change:
		default:
			log.Warn().Str("component", "Publish").Str("order_number", change.Order.OrderNumber).Msg("subscriber is behind, change dropped")
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

// Run forwards changes from source until it is closed or ctx is done, then
// closes every subscription.
func (h *Hub) Run(ctx context.Context, source <-chan domain.OrderChange) {
	defer h.close()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-source:
			if !ok {
				log.Ctx(ctx).Warn().Str("component", "Run").Msg("order change feed closed")
				return
			}
			h.Publish(change)
		}
	}
}

func (h *Hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.closed = true
}
