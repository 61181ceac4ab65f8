package stream

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/freightpulse/freightpulse/internal/metrics"
	ops "github.com/freightpulse/freightpulse/pkg/metrics"
)

// ErrHubClosed is returned once the hub has shut down; it is the only error
// Broadcast can surface and callers must treat it as fatal.
var ErrHubClosed = errors.New("stream: hub closed")

// Hub tracks the live set of subscribers and fans each snapshot out to all
// of them. Delivery is a non-blocking enqueue into each subscriber's bounded
// queue; a subscriber whose queue is full is evicted in the same cycle, so
// fan-out cost stays O(n) enqueues regardless of how slow any transport is.
type Hub struct {
	logger     *zap.Logger
	queueDepth int

	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	closed bool
}

// NewHub creates an empty registry. queueDepth bounds each subscriber's
// delivery queue; values below 1 are raised to 1.
func NewHub(queueDepth int, logger *zap.Logger) *Hub {
	if queueDepth < 1 {
		queueDepth = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		queueDepth: queueDepth,
		subs:       make(map[*Subscriber]struct{}),
	}
}

// Register adds a new subscriber to the live set. It becomes eligible for
// the next broadcast cycle.
func (h *Hub) Register() (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	sub := newSubscriber(h.queueDepth)
	h.subs[sub] = struct{}{}
	ops.SubscribersConnected.Set(float64(len(h.subs)))
	h.logger.Debug("subscriber registered", zap.String("subscriber_id", sub.id))
	return sub, nil
}

// Unregister removes a subscriber and closes its Done channel. It is
// idempotent: removing an already-removed or foreign subscriber is a no-op.
func (h *Hub) Unregister(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, present := h.subs[sub]
	if present {
		delete(h.subs, sub)
		ops.SubscribersConnected.Set(float64(len(h.subs)))
	}
	h.mu.Unlock()

	if present {
		sub.close()
		h.logger.Debug("subscriber unregistered", zap.String("subscriber_id", sub.id))
	}
}

// Len reports the current number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast delivers snap to every subscriber registered when the cycle
// starts. A subscriber that cannot accept the snapshot (queue full, already
// closing) is dropped from the registry within the same cycle; its failure
// never delays the others and never surfaces to the caller. The only error
// is ErrHubClosed after Shutdown.
func (h *Hub) Broadcast(snap metrics.Snapshot) error {
	start := time.Now()

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	targets := make([]*Subscriber, 0, len(h.subs))
	for sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		select {
		case <-sub.done:
			// Unregistered mid-cycle; removal already observed.
			continue
		case sub.out <- snap:
		default:
			h.logger.Warn("dropping slow subscriber",
				zap.String("subscriber_id", sub.id),
				zap.Int("queue_depth", h.queueDepth))
			ops.SubscribersDropped.WithLabelValues("queue_full").Inc()
			h.Unregister(sub)
		}
	}

	ops.BroadcastLatency.Observe(time.Since(start).Seconds())
	return nil
}

// Shutdown closes every subscriber and rejects further registration and
// broadcasting. Safe to call more than once.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[*Subscriber]struct{})
	ops.SubscribersConnected.Set(0)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	h.logger.Info("hub shut down", zap.Int("subscribers_closed", len(subs)))
}
