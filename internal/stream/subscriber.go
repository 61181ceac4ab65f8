// Package stream contains the subscriber registry, the snapshot broadcaster
// and the coordinator that drives both from a fixed-interval clock.
package stream

import (
	"sync"

	"github.com/google/uuid"

	"github.com/freightpulse/freightpulse/internal/metrics"
)

// Subscriber is one registered recipient of streamed KPI snapshots. It owns
// a bounded outbound queue drained by a dedicated writer (the transport's
// write pump), so one stalled subscriber never delays another. The value
// returned by Hub.Register doubles as the unregistration handle.
type Subscriber struct {
	id   string
	out  chan metrics.Snapshot
	done chan struct{}
	once sync.Once
}

func newSubscriber(queueDepth int) *Subscriber {
	return &Subscriber{
		id:   uuid.NewString(),
		out:  make(chan metrics.Snapshot, queueDepth),
		done: make(chan struct{}),
	}
}

// ID returns the subscriber's unique identifier.
func (s *Subscriber) ID() string { return s.id }

// Out is the subscriber's delivery queue. The transport's write pump must
// drain it until Done is closed.
func (s *Subscriber) Out() <-chan metrics.Snapshot { return s.out }

// Done is closed exactly once when the subscriber is unregistered. After
// that no further snapshot is delivered to it.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// close marks the subscriber removed. The out channel is left open so the
// hub never risks a send on a closed channel; pumps select on Done instead.
func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}
