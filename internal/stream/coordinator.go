package stream

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/freightpulse/freightpulse/internal/metrics"
	ops "github.com/freightpulse/freightpulse/pkg/metrics"
)

// Sink receives a copy of every produced snapshot after the hub fan-out.
// Sink failures are logged and counted but never stop the tick loop.
type Sink interface {
	Publish(ctx context.Context, snap metrics.Snapshot) error
}

// Coordinator is the control-flow backbone: on every clock tick it advances
// the simulator and hands the new snapshot to the hub, then to any sinks.
type Coordinator struct {
	sim      *metrics.Simulator
	hub      *Hub
	interval time.Duration
	sinks    []Sink
	logger   *zap.Logger
}

// NewCoordinator wires the simulator and hub to a fixed-interval clock.
// Intervals below 10ms are raised to 10ms to keep a misconfigured tick from
// busy-looping the process.
func NewCoordinator(sim *metrics.Simulator, hub *Hub, interval time.Duration, logger *zap.Logger, sinks ...Sink) *Coordinator {
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		sim:      sim,
		hub:      hub,
		interval: interval,
		sinks:    sinks,
		logger:   logger,
	}
}

// Run ticks until ctx is cancelled (returns nil) or the hub reports a
// systemic failure (returns the error; the caller is expected to shut the
// process down). The cadence is fixed: a slow subscriber cannot stretch it
// because Broadcast never blocks on any single delivery.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("streaming coordinator started", zap.Duration("interval", c.interval))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("streaming coordinator stopped")
			return nil
		case <-ticker.C:
			snap := c.sim.Advance()
			ops.TicksTotal.Inc()
			if err := c.hub.Broadcast(snap); err != nil {
				c.logger.Error("broadcast failed", zap.Error(err))
				return fmt.Errorf("coordinator: %w", err)
			}
			for _, sink := range c.sinks {
				if err := sink.Publish(ctx, snap); err != nil {
					c.logger.Warn("sink publish failed", zap.Error(err))
				}
			}
		}
	}
}
