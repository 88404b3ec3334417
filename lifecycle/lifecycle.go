// Package lifecycle tracks the service's startup and shutdown phases so
// the write path, the HTTP surface, and the pool agree on when to stop
// taking work.
package lifecycle

import (
	"sync/atomic"

	"go.uber.org/zap"
)

type State int32

const (
	// Starting: pool and generator tasks are initializing. Storage being
	// unreachable here is fatal.
	Starting State = iota
	// Ready: generators tick, requests are accepted.
	Ready
	// Draining: no new ticks, no new requests; in-flight work gets a
	// bounded grace period.
	Draining
	// Stopped: pool released.
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Coordinator holds the current state. Transitions only move forward.
type Coordinator struct {
	state  atomic.Int32
	logger *zap.Logger
}

func New(logger *zap.Logger) *Coordinator {
	return &Coordinator{logger: logger}
}

func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Advance moves to next if it is strictly ahead of the current state.
// Returns false when the transition would move backward or repeat.
func (c *Coordinator) Advance(next State) bool {
	for {
		current := c.state.Load()
		if int32(next) <= current {
			return false
		}
		if c.state.CompareAndSwap(current, int32(next)) {
			c.logger.Info("lifecycle transition",
				zap.Stringer("from", State(current)),
				zap.Stringer("to", next))
			return true
		}
	}
}

// Accepting reports whether new work (ticks, requests, subscriptions)
// may start.
func (c *Coordinator) Accepting() bool {
	return c.State() == Ready
}
