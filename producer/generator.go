// Package producer simulates one machine's telemetry: three independent
// generator tasks, one per signal type, each with its own timing policy
// and value model.
package producer

import (
	"time"

	"machine-telemetry/entities"
)

// Generator describes one stream's policy. NextDelay yields the wait
// before the next tick, NextValue the reading for it. Implementations
// are driven by a single goroutine each and need no locking.
type Generator interface {
	Name() string
	SignalType() entities.SignalType
	NextDelay() time.Duration
	NextValue() float64
}

// DefaultGenerators returns the three machine streams: state changes
// every 1-5s, error events every 10-30s, power readings at 100 Hz.
func DefaultGenerators() []Generator {
	return []Generator{
		NewStateChangeGenerator(),
		NewErrorEventGenerator(),
		NewPowerGenerator(),
	}
}
