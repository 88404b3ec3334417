package producer

import (
	"math/rand"
	"time"

	"machine-telemetry/entities"
)

// powerTickInterval is the fixed 100 Hz spacing of the power stream.
// This is the throughput-critical path.
const powerTickInterval = 10 * time.Millisecond

// powerGenerator produces a consumption reading in [100W, 500W) every
// 10ms.
type powerGenerator struct {
	rng *rand.Rand
}

func NewPowerGenerator() Generator {
	return &powerGenerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *powerGenerator) Name() string { return "power" }

func (g *powerGenerator) SignalType() entities.SignalType { return entities.SignalPower }

func (g *powerGenerator) NextDelay() time.Duration { return powerTickInterval }

func (g *powerGenerator) NextValue() float64 {
	return 100.0 + g.rng.Float64()*400.0
}
