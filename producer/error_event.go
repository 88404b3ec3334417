package producer

import (
	"math/rand"
	"time"

	"machine-telemetry/entities"
)

// errorEventGenerator emits an error code in [1,100] every 10-30
// seconds.
type errorEventGenerator struct {
	rng *rand.Rand
}

func NewErrorEventGenerator() Generator {
	return &errorEventGenerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *errorEventGenerator) Name() string { return "error" }

func (g *errorEventGenerator) SignalType() entities.SignalType { return entities.SignalError }

func (g *errorEventGenerator) NextDelay() time.Duration {
	return 10*time.Second + time.Duration(g.rng.Float64()*float64(20*time.Second))
}

func (g *errorEventGenerator) NextValue() float64 {
	return float64(1 + g.rng.Intn(100))
}
