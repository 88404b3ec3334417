package producer

import (
	"math/rand"
	"time"

	"machine-telemetry/entities"
)

// stateChangeGenerator resamples the machine's on/off state every 1-5
// seconds.
type stateChangeGenerator struct {
	rng *rand.Rand
}

func NewStateChangeGenerator() Generator {
	return &stateChangeGenerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *stateChangeGenerator) Name() string { return "state_change" }

func (g *stateChangeGenerator) SignalType() entities.SignalType { return entities.SignalStateChange }

func (g *stateChangeGenerator) NextDelay() time.Duration {
	return time.Second + time.Duration(g.rng.Float64()*float64(4*time.Second))
}

func (g *stateChangeGenerator) NextValue() float64 {
	return float64(g.rng.Intn(2))
}
