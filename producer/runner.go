package producer

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"machine-telemetry/entities"
)

// Sink accepts generated signals for durable ingestion.
type Sink interface {
	Submit(ctx context.Context, signal *entities.Signal) error
}

// Runner drives one goroutine per generator. Streams never block on
// each other: each loop only suspends on its own timer and on the
// sink's bounded submit.
type Runner struct {
	generators []Generator
	sink       Sink
	logger     *zap.Logger
}

func NewRunner(sink Sink, logger *zap.Logger, generators ...Generator) *Runner {
	return &Runner{generators: generators, sink: sink, logger: logger}
}

// Run blocks until ctx is canceled, then returns once every generator
// loop has stopped scheduling ticks.
func (r *Runner) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, gen := range r.generators {
		gen := gen
		group.Go(func() error {
			r.runStream(ctx, gen)
			return nil
		})
	}
	return group.Wait()
}

func (r *Runner) runStream(ctx context.Context, gen Generator) {
	r.logger.Info("generator started", zap.String("stream", gen.Name()))
	timer := time.NewTimer(gen.NextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("generator stopped", zap.String("stream", gen.Name()))
			return
		case <-timer.C:
			signal := &entities.Signal{
				SignalType: gen.SignalType(),
				Value:      gen.NextValue(),
				Timestamp:  time.Now().UTC(),
			}
			if err := r.sink.Submit(ctx, signal); err != nil {
				if ctx.Err() != nil {
					r.logger.Info("generator stopped", zap.String("stream", gen.Name()))
					return
				}
				// Best-effort delivery: the tick is gone, the loop is not.
				r.logger.Warn("tick dropped",
					zap.String("stream", gen.Name()),
					zap.Float64("value", signal.Value),
					zap.Error(err))
			}
			timer.Reset(gen.NextDelay())
		}
	}
}
