package usecases

import (
	"context"

	"machine-telemetry/entities"
	"machine-telemetry/repositories"
)

// RecentWindow is the fixed number of readings served per stream.
const RecentWindow = 10

// SignalQuery serves the read side: the recent window per stream and
// the liveness probe. Both go through the same pool as the writers.
type SignalQuery struct {
	repo repositories.SignalRepository
}

func NewSignalQuery(repo repositories.SignalRepository) *SignalQuery {
	return &SignalQuery{repo: repo}
}

// RecentSignals validates the raw type against the closed set and
// returns the most recent window, newest first. Storage is never
// touched for an invalid type.
func (q *SignalQuery) RecentSignals(ctx context.Context, rawType string) ([]entities.Signal, error) {
	signalType, err := entities.ParseSignalType(rawType)
	if err != nil {
		return nil, err
	}

	signals, err := q.repo.RecentByType(ctx, signalType, RecentWindow)
	if err != nil {
		return nil, err
	}
	if signals == nil {
		signals = []entities.Signal{}
	}
	return signals, nil
}

// CheckHealth does a single round-trip against the sink. No retries:
// callers polling this observe instantaneous status.
func (q *SignalQuery) CheckHealth(ctx context.Context) error {
	return q.repo.Ping(ctx)
}
