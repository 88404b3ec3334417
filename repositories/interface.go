package repositories

import (
	"context"

	"machine-telemetry/entities"
)

type SignalRepository interface {
	// Insert persists one signal and fills in its assigned id.
	Insert(ctx context.Context, signal *entities.Signal) error
	// RecentByType returns up to limit signals of one type, newest first
	// (timestamp descending, id descending on ties). An empty result is
	// an empty slice, not an error.
	RecentByType(ctx context.Context, signalType entities.SignalType, limit int) ([]entities.Signal, error)
	// Ping does a lightweight round-trip against the store without
	// touching any rows.
	Ping(ctx context.Context) error
}
