package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"machine-telemetry/entities"
	"machine-telemetry/repositories"
)

// Submitter accepts one signal for durable ingestion.
type Submitter interface {
	Submit(ctx context.Context, signal *entities.Signal) error
}

// IngestCoordinator is the single write path into the sink. It bounds
// concurrent storage work with a slot semaphore sized to the connection
// pool, so a slow write path surfaces as dropped ticks instead of
// stalled generators or unbounded buffering.
type IngestCoordinator struct {
	repo           repositories.SignalRepository
	slots          *semaphore.Weighted
	poolSize       int64
	acquireTimeout time.Duration
	maxRetries     int
	backoffBase    time.Duration
	logger         *zap.Logger

	mu        sync.RWMutex
	observers []func(entities.Signal)

	submitted           atomic.Uint64
	persisted           atomic.Uint64
	droppedBackpressure atomic.Uint64
	droppedWriteFailed  atomic.Uint64
	droppedCanceled     atomic.Uint64
}

type IngestStats struct {
	Submitted           uint64 `json:"submitted"`
	Persisted           uint64 `json:"persisted"`
	DroppedBackpressure uint64 `json:"dropped_backpressure"`
	DroppedWriteFailed  uint64 `json:"dropped_write_failed"`
	DroppedCanceled     uint64 `json:"dropped_canceled"`
}

func NewIngestCoordinator(repo repositories.SignalRepository, poolSize int, acquireTimeout time.Duration, maxRetries int, backoffBase time.Duration, logger *zap.Logger) *IngestCoordinator {
	return &IngestCoordinator{
		repo:           repo,
		slots:          semaphore.NewWeighted(int64(poolSize)),
		poolSize:       int64(poolSize),
		acquireTimeout: acquireTimeout,
		maxRetries:     maxRetries,
		backoffBase:    backoffBase,
		logger:         logger,
	}
}

// AddObserver registers a callback invoked after each durable insert.
// Register during wiring, before traffic starts.
func (c *IngestCoordinator) AddObserver(fn func(entities.Signal)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Submit persists one signal through a pool slot. It waits at most the
// acquire timeout for a slot, and each insert attempt carries the same
// deadline so a round-trip stuck waiting on a busy connection pool is
// cut off instead of stalling the generator (ErrBackpressure either
// way). Transient insert failures are retried with exponential backoff
// up to the retry budget (ErrWriteFailed otherwise). The slot is
// released on every path.
func (c *IngestCoordinator) Submit(ctx context.Context, signal *entities.Signal) error {
	c.submitted.Add(1)

	acquireCtx, cancel := context.WithTimeout(ctx, c.acquireTimeout)
	defer cancel()
	if err := c.slots.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			// Shutdown or caller cancellation, not pool pressure.
			c.droppedCanceled.Add(1)
			return ctx.Err()
		}
		c.droppedBackpressure.Add(1)
		return ErrBackpressure
	}
	defer c.slots.Release(1)

	var lastErr error
	backoff := c.backoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				c.droppedCanceled.Add(1)
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		attemptCtx, cancelAttempt := context.WithTimeout(ctx, c.acquireTimeout)
		err := c.repo.Insert(attemptCtx, signal)
		timedOut := err != nil && attemptCtx.Err() != nil
		cancelAttempt()
		if err == nil {
			c.persisted.Add(1)
			c.notify(*signal)
			return nil
		}
		if errors.Is(err, repositories.ErrConstraintViolation) {
			// Closed-set validation upstream should make this impossible.
			c.logger.Error("malformed record rejected by sink",
				zap.String("signal_type", signal.SignalType.String()),
				zap.Error(err))
			return err
		}
		if timedOut {
			if ctx.Err() != nil {
				c.droppedCanceled.Add(1)
				return ctx.Err()
			}
			// The bounded wait for a connection expired: the pool is
			// saturated, so drop now rather than pile retries on it.
			c.droppedBackpressure.Add(1)
			return ErrBackpressure
		}
		lastErr = err
	}

	c.droppedWriteFailed.Add(1)
	return fmt.Errorf("%w: %v", ErrWriteFailed, lastErr)
}

func (c *IngestCoordinator) notify(signal entities.Signal) {
	c.mu.RLock()
	observers := c.observers
	c.mu.RUnlock()
	for _, fn := range observers {
		fn(signal)
	}
}

func (c *IngestCoordinator) Stats() IngestStats {
	return IngestStats{
		Submitted:           c.submitted.Load(),
		Persisted:           c.persisted.Load(),
		DroppedBackpressure: c.droppedBackpressure.Load(),
		DroppedWriteFailed:  c.droppedWriteFailed.Load(),
		DroppedCanceled:     c.droppedCanceled.Load(),
	}
}

// Drained reports whether every pool slot is free again. Used after
// shutdown to check for leaked slots.
func (c *IngestCoordinator) Drained() bool {
	if !c.slots.TryAcquire(c.poolSize) {
		return false
	}
	c.slots.Release(c.poolSize)
	return true
}

// RunStatsLogger periodically logs ingest counters until ctx is done.
func (c *IngestCoordinator) RunStatsLogger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := c.Stats()
			c.logger.Info("ingest stats",
				zap.Uint64("submitted", stats.Submitted),
				zap.Uint64("persisted", stats.Persisted),
				zap.Uint64("dropped_backpressure", stats.DroppedBackpressure),
				zap.Uint64("dropped_write_failed", stats.DroppedWriteFailed),
				zap.Uint64("dropped_canceled", stats.DroppedCanceled))
		}
	}
}
