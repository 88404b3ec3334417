package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"machine-telemetry/db"
	"machine-telemetry/entities"
)

type signalPgRepository struct {
	db    db.Database
	table string
}

func NewSignalPgRepository(database db.Database, table string) SignalRepository {
	return &signalPgRepository{db: database, table: table}
}

func (r *signalPgRepository) Insert(ctx context.Context, signal *entities.Signal) error {
	if !signal.SignalType.Valid() {
		return fmt.Errorf("%w: signal_type %q", ErrConstraintViolation, signal.SignalType)
	}
	if err := r.db.GetDB().WithContext(ctx).Table(r.table).Create(signal).Error; err != nil {
		return classify(err)
	}
	return nil
}

func (r *signalPgRepository) RecentByType(ctx context.Context, signalType entities.SignalType, limit int) ([]entities.Signal, error) {
	signals := make([]entities.Signal, 0, limit)
	err := r.db.GetDB().WithContext(ctx).
		Table(r.table).
		Where("signal_type = ?", signalType).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&signals).Error
	if err != nil {
		return nil, classify(err)
	}
	return signals, nil
}

func (r *signalPgRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.GetDB().DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// classify maps driver errors onto the repository error taxonomy.
// SQLSTATE class 23 covers integrity constraint violations; everything
// else is treated as the sink being unreachable.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", ErrConstraintViolation, pgErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
