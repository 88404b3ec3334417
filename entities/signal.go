package entities

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSignalType is returned when input names a signal type outside
// the closed set. It is a client error, not a storage fault.
var ErrInvalidSignalType = errors.New("invalid signal type")

// SignalType identifies one of the machine's telemetry streams.
type SignalType string

const (
	SignalStateChange SignalType = "state_change"
	SignalError       SignalType = "error"
	SignalPower       SignalType = "power"
)

// SignalTypes returns the closed set of valid signal types.
func SignalTypes() []SignalType {
	return []SignalType{SignalStateChange, SignalError, SignalPower}
}

func (t SignalType) Valid() bool {
	switch t {
	case SignalStateChange, SignalError, SignalPower:
		return true
	}
	return false
}

func (t SignalType) String() string { return string(t) }

// ParseSignalType validates raw user input against the closed set.
func ParseSignalType(raw string) (SignalType, error) {
	t := SignalType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSignalType, raw)
	}
	return t, nil
}

// Signal is one persisted telemetry reading. Rows are append-only: the
// simulator inserts them and the read API selects them, nothing updates
// or deletes.
type Signal struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	SignalType SignalType `gorm:"column:signal_type;type:varchar(50);not null;index:idx_signal_type_ts,priority:1" json:"signal_type"`
	Value      float64    `gorm:"not null" json:"value"`
	Timestamp  time.Time  `gorm:"not null;index:idx_signal_type_ts,priority:2" json:"timestamp"`
}
