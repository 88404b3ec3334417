package ws

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"machine-telemetry/entities"
)

type fakeConn struct {
	mu      sync.Mutex
	written []entities.Signal
	closed  bool
	err     error
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if s, ok := v.(entities.Signal); ok {
		f.written = append(f.written, s)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestManager_BroadcastRespectsFilter(t *testing.T) {
	m := NewManager(zap.NewNop())
	powerConn := &fakeConn{}
	allConn := &fakeConn{}
	m.Subscribe("power-sub", entities.SignalPower, powerConn)
	m.Subscribe("all-sub", "", allConn)

	m.Broadcast(entities.Signal{SignalType: entities.SignalPower, Value: 250})
	m.Broadcast(entities.Signal{SignalType: entities.SignalError, Value: 17})

	waitFor(t, func() bool { return allConn.count() == 2 }, "all-sub should see both signals")
	waitFor(t, func() bool { return powerConn.count() == 1 }, "power-sub should see one signal")

	powerConn.mu.Lock()
	got := powerConn.written[0]
	powerConn.mu.Unlock()
	if got.SignalType != entities.SignalPower || got.Value != 250 {
		t.Fatalf("power-sub saw %+v", got)
	}
}

func TestManager_UnsubscribeClosesConn(t *testing.T) {
	m := NewManager(zap.NewNop())
	conn := &fakeConn{}
	m.Subscribe("sub", "", conn)
	m.Unsubscribe("sub")

	if m.Count() != 0 {
		t.Fatalf("count = %d after unsubscribe", m.Count())
	}
	conn.mu.Lock()
	closed := conn.closed
	conn.mu.Unlock()
	if !closed {
		t.Fatal("connection not closed on unsubscribe")
	}
}

func TestManager_ResubscribeReplacesOld(t *testing.T) {
	m := NewManager(zap.NewNop())
	oldConn := &fakeConn{}
	newConn := &fakeConn{}
	m.Subscribe("sub", "", oldConn)
	m.Subscribe("sub", "", newConn)

	if m.Count() != 1 {
		t.Fatalf("count = %d", m.Count())
	}
	conn := oldConn
	conn.mu.Lock()
	closed := conn.closed
	conn.mu.Unlock()
	if !closed {
		t.Fatal("old connection not closed on resubscribe")
	}
}

func TestManager_FailedWriterIsRemoved(t *testing.T) {
	m := NewManager(zap.NewNop())
	conn := &fakeConn{err: errTest}
	m.Subscribe("sub", "", conn)

	m.Broadcast(entities.Signal{SignalType: entities.SignalPower, Value: 1})
	waitFor(t, func() bool { return m.Count() == 0 }, "failed subscriber should be removed")
}

func TestManager_CloseAll(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Subscribe("a", "", &fakeConn{})
	m.Subscribe("b", entities.SignalError, &fakeConn{})

	m.CloseAll()
	if m.Count() != 0 {
		t.Fatalf("count = %d after CloseAll", m.Count())
	}
}

var errTest = errors.New("write: broken pipe")
