package ws

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"machine-telemetry/entities"
)

// Conn is the write side of a websocket connection. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type subscriber struct {
	id     string
	filter entities.SignalType // empty means every stream
	conn   Conn
	send   chan entities.Signal
	done   chan struct{}
}

// Manager fans persisted signals out to live websocket subscribers.
// Each subscriber gets a small buffer; when it is full the signal is
// dropped for that subscriber rather than backing up the write path.
type Manager struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	logger *zap.Logger

	droppedSlow atomic.Uint64
}

const subscriberBuffer = 32

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{subs: make(map[string]*subscriber), logger: logger}
}

// Subscribe registers a connection for one stream (or all, when filter
// is empty), replacing any existing subscriber with the same id.
func (m *Manager) Subscribe(id string, filter entities.SignalType, conn Conn) {
	sub := &subscriber{
		id:     id,
		filter: filter,
		conn:   conn,
		send:   make(chan entities.Signal, subscriberBuffer),
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	if old, ok := m.subs[id]; ok {
		close(old.done)
		_ = old.conn.Close()
	}
	m.subs[id] = sub
	m.mu.Unlock()

	go m.writeLoop(sub)
}

// Unsubscribe removes a subscriber and closes its connection.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subs[id]; ok {
		close(sub.done)
		_ = sub.conn.Close()
		delete(m.subs, id)
	}
}

// Broadcast delivers one persisted signal to every matching subscriber.
// Never blocks: a full subscriber buffer means that subscriber misses
// this signal.
func (m *Manager) Broadcast(signal entities.Signal) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subs {
		if sub.filter != "" && sub.filter != signal.SignalType {
			continue
		}
		select {
		case sub.send <- signal:
		default:
			m.droppedSlow.Add(1)
		}
	}
}

func (m *Manager) writeLoop(sub *subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case signal := <-sub.send:
			if err := sub.conn.WriteJSON(signal); err != nil {
				m.logger.Debug("subscriber write failed, dropping",
					zap.String("subscriber", sub.id),
					zap.Error(err))
				m.dropSubscriber(sub)
				return
			}
		}
	}
}

// dropSubscriber removes exactly the given subscriber. A replacement
// under the same id is left alone.
func (m *Manager) dropSubscriber(sub *subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.subs[sub.id]; ok && current == sub {
		_ = sub.conn.Close()
		delete(m.subs, sub.id)
	}
}

// Count returns the number of live subscribers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// DroppedSlow returns how many signals were skipped for slow subscribers.
func (m *Manager) DroppedSlow() uint64 {
	return m.droppedSlow.Load()
}

// CloseAll disconnects every subscriber. Called during drain.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sub := range m.subs {
		close(sub.done)
		_ = sub.conn.Close()
		delete(m.subs, id)
	}
}
