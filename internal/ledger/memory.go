package ledger

import (
	"errors"
	"sync"
	"time"
)

var ErrUnknownSession = errors.New("unknown session id")

// Memory keeps session records in process memory, for single-binary runs
// where nothing needs to outlive the relay.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*Record
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*Record)}
}

func (m *Memory) SessionCreated(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &Record{ID: id, CreatedAt: time.Now()}
	return nil
}

func (m *Memory) PeerJoined(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	rec.JoinedAt = time.Now()
	return nil
}

func (m *Memory) SessionClosed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	rec.ClosedAt = time.Now()
	return nil
}

func (m *Memory) Close() error { return nil }

// Get returns a copy of the record for id.
func (m *Memory) Get(id string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}
