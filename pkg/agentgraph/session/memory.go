package session

import (
	"sort"
	"sync"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
)

// MemoryStore is an in-memory session store for testing and
// single-process use. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	turns  map[string][]Turn // sessionID -> turns in sequence order
	closed bool
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns: make(map[string][]Turn),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(sessionID string, turn Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	turn.Sequence = len(m.turns[sessionID]) + 1
	turn.Timestamp = time.Now().UTC()

	// Copy messages to avoid retaining the caller's slice.
	turn.Messages = append([]llm.Message(nil), turn.Messages...)

	m.turns[sessionID] = append(m.turns[sessionID], turn)
	return nil
}

// Turns implements Store.
func (m *MemoryStore) Turns(sessionID string) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	return append([]Turn(nil), m.turns[sessionID]...), nil
}

// History implements Store.
func (m *MemoryStore) History(sessionID string) ([]llm.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var history []llm.Message
	for _, turn := range m.turns[sessionID] {
		history = append(history, turn.Messages...)
	}
	return history, nil
}

// Sessions implements Store.
func (m *MemoryStore) Sessions() ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.turns))
	for sessionID, turns := range m.turns {
		info := Info{SessionID: sessionID, Turns: len(turns)}
		if len(turns) > 0 {
			info.LastActivity = turns[len(turns)-1].Timestamp
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastActivity.Before(infos[j].LastActivity)
	})

	return infos, nil
}

// DeleteSession implements Store.
func (m *MemoryStore) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.turns, sessionID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.turns = nil
	return nil
}

// Len returns the total number of stored turns across all sessions.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, turns := range m.turns {
		count += len(turns)
	}
	return count
}
