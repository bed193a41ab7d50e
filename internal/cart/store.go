package cart

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps the serialized snapshot in process memory. It backs
// tests and the degraded path when Redis is unavailable.
type MemoryStore struct {
	mu      sync.Mutex
	payload []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save serializes the state and keeps it as the single snapshot.
func (s *MemoryStore) Save(ctx context.Context, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.payload = payload
	s.mu.Unlock()
	return nil
}

// Load returns the stored snapshot. Malformed payloads are discarded and
// reported as absent.
func (s *MemoryStore) Load(ctx context.Context) (State, bool, error) {
	s.mu.Lock()
	payload := s.payload
	s.mu.Unlock()

	if len(payload) == 0 {
		return State{}, false, nil
	}
	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, false, nil
	}
	return state, true, nil
}
