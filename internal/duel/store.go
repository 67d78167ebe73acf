package duel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Store persists duel records. Mutate applies fn to the current record and saves
// the result atomically with respect to other Mutate calls on the same duel. When
// fn returns an error nothing is saved.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	Mutate(ctx context.Context, id uuid.UUID, fn func(*Record) error) (*Record, error)
}

// MemoryStore keeps records in process. Records are stored as JSON so callers
// never share memory with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID][]byte)}
}

func (m *MemoryStore) Create(_ context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.records[rec.ID]; taken {
		return fmt.Errorf("%w: %s", ErrDuelExists, rec.ID)
	}
	m.records[rec.ID] = data
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	data, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrDuelNotFound
	}
	return decodeRecord(data)
}

func (m *MemoryStore) Mutate(_ context.Context, id uuid.UUID, fn func(*Record) error) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.records[id]
	if !ok {
		return nil, ErrDuelNotFound
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	updated, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	m.records[id] = updated
	return rec, nil
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
