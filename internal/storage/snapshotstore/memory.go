package snapshotstore

import (
	"sync"

	"github.com/xln-finance/xln/internal/codec"
)

// MemoryStore is the default, always-available backend (spec §6's
// in-memory core), grounded on the teacher's MemoryBackend map-of-hash
// design. Closing it drops its contents, same as the teacher's Close.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[codec.Hash256]Record
	closed bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[codec.Hash256]Record)}
}

func (m *MemoryStore) Put(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[r.Hash] = Record{Kind: r.Kind, Hash: r.Hash, Height: r.Height, Data: append([]byte(nil), r.Data...)}
	return nil
}

func (m *MemoryStore) Get(hash codec.Hash256) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Record{}, ErrClosed
	}
	r, ok := m.data[hash]
	if !ok {
		return Record{}, ErrNotFound
	}
	r.Data = append([]byte(nil), r.Data...)
	return r, nil
}

func (m *MemoryStore) Has(hash codec.Hash256) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.data[hash]
	return ok, nil
}

func (m *MemoryStore) ForEach(fn func(Record) error) error {
	m.mu.RLock()
	records := make([]Record, 0, len(m.data))
	for _, r := range m.data {
		records = append(records, r)
	}
	m.mu.RUnlock()

	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = make(map[codec.Hash256]Record)
	return nil
}
