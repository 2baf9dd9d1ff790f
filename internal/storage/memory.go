package storage

import (
	"sort"
	"sync"
)

// Memory is an in-process Backend, used in tests and as a scratch store
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemory creates an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

// Get returns a copy of the stored record
func (m *Memory) Get(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.records[key]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data under key
func (m *Memory) Put(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes key if present
func (m *Memory) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}

// List returns all records ordered by key
func (m *Memory) List() ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]Record, 0, len(m.records))
	for key, data := range m.records {
		records = append(records, Record{Key: key, Data: append([]byte(nil), data...)})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}
