package persist

import "sync"

// Memory is an in-process Backend, used by tests and dry runs.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte

	// FailWrites makes every Set return this error when non-nil.
	FailWrites error
	// Writes counts successful and failed Set calls per key.
	Writes map[string]int
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string][]byte),
		Writes: make(map[string]int),
	}
}

// Get implements Backend.
func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements Backend.
func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes[key]++
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// WriteCount returns how many times key was written.
func (m *Memory) WriteCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Writes[key]
}

// SetFailWrites toggles write failures.
func (m *Memory) SetFailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailWrites = err
}

// Close implements Backend.
func (m *Memory) Close() error { return nil }
