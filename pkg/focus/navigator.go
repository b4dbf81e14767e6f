package focus

import "sync"

// MemoryNavigator keeps the path in memory and counts writes.
type MemoryNavigator struct {
	mu     sync.Mutex
	path   string
	writes int
}

// NewMemoryNavigator returns a navigator holding path.
func NewMemoryNavigator(path string) *MemoryNavigator {
	return &MemoryNavigator{path: path}
}

func (m *MemoryNavigator) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

func (m *MemoryNavigator) SetPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = path
	m.writes++
}

// Writes returns how many times SetPath was called.
func (m *MemoryNavigator) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
