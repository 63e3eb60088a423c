package convo

import (
	"fmt"
	"sync"
)

// SessionMemory retains cross-visitor state for one process run. It
// outlives agent rebuilds: inject the same instance into each new
// Agent to keep visit summaries across reconfiguration. Methods are
// safe for concurrent use.
type SessionMemory struct {
	mu        sync.Mutex
	summaries []string
	visitors  int
}

// NewSessionMemory starts a fresh memory with the visitor count at 1.
func NewSessionMemory() *SessionMemory {
	return &SessionMemory{visitors: 1}
}

// EndVisit closes out the current visit and advances the visitor
// count, returning the new total. When exchanges > 0 a summary line
// naming the visit is recorded first.
func (m *SessionMemory) EndVisit(exchanges int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exchanges > 0 {
		m.summaries = append(m.summaries,
			fmt.Sprintf("Visitor %d: Had %d exchanges.", m.visitors+1, exchanges))
	}
	m.visitors++
	return m.visitors
}

// TotalVisitors returns the running visitor count.
func (m *SessionMemory) TotalVisitors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visitors
}

// Summaries returns a copy of every recorded visit summary.
func (m *SessionMemory) Summaries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.summaries...)
}
