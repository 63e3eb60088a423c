package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Mux routes Generate calls to named backends.
//
// The zero value is not usable; create one with NewMux.
type Mux struct {
	mu       sync.RWMutex
	backends map[string]Client
}

// NewMux creates an empty backend registry.
func NewMux() *Mux {
	return &Mux{backends: make(map[string]Client)}
}

// Handle registers a client under name, replacing any previous
// registration.
func (m *Mux) Handle(name string, c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backends[name] = c
}

// HandleFunc registers a function under name.
func (m *Mux) HandleFunc(name string, f ClientFunc) {
	m.Handle(name, f)
}

// Client returns the backend registered under name.
func (m *Mux) Client(name string) (Client, error) {
	m.mu.RLock()
	c, ok := m.backends[name]
	m.mu.RUnlock()
	if !ok || c == nil {
		return nil, fmt.Errorf("llm: client not found for %s", name)
	}
	return c, nil
}

// Generate dispatches to the backend registered under name.
func (m *Mux) Generate(ctx context.Context, name, directive string, turns []Message) (string, error) {
	c, err := m.Client(name)
	if err != nil {
		return "", err
	}
	return c.Generate(ctx, directive, turns)
}

// Backends lists the registered backend names in sorted order.
func (m *Mux) Backends() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.backends))
	for name := range m.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
