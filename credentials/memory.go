package credentials

import (
	"errors"
	"sync"

	goSession "github.com/MrEthical07/goSession"
)

// ErrIncomplete is returned by Write for credentials missing the token or the user id.
var ErrIncomplete = errors.New("credentials must carry both token and user id")

// Memory is a map-backed store for tests and single-process tools.
type Memory struct {
	mu     sync.RWMutex
	fields map[string]string
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{fields: map[string]string{}}
}

// NewMemoryWith returns a store pre-loaded with c.
func NewMemoryWith(c goSession.Credentials) *Memory {
	m := NewMemory()
	if c.Present() {
		m.fields = toFields(c)
	}
	return m
}

func (m *Memory) Read() (goSession.Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fromFields(m.fields)
}

func (m *Memory) Write(c goSession.Credentials) error {
	if !c.Present() {
		return ErrIncomplete
	}
	m.mu.Lock()
	m.fields = toFields(c)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	m.fields = map[string]string{}
	m.mu.Unlock()
	return nil
}

// Set writes a single raw key, mirroring another tab editing local storage.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.fields, key)
		return
	}
	m.fields[key] = value
}
