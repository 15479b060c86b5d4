package tokenstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store for tests and ephemeral sessions.
// Safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	snapshot     []byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SetAccessToken(_ context.Context, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = token
}

func (m *Memory) SetRefreshToken(_ context.Context, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshToken = token
}

func (m *Memory) AccessToken(_ context.Context) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken
}

func (m *Memory) RefreshToken(_ context.Context) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken
}

func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = ""
	m.refreshToken = ""
	m.snapshot = nil
}

func (m *Memory) SaveSnapshot(_ context.Context, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = append([]byte(nil), blob...)
}

func (m *Memory) LoadSnapshot(_ context.Context) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return nil
	}
	return append([]byte(nil), m.snapshot...)
}
