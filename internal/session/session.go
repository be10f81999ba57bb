// Package session holds the bearer credential used to talk to the promotion API.
//
// Only the API client writes to a Store. Everything else reads the credential
// through the client or through Authenticated.
package session

import "sync"

const (
	CookieName = "access_token"
	QueryParam = "token"

	// MaxAgeSeconds is the lifetime of the mirrored cookie.
	MaxAgeSeconds = 24 * 60 * 60
)

type Store interface {
	Token() string
	// SetToken must have persisted the token when it returns nil.
	SetToken(token string) error
	Clear() error
}

func Authenticated(s Store) bool {
	return s != nil && s.Token() != ""
}

// Memory is a process-wide store.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Memory) SetToken(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	return m.SetToken("")
}
