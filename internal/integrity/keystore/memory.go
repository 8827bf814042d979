package keystore

import (
	"context"
	"crypto/ecdsa"
	"sync"

	"waymark/pkg/platform/sentinel"
)

// Memory keeps the key in process memory. Test and ephemeral use only.
type Memory struct {
	mu  sync.RWMutex
	key *ecdsa.PrivateKey
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (*ecdsa.PrivateKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.key == nil {
		return nil, sentinel.ErrNotFound
	}
	return m.key, nil
}

func (m *Memory) Store(_ context.Context, key *ecdsa.PrivateKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = key
	return nil
}
