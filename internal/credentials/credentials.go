package credentials

import (
	"context"
	"sync"

	"meli-sync/internal/models"
)

// Store persists the MercadoLibre app credentials and the OAuth tokens. It
// holds no logic: "connected" is simply a non-empty access token in the
// stored record.
type Store interface {
	// Get retrieves the stored credentials. A zero-value record is returned
	// when nothing has been saved yet.
	Get(ctx context.Context) (models.Credentials, error)

	// Save stores the full credential record, replacing the previous one.
	Save(ctx context.Context, creds models.Credentials) error

	// Clear removes every credential field. This is the uninstall contract:
	// after Clear the service is indistinguishable from a fresh install.
	Clear(ctx context.Context) error
}

// MemoryStore is a mutex-guarded in-process Store for tests and single-node
// development.
type MemoryStore struct {
	mu    sync.RWMutex
	creds models.Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(ctx context.Context) (models.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

func (m *MemoryStore) Save(ctx context.Context, creds models.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = models.Credentials{}
	return nil
}
