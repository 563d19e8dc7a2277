// Package session provides signed-cookie sessions backed by an in-memory or Redis store.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hyperjump/buscador/internal/models"
)

// ErrNotFound is returned by stores for missing or expired sessions.
var ErrNotFound = errors.New("session not found")

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"` // success, info, warning, danger
	Message  string `json:"message"`
}

// Data is the persisted session state. Permissions is a display snapshot
// taken at login; authorization always re-reads the account store.
type Data struct {
	Username    string             `json:"usuario,omitempty"`
	Role        string             `json:"rol,omitempty"`
	Permissions models.Permissions `json:"permisos,omitempty"`
	LoggedIn    bool               `json:"logged_in"`
	Flashes     []Flash            `json:"flashes,omitempty"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// Store persists session data by id.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, d *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]Data
	now  func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Data), now: time.Now}
}

// Get returns a copy of the session, or ErrNotFound when missing or expired.
func (m *MemoryStore) Get(_ context.Context, id string) (*Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !d.ExpiresAt.IsZero() && m.now().After(d.ExpiresAt) {
		delete(m.data, id)
		return nil, ErrNotFound
	}
	return cloneData(d), nil
}

// Save stores a copy of d. Expired entries are swept on each save.
func (m *MemoryStore) Save(_ context.Context, id string, d *Data, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, v := range m.data {
		if !v.ExpiresAt.IsZero() && now.After(v.ExpiresAt) {
			delete(m.data, k)
		}
	}
	c := *cloneData(*d)
	if ttl > 0 {
		c.ExpiresAt = now.Add(ttl)
	}
	m.data[id] = c
	return nil
}

// Delete removes the session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func cloneData(d Data) *Data {
	if d.Permissions != nil {
		p := make(models.Permissions, len(d.Permissions))
		for k, v := range d.Permissions {
			p[k] = v
		}
		d.Permissions = p
	}
	if d.Flashes != nil {
		d.Flashes = append([]Flash(nil), d.Flashes...)
	}
	return &d
}
