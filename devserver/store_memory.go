package devserver

import (
	"fmt"
	"sync"
)

// MemStore is an in-memory Store for tests and throwaway dev runs.
type MemStore struct {
	mu     sync.RWMutex
	users  map[string]*UserRecord // keyed by email
	files  map[string]*FileRecord // keyed by id
	policy *PolicyRecord
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		users: make(map[string]*UserRecord),
		files: make(map[string]*FileRecord),
	}
}

func (m *MemStore) UserByEmail(email string) (*UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) UserByUsername(username string) (*UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
}

func (m *MemStore) PutUser(u *UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.Email] = &cp
	return nil
}

func (m *MemStore) FileByID(id string) (*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (m *MemStore) FileByShareToken(token string) (*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if f.ShareToken == token {
			cp := *f
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("file token %s: %w", token, ErrNotFound)
}

func (m *MemStore) Files() ([]*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*FileRecord, 0, len(m.files))
	for _, f := range m.files {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) PutFile(f *FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.files[f.ID] = &cp
	return nil
}

func (m *MemStore) DeleteFile(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[id]; !ok {
		return fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	delete(m.files, id)
	return nil
}

func (m *MemStore) Policy() (*PolicyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.policy == nil {
		return defaultPolicy(), nil
	}
	cp := *m.policy
	return &cp, nil
}

func (m *MemStore) PutPolicy(p *PolicyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.policy = &cp
	return nil
}

func (m *MemStore) Close() error { return nil }
