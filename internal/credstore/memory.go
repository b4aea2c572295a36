package credstore

import (
	"sync"

	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu     sync.Mutex
	values map[model.CredentialKey]string
	writes int
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[model.CredentialKey]string)}
}

// Get returns the value under key, or model.ErrNotFound
func (s *MemoryStore) Get(key model.CredentialKey) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", model.ErrNotFound
	}
	return v, nil
}

// Set stores value under key
func (s *MemoryStore) Set(key model.CredentialKey, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes++
	return nil
}

// Delete removes key; a missing key is not an error
func (s *MemoryStore) Delete(key model.CredentialKey) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.writes++
	return nil
}

// Writes returns how many Set/Delete calls succeeded
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
