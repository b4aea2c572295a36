package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/AlexZinkM/consent-wallet/internal/crypto"
	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// FileStore keeps credentials in a password-encrypted vault file.
// The key is derived once at open; every write re-seals the whole vault with a fresh nonce.
type FileStore struct {
	path   string
	mu     sync.Mutex
	key    []byte
	salt   []byte
	params crypto.KDFParams
}

// OpenFileStore opens the vault at path, creating an empty one if it does not exist.
// params only apply to a newly created vault; an existing vault keeps its own.
// password must be []byte for security (caller should zero it after use)
func OpenFileStore(path string, password []byte, params crypto.KDFParams) (*FileStore, error) {
	vault, err := crypto.ReadVault(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if vault == nil {
		salt, err := crypto.NewSalt()
		if err != nil {
			return nil, err
		}
		key, err := crypto.DeriveKey(password, salt, params)
		if err != nil {
			return nil, err
		}
		s := &FileStore{path: path, key: key, salt: salt, params: params}
		if err := s.write(map[model.CredentialKey]string{}); err != nil {
			clear(key)
			return nil, err
		}
		return s, nil
	}

	salt, err := crypto.Salt(vault)
	if err != nil {
		return nil, err
	}
	params = crypto.Params(vault)
	key, err := crypto.DeriveKey(password, salt, params)
	if err != nil {
		return nil, err
	}

	// Verify the password before handing the store out
	plain, err := crypto.Open(key, vault)
	if err != nil {
		clear(key)
		return nil, err
	}
	clear(plain)

	return &FileStore{path: path, key: key, salt: salt, params: params}, nil
}

// Get decrypts the vault and returns the value under key, or model.ErrNotFound
func (s *FileStore) Get(key model.CredentialKey) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", model.ErrNotFound
	}
	return v, nil
}

// Set stores value under key and re-encrypts the whole vault
func (s *FileStore) Set(key model.CredentialKey, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

// Delete removes key from the vault; a missing key is not an error
func (s *FileStore) Delete(key model.CredentialKey) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

// Rekey re-encrypts the vault under newPassword with a fresh salt.
// newPassword must be []byte for security (caller should zero it after use)
func (s *FileStore) Rekey(newPassword []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}
	key, err := crypto.DeriveKey(newPassword, salt, s.params)
	if err != nil {
		return err
	}

	oldKey, oldSalt := s.key, s.salt
	s.key, s.salt = key, salt
	if err := s.write(values); err != nil {
		clear(key)
		s.key, s.salt = oldKey, oldSalt
		return err
	}
	clear(oldKey)
	return nil
}

// Close wipes the derived key from memory
func (s *FileStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.key)
}

func (s *FileStore) read() (map[model.CredentialKey]string, error) {
	vault, err := crypto.ReadVault(s.path)
	if err != nil {
		return nil, err
	}
	plain, err := crypto.Open(s.key, vault)
	if err != nil {
		return nil, err
	}
	defer clear(plain) // wipe decrypted bytes from memory

	values := make(map[model.CredentialKey]string)
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault contents: %w", err)
	}
	return values, nil
}

func (s *FileStore) write(values map[model.CredentialKey]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal vault contents: %w", err)
	}
	defer clear(plain)

	vault, err := crypto.Seal(s.key, s.salt, s.params, plain)
	if err != nil {
		return err
	}
	return crypto.WriteVault(s.path, vault)
}
