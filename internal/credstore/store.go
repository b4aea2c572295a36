// Package credstore keeps the session, wallet mnemonic and wallet address.
// Writes to different keys are independent; there is no multi-key transaction.
package credstore

import (
	"fmt"

	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// Store persists the three fixed credentials
type Store interface {
	// Get returns model.ErrNotFound when nothing is stored under key
	Get(key model.CredentialKey) (string, error)
	Set(key model.CredentialKey, value string) error
	Delete(key model.CredentialKey) error
}

func checkKey(key model.CredentialKey) error {
	if !key.Valid() {
		return fmt.Errorf("unknown credential key %q", key)
	}
	return nil
}
