// Re-encrypts the credential vault under a new password and a fresh salt.
// Usage: go run ./cmd/rekey
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/consent-wallet/internal/config"
	"github.com/AlexZinkM/consent-wallet/internal/credstore"
	"github.com/AlexZinkM/consent-wallet/internal/crypto"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("vault re-encrypted")
}

func run() error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()
	path := cfg.VaultPath()

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no vault at %s: %w", path, err)
	}

	current, err := config.ReadPassword("Current vault password: ")
	if err != nil {
		return err
	}
	store, err := credstore.OpenFileStore(path, current, crypto.KDFWithLogN(cfg.KDFLogN))
	clear(current)
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer store.Close()

	next, err := config.ReadPassword("New vault password: ")
	if err != nil {
		return err
	}
	defer clear(next)
	confirm, err := config.ReadPassword("Repeat new vault password: ")
	if err != nil {
		return err
	}
	defer clear(confirm)

	if !bytes.Equal(next, confirm) {
		return errors.New("passwords do not match")
	}

	return store.Rekey(next)
}
