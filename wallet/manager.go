package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/consent-wallet/internal/credstore"
	"github.com/AlexZinkM/consent-wallet/internal/model"

	"go.uber.org/zap"
)

// Generator hands out freshly generated mnemonics
type Generator interface {
	Generate(ctx context.Context) (mnemonic, address string, err error)
}

// Manager creates, imports and loads the wallet kept in the credential store
type Manager struct {
	store     credstore.Store
	generator Generator
	logger    *zap.Logger
}

// NewManager creates a wallet key manager
func NewManager(store credstore.Store, generator Generator, logger *zap.Logger) *Manager {
	return &Manager{
		store:     store,
		generator: generator,
		logger:    logger,
	}
}

// Create asks the remote generator for a mnemonic, verifies it by deriving the account locally
// and stores mnemonic and address.
func (m *Manager) Create(ctx context.Context) (*model.WalletResponse, error) {
	if err := m.ensureNoWallet(); err != nil {
		return nil, err
	}

	phrase, claimed, err := m.generator.Generate(ctx)
	if err != nil {
		return nil, &model.GenerationError{Err: err}
	}

	acct, err := DeriveAccount(phrase)
	if err != nil {
		return nil, err
	}
	defer clear(acct.PrivateKey)

	if claimed != "" && claimed != acct.Address {
		return nil, &model.InvalidMnemonicError{Err: fmt.Errorf("generator address %s does not match derived address %s", claimed, acct.Address)}
	}

	if err := m.persist(NormalizeMnemonic(phrase), acct.Address); err != nil {
		return nil, err
	}
	m.logger.Info("wallet created", zap.String("address", acct.Address))

	return m.response(acct.Address, "Wallet created successfully")
}

// Import validates a 25-word phrase, derives its account and stores it.
// Nothing is stored when validation or derivation fails.
func (m *Manager) Import(ctx context.Context, phrase string) (*model.WalletResponse, error) {
	words := strings.Fields(phrase)
	if len(words) != MnemonicWords {
		return nil, model.NewValidationError("mnemonic", "must be exactly %d words, got %d", MnemonicWords, len(words))
	}

	acct, err := DeriveAccount(phrase)
	if err != nil {
		return nil, err
	}
	defer clear(acct.PrivateKey)

	if err := m.ensureNoWallet(); err != nil {
		return nil, err
	}

	if err := m.persist(NormalizeMnemonic(phrase), acct.Address); err != nil {
		return nil, err
	}
	m.logger.Info("wallet imported", zap.String("address", acct.Address))

	return m.response(acct.Address, "Wallet imported successfully")
}

// Load re-derives the account from the stored mnemonic.
// Caller should clear the returned private key after use.
func (m *Manager) Load(_ context.Context) (model.Account, error) {
	phrase, err := m.store.Get(model.CredentialMnemonic)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, model.ErrNoWallet
		}
		return model.Account{}, fmt.Errorf("failed to read mnemonic: %w", err)
	}
	return DeriveAccount(phrase)
}

// StoredAddress returns the stored wallet address without touching the mnemonic
func (m *Manager) StoredAddress(_ context.Context) (string, error) {
	addr, err := m.store.Get(model.CredentialAddress)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrNoWallet
		}
		return "", fmt.Errorf("failed to read wallet address: %w", err)
	}
	return addr, nil
}

// Address returns the stored address together with a receive QR code
func (m *Manager) Address(ctx context.Context) (*model.WalletResponse, error) {
	addr, err := m.StoredAddress(ctx)
	if err != nil {
		return nil, err
	}
	return m.response(addr, "")
}

// Reset deletes the wallet and the session (logout)
func (m *Manager) Reset(_ context.Context) error {
	for _, key := range []model.CredentialKey{model.CredentialMnemonic, model.CredentialAddress, model.CredentialSession} {
		if err := m.store.Delete(key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	m.logger.Info("wallet reset")
	return nil
}

func (m *Manager) ensureNoWallet() error {
	_, err := m.store.Get(model.CredentialMnemonic)
	switch {
	case err == nil:
		return model.ErrWalletExists
	case errors.Is(err, model.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to read mnemonic: %w", err)
	}
}

// persist writes mnemonic then address; the two writes are independent
func (m *Manager) persist(phrase, address string) error {
	if err := m.store.Set(model.CredentialMnemonic, phrase); err != nil {
		return fmt.Errorf("failed to store mnemonic: %w", err)
	}
	if err := m.store.Set(model.CredentialAddress, address); err != nil {
		return fmt.Errorf("failed to store address: %w", err)
	}
	return nil
}

func (m *Manager) response(address, message string) (*model.WalletResponse, error) {
	qr, err := generateQRCode(address)
	if err != nil {
		return nil, err
	}
	return &model.WalletResponse{
		Success: true,
		Message: message,
		Address: address,
		QR:      qr,
	}, nil
}
