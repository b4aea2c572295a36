package wallet

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AlexZinkM/consent-wallet/internal/credstore"
	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	mnemonic string
	address  string
	err      error
	calls    int
}

func (g *fakeGenerator) Generate(context.Context) (string, string, error) {
	g.calls++
	return g.mnemonic, g.address, g.err
}

func TestImportStoresMnemonicAndAddress(t *testing.T) {
	phrase, address := newPhrase(t)
	store := credstore.NewMemoryStore()
	m := NewManager(store, &fakeGenerator{}, zap.NewNop())

	resp, err := m.Import(context.Background(), phrase)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, address, resp.Address)
	assert.NotEmpty(t, resp.QR)

	stored, err := store.Get(model.CredentialMnemonic)
	require.NoError(t, err)
	assert.Equal(t, phrase, stored)

	addr, err := m.StoredAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, address, addr)
}

func TestImportWrongWordCount(t *testing.T) {
	phrase, _ := newPhrase(t)
	words := strings.Fields(phrase)
	store := credstore.NewMemoryStore()
	m := NewManager(store, &fakeGenerator{}, zap.NewNop())

	_, err := m.Import(context.Background(), strings.Join(words[:24], " "))
	assert.True(t, model.IsValidationError(err))
	assert.Equal(t, 0, store.Writes())
}

func TestImportInvalidMnemonicStoresNothing(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := NewManager(store, &fakeGenerator{}, zap.NewNop())

	_, err := m.Import(context.Background(), strings.TrimSpace(strings.Repeat("zzzz ", MnemonicWords)))
	assert.True(t, model.IsInvalidMnemonicError(err))
	assert.Equal(t, 0, store.Writes())
}

func TestImportOverExistingWallet(t *testing.T) {
	first, _ := newPhrase(t)
	second, _ := newPhrase(t)
	m := NewManager(credstore.NewMemoryStore(), &fakeGenerator{}, zap.NewNop())

	_, err := m.Import(context.Background(), first)
	require.NoError(t, err)
	_, err = m.Import(context.Background(), second)
	assert.ErrorIs(t, err, model.ErrWalletExists)
}

func TestCreateUsesGenerator(t *testing.T) {
	phrase, address := newPhrase(t)
	gen := &fakeGenerator{mnemonic: phrase, address: address}
	m := NewManager(credstore.NewMemoryStore(), gen, zap.NewNop())

	resp, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, address, resp.Address)
	assert.Equal(t, 1, gen.calls)

	acct, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, address, acct.Address)
}

func TestCreateGeneratorFailure(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := NewManager(store, &fakeGenerator{err: errors.New("boom")}, zap.NewNop())

	_, err := m.Create(context.Background())
	assert.True(t, model.IsGenerationError(err))
	assert.Equal(t, 0, store.Writes())
}

func TestCreateAddressMismatch(t *testing.T) {
	phrase, _ := newPhrase(t)
	_, other := newPhrase(t)
	store := credstore.NewMemoryStore()
	m := NewManager(store, &fakeGenerator{mnemonic: phrase, address: other}, zap.NewNop())

	_, err := m.Create(context.Background())
	assert.True(t, model.IsInvalidMnemonicError(err))
	assert.Equal(t, 0, store.Writes())
}

func TestLoadWithoutWallet(t *testing.T) {
	m := NewManager(credstore.NewMemoryStore(), &fakeGenerator{}, zap.NewNop())

	_, err := m.Load(context.Background())
	assert.ErrorIs(t, err, model.ErrNoWallet)
	_, err = m.Address(context.Background())
	assert.ErrorIs(t, err, model.ErrNoWallet)
}

func TestResetClearsWalletAndSession(t *testing.T) {
	phrase, _ := newPhrase(t)
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Set(model.CredentialSession, "{}"))
	m := NewManager(store, &fakeGenerator{}, zap.NewNop())
	_, err := m.Import(context.Background(), phrase)
	require.NoError(t, err)

	require.NoError(t, m.Reset(context.Background()))

	for _, key := range []model.CredentialKey{model.CredentialMnemonic, model.CredentialAddress, model.CredentialSession} {
		_, err := store.Get(key)
		assert.ErrorIs(t, err, model.ErrNotFound, key)
	}
}
