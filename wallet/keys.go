// Package wallet manages the Algorand wallet: key derivation from the stored mnemonic,
// wallet creation/import, payments, app calls and the local transaction history.
package wallet

import (
	"fmt"
	"strings"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
)

// MnemonicWords is the length of an Algorand account mnemonic
const MnemonicWords = 25

// NormalizeMnemonic collapses any run of whitespace into single spaces and lowercases words
func NormalizeMnemonic(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}

// DeriveAccount derives the key pair for a mnemonic. It has no side effects and caches nothing.
func DeriveAccount(phrase string) (model.Account, error) {
	sk, err := mnemonic.ToPrivateKey(NormalizeMnemonic(phrase))
	if err != nil {
		return model.Account{}, &model.InvalidMnemonicError{Err: err}
	}

	acct, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return model.Account{}, &model.InvalidMnemonicError{Err: fmt.Errorf("failed to derive account: %w", err)}
	}

	return model.Account{
		Address:    acct.Address.String(),
		PrivateKey: acct.PrivateKey,
	}, nil
}
