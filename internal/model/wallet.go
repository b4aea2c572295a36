package model

import "crypto/ed25519"

// VaultFile represents the encrypted credential vault on disk
type VaultFile struct {
	Version    int    `json:"version"`
	KDF        string `json:"kdf"`
	N          int    `json:"n"`
	R          int    `json:"r"`
	P          int    `json:"p"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// CredentialKey names one of the secrets kept in the credential store
type CredentialKey string

const (
	CredentialSession  CredentialKey = "session"
	CredentialMnemonic CredentialKey = "mnemonic"
	CredentialAddress  CredentialKey = "address"
)

// Valid reports whether k is one of the fixed credential keys
func (k CredentialKey) Valid() bool {
	switch k {
	case CredentialSession, CredentialMnemonic, CredentialAddress:
		return true
	}
	return false
}

// Account is a key pair derived from a mnemonic. Never persisted.
type Account struct {
	Address    string
	PrivateKey ed25519.PrivateKey
}

// WalletResponse represents response for wallet create/import/get
type WalletResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Address string `json:"address"`
	QR      string `json:"qr,omitempty"` // base64 PNG
}

// ImportRequest represents request for POST /wallet/import
type ImportRequest struct {
	Mnemonic string `json:"mnemonic"`
}

// BalanceResponse represents response for GET /wallet/balance
type BalanceResponse struct {
	Address    string `json:"address"`
	ALGO       string `json:"algo"`
	MicroAlgos uint64 `json:"microAlgos"`
}

// PayRequest represents request for POST /wallet/pay
type PayRequest struct {
	ToAddress string `json:"toAddress"`
	Amount    string `json:"amount"`
}

// PayResponse represents response for POST /wallet/pay
type PayResponse struct {
	TxID           string `json:"txId"`
	ConfirmedRound uint64 `json:"confirmedRound"`
}
