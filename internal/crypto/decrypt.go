package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// ErrInvalidPassword is returned when the vault cannot be opened with the given key
var ErrInvalidPassword = errors.New("invalid password")

// ReadVault reads the envelope without decrypting it.
// Returns an error wrapping os.ErrNotExist when there is no vault yet.
func ReadVault(filePath string) (*model.VaultFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("vault does not exist: %w", os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	if len(fileData) >= 3 && fileData[0] == 0xEF && fileData[1] == 0xBB && fileData[2] == 0xBF {
		fileData = fileData[3:]
	}

	var vault model.VaultFile
	if err := json.Unmarshal(fileData, &vault); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault file: %w", err)
	}
	if vault.KDF != kdfScrypt {
		return nil, fmt.Errorf("unsupported kdf %q", vault.KDF)
	}

	return &vault, nil
}

// Salt decodes the envelope's salt
func Salt(vault *model.VaultFile) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(vault.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	return salt, nil
}

// Params returns the envelope's scrypt parameters
func Params(vault *model.VaultFile) KDFParams {
	return KDFParams{N: vault.N, R: vault.R, P: vault.P}
}

// Open decrypts the envelope with an already derived key.
// Caller should clear the returned plaintext after use.
func Open(key []byte, vault *model.VaultFile) ([]byte, error) {
	nonce, err := base64.StdEncoding.DecodeString(vault.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(vault.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	return plaintext, nil
}
