package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the credential vault
	// Security is prioritized over performance
	//
	// N=2^18 (~256MB RAM, 0.5-2s) - optimal balance:
	//   - Maximum security while remaining compatible with mobile devices
	//   - Brute-force attacks remain extremely expensive
	//
	// Note: N=2^20 (~1GB) offers the highest security but fails on mobile due to
	// Android memory limits per app (~256-512MB typically)
	scryptLogN   = 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	vaultVersion = 1
	kdfScrypt    = "scrypt"
)

// KDFParams are the scrypt cost parameters stored alongside each vault
type KDFParams struct {
	N int
	R int
	P int
}

// DefaultKDF returns the production scrypt parameters
func DefaultKDF() KDFParams {
	return KDFParams{N: 1 << scryptLogN, R: scryptR, P: scryptP}
}

// KDFWithLogN returns production parameters with a custom cost
func KDFWithLogN(logN int) KDFParams {
	p := DefaultKDF()
	p.N = 1 << logN
	return p
}

// NewSalt returns a fresh random salt
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives the AES-256 key from password.
// password must be []byte for security (caller should zero it after use)
func DeriveKey(password, salt []byte, params KDFParams) ([]byte, error) {
	key, err := scrypt.Key(password, salt, params.N, params.R, params.P, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext under key with a fresh nonce and returns the envelope.
func Seal(key, salt []byte, params KDFParams, plaintext []byte) (*model.VaultFile, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	return &model.VaultFile{
		Version:    vaultVersion,
		KDF:        kdfScrypt,
		N:          params.N,
		R:          params.R,
		P:          params.P,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// WriteVault writes the envelope to filePath atomically with 0600 permissions
func WriteVault(filePath string, vault *model.VaultFile) error {
	fileData, err := json.MarshalIndent(vault, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vault file: %w", err)
	}

	// Add UTF-8 BOM for proper display in Windows
	utf8BOM := []byte{0xEF, 0xBB, 0xBF}
	fileDataWithBOM := append(utf8BOM, fileData...)

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, fileDataWithBOM, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace vault file: %w", err)
	}

	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
