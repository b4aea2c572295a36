package model

import (
	"errors"
	"fmt"
)

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes returned in ErrorResponse.Code
const (
	CodeValidation      = "validation"
	CodeRemoteService   = "remote_service"
	CodeGeneration      = "generation"
	CodeInvalidMnemonic = "invalid_mnemonic"
	CodeBlockchain      = "blockchain"
	CodeNotFound        = "not_found"
	CodeNoWallet        = "no_wallet"
	CodeWalletExists    = "wallet_exists"
	CodeUnauthorized    = "unauthorized"
	CodeInternal        = "internal"
)

var (
	// ErrNoWallet is returned when an operation needs a wallet and none is stored
	ErrNoWallet = errors.New("no wallet: create or import one first")
	// ErrNotFound is returned when a row or credential does not exist
	ErrNotFound = errors.New("not found")
	// ErrNoSession is returned when an operation needs a signed-in user
	ErrNoSession = errors.New("not signed in")
	// ErrWalletExists is returned when creating or importing over a stored wallet
	ErrWalletExists = errors.New("wallet already exists: reset it first")
)

// ValidationError is bad user input, detected before any I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError returns a ValidationError for field
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RemoteServiceError is a non-2xx response or transport failure from the backend,
// the encryption endpoint or the provisioner.
type RemoteServiceError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// GenerationError is a failed call to the remote mnemonic generator
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate wallet: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// InvalidMnemonicError is a key derivation failure
type InvalidMnemonicError struct {
	Err error
}

func (e *InvalidMnemonicError) Error() string {
	return fmt.Sprintf("invalid mnemonic: %v", e.Err)
}

func (e *InvalidMnemonicError) Unwrap() error { return e.Err }

// BlockchainError is a failure to build, sign, submit or confirm a transaction.
type BlockchainError struct {
	Op  string
	Err error
}

func (e *BlockchainError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BlockchainError) Unwrap() error { return e.Err }

// IsValidationError checks if err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsInvalidMnemonicError checks if err is (or wraps) an InvalidMnemonicError
func IsInvalidMnemonicError(err error) bool {
	var target *InvalidMnemonicError
	return errors.As(err, &target)
}

// IsGenerationError checks if err is (or wraps) a GenerationError
func IsGenerationError(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}

// IsBlockchainError checks if err is (or wraps) a BlockchainError
func IsBlockchainError(err error) bool {
	var target *BlockchainError
	return errors.As(err, &target)
}

// IsRemoteServiceError checks if err is (or wraps) a RemoteServiceError
func IsRemoteServiceError(err error) bool {
	var target *RemoteServiceError
	return errors.As(err, &target)
}
