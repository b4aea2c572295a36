// Package handler holds the HTTP handlers of the consent wallet API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"go.uber.org/zap"
)

// Sessions authorizes requests that act for the signed-in user
type Sessions interface {
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context) error
	// Authorize returns ctx carrying the user's access token
	Authorize(ctx context.Context) (context.Context, *model.Session, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes an ErrorResponse
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	var (
		validationErr *model.ValidationError
		mnemonicErr   *model.InvalidMnemonicError
		generationErr *model.GenerationError
		remoteErr     *model.RemoteServiceError
		chainErr      *model.BlockchainError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, model.CodeValidation
	case errors.As(err, &mnemonicErr):
		return http.StatusUnprocessableEntity, model.CodeInvalidMnemonic
	case errors.Is(err, model.ErrNoSession):
		return http.StatusUnauthorized, model.CodeUnauthorized
	case errors.Is(err, model.ErrNoWallet):
		return http.StatusNotFound, model.CodeNoWallet
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, model.CodeNotFound
	case errors.Is(err, model.ErrWalletExists):
		return http.StatusConflict, model.CodeWalletExists
	case errors.As(err, &generationErr):
		return http.StatusBadGateway, model.CodeGeneration
	case errors.As(err, &chainErr):
		return http.StatusBadGateway, model.CodeBlockchain
	case errors.As(err, &remoteErr):
		if remoteErr.StatusCode == http.StatusUnauthorized {
			return http.StatusUnauthorized, model.CodeUnauthorized
		}
		return http.StatusBadGateway, model.CodeRemoteService
	default:
		return http.StatusInternalServerError, model.CodeInternal
	}
}

// decodeJSON reads the request body into v; a malformed body is a validation error
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewValidationError("body", "invalid JSON: %v", err)
	}
	return nil
}
