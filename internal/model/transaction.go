package model

import (
	"fmt"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/common"
)

// TransactionType transaction type
type TransactionType string

const (
	TransactionTypeSend    TransactionType = "SEND"
	TransactionTypeFund    TransactionType = "FUND"
	TransactionTypeAppCall TransactionType = "APP_CALL"
)

// TransactionRecord is one entry of the local transaction log
type TransactionRecord struct {
	ID         string          `json:"id"`
	Address    string          `json:"address"`
	Amount     string          `json:"amount"` // ALGO decimal string
	MicroAlgos uint64          `json:"microAlgos"`
	Recipient  string          `json:"recipient"`
	Timestamp  time.Time       `json:"timestamp"`
	Type       TransactionType `json:"type"`
}

// LogResponse represents response for GET /wallet/transactions
type LogResponse struct {
	Address       string              `json:"address"`
	TotalSentALGO string              `json:"total_sent_ALGO"`
	Transactions  []TransactionRecord `json:"transactions"`
}

// LogRequest represents filter parameters for GET /wallet/transactions
type LogRequest struct {
	Type      *TransactionType
	TxID      *string
	From      *time.Time
	To        *time.Time
	MinAmount *string
	MaxAmount *string
}

// Validate validates LogRequest filter parameters.
func (r *LogRequest) Validate() error {
	if r.Type != nil {
		switch *r.Type {
		case TransactionTypeSend, TransactionTypeFund, TransactionTypeAppCall:
		default:
			return NewValidationError("type", "must be SEND, FUND or APP_CALL")
		}
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return NewValidationError("to", "must be after or equal to from date")
	}
	if r.MinAmount != nil && r.MaxAmount != nil {
		cmp, err := common.CompareALGOAmounts(*r.MinAmount, *r.MaxAmount)
		if err != nil {
			return NewValidationError("amount", "%v", fmt.Errorf("invalid amount: %w", err))
		}
		if cmp == 1 {
			return NewValidationError("minAmount", "must be less than or equal to maxAmount")
		}
	}
	return nil
}
