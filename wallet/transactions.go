package wallet

import (
	"context"
	"fmt"
	"sort"

	"github.com/AlexZinkM/consent-wallet/internal/common"
	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// History gets the wallet's locally logged transactions with filtering
func (s *Submitter) History(ctx context.Context, req *model.LogRequest) (*model.LogResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address, err := s.keys.StoredAddress(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.log.All()
	if err != nil {
		return nil, err
	}

	result := make([]model.TransactionRecord, 0, len(records))
	for _, tx := range records {
		if tx.Address != address {
			continue
		}

		// Filter by type
		if req.Type != nil && *req.Type != tx.Type {
			continue
		}

		// Filter by txId
		if req.TxID != nil && *req.TxID != tx.ID {
			continue
		}

		// Filter by dates
		if req.From != nil && tx.Timestamp.Before(*req.From) {
			continue
		}
		if req.To != nil && tx.Timestamp.After(*req.To) {
			continue
		}

		// Filter by amount (using integer comparison to avoid float precision issues)
		if req.MinAmount != nil {
			cmp, err := common.CompareALGOAmounts(tx.Amount, *req.MinAmount)
			if err != nil {
				return nil, fmt.Errorf("failed to compare min amount: %w", err)
			}
			if cmp < 0 {
				continue
			}
		}
		if req.MaxAmount != nil {
			cmp, err := common.CompareALGOAmounts(tx.Amount, *req.MaxAmount)
			if err != nil {
				return nil, fmt.Errorf("failed to compare max amount: %w", err)
			}
			if cmp > 0 {
				continue
			}
		}

		result = append(result, tx)
	}

	// Sort by time DESC (newest first)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	var totalSent uint64
	for _, tx := range result {
		totalSent += tx.MicroAlgos
	}

	return &model.LogResponse{
		Address:       address,
		TotalSentALGO: common.MicroToALGO(totalSent),
		Transactions:  result,
	}, nil
}
