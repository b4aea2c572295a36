package wallet

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/consent-wallet/internal/common"
	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// Balance gets the wallet balance from the node
func (s *Submitter) Balance(ctx context.Context) (*model.BalanceResponse, error) {
	address, err := s.keys.StoredAddress(ctx)
	if err != nil {
		return nil, err
	}

	micro, err := s.node.AccountBalance(ctx, address)
	if err != nil {
		return nil, &model.BlockchainError{Op: "get balance", Err: fmt.Errorf("%s: %w", address, err)}
	}

	return &model.BalanceResponse{
		Address:    address,
		ALGO:       common.MicroToALGO(micro),
		MicroAlgos: micro,
	}, nil
}
