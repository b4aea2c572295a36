package client

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// AlgodClient is a client for working with an Algorand node
type AlgodClient struct {
	algodClient *algod.Client
	algodURL    string
}

// NewAlgodClient creates a new Algorand node client
func NewAlgodClient(url, token string) (*AlgodClient, error) {
	c, err := algod.MakeClient(url, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create algod client: %w", err)
	}
	return &AlgodClient{algodClient: c, algodURL: url}, nil
}

// SuggestedParams fetches current network parameters for building transactions
func (c *AlgodClient) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	sp, err := c.algodClient.SuggestedParams().Do(ctx)
	if err != nil {
		return types.SuggestedParams{}, fmt.Errorf("failed to get suggested params: %w", err)
	}
	return sp, nil
}

// SendRawTransaction broadcasts a signed, msgpack-encoded transaction
func (c *AlgodClient) SendRawTransaction(ctx context.Context, signed []byte) (string, error) {
	txID, err := c.algodClient.SendRawTransaction(signed).Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return txID, nil
}

// WaitForConfirmation polls the node for at most rounds rounds and returns the confirmed round
func (c *AlgodClient) WaitForConfirmation(ctx context.Context, txID string, rounds uint64) (uint64, error) {
	info, err := transaction.WaitForConfirmation(c.algodClient, txID, rounds, ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to confirm transaction %s: %w", txID, err)
	}
	return info.ConfirmedRound, nil
}

// AccountBalance gets the balance of address in microAlgos
func (c *AlgodClient) AccountBalance(ctx context.Context, address string) (uint64, error) {
	acct, err := c.algodClient.AccountInformation(address).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get account information: %w", err)
	}
	return acct.Amount, nil
}
