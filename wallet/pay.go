package wallet

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/common"
	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/algorand/go-algorand-sdk/v2/abi"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"go.uber.org/zap"
)

// DefaultConfirmationRounds is how many rounds a submitted transaction is waited on
const DefaultConfirmationRounds = 4

// Node is the subset of the Algorand node API the submitter needs
type Node interface {
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)
	SendRawTransaction(ctx context.Context, signed []byte) (string, error)
	// WaitForConfirmation returns the confirmed round, or an error once rounds have passed
	WaitForConfirmation(ctx context.Context, txID string, rounds uint64) (uint64, error)
	AccountBalance(ctx context.Context, address string) (uint64, error)
}

// TransactionLog records confirmed transactions locally
type TransactionLog interface {
	Append(rec model.TransactionRecord) error
	All() ([]model.TransactionRecord, error)
}

// SubmitterOptions tune the submitter
type SubmitterOptions struct {
	ConfirmationRounds uint64
	// PayCooldown is the minimum time between two Pay calls; zero disables it
	PayCooldown time.Duration
}

// Submitter builds, signs, broadcasts and confirms transactions for the stored wallet
type Submitter struct {
	node   Node
	keys   *Manager
	log    TransactionLog
	opts   SubmitterOptions
	logger *zap.Logger
	now    func() time.Time

	payMutex    sync.Mutex
	lastPayTime time.Time
}

// NewSubmitter creates a transaction submitter
func NewSubmitter(node Node, keys *Manager, log TransactionLog, opts SubmitterOptions, logger *zap.Logger) *Submitter {
	if opts.ConfirmationRounds == 0 {
		opts.ConfirmationRounds = DefaultConfirmationRounds
	}
	return &Submitter{
		node:   node,
		keys:   keys,
		log:    log,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Pay sends amount ALGO to toAddress and waits for confirmation.
// Input is validated before any network call.
func (s *Submitter) Pay(ctx context.Context, toAddress, amount string) (*model.PayResponse, error) {
	micro, err := validatePayment(toAddress, amount)
	if err != nil {
		return nil, err
	}

	// Check cooldown
	s.payMutex.Lock()
	defer s.payMutex.Unlock()

	if s.opts.PayCooldown > 0 && !s.lastPayTime.IsZero() {
		if elapsed := s.now().Sub(s.lastPayTime); elapsed < s.opts.PayCooldown {
			remaining := s.opts.PayCooldown - elapsed
			return nil, model.NewValidationError("", "cooldown active, please wait %v", remaining.Round(time.Second))
		}
	}

	resp, err := s.pay(ctx, strings.TrimSpace(toAddress), micro, model.TransactionTypeSend)
	if err != nil {
		return nil, err
	}

	s.lastPayTime = s.now()
	return resp, nil
}

// Fund sends amount ALGO to an app escrow address. Not subject to the pay cooldown.
func (s *Submitter) Fund(ctx context.Context, appAddress, amount string) (*model.PayResponse, error) {
	micro, err := validatePayment(appAddress, amount)
	if err != nil {
		return nil, err
	}
	return s.pay(ctx, strings.TrimSpace(appAddress), micro, model.TransactionTypeFund)
}

func validatePayment(toAddress, amount string) (uint64, error) {
	toAddress = strings.TrimSpace(toAddress)
	if toAddress == "" {
		return 0, model.NewValidationError("toAddress", "recipient is required")
	}
	if strings.TrimSpace(amount) == "" {
		return 0, model.NewValidationError("amount", "amount is required")
	}

	// Convert amount to microAlgos (string-based, no float precision loss)
	micro, err := common.ALGOToMicro(amount)
	if err != nil {
		return 0, model.NewValidationError("amount", "invalid amount: %v", err)
	}
	if micro == 0 {
		return 0, model.NewValidationError("amount", "must be greater than zero")
	}

	if _, err := types.DecodeAddress(toAddress); err != nil {
		return 0, model.NewValidationError("toAddress", "invalid Algorand address")
	}
	return micro, nil
}

func (s *Submitter) pay(ctx context.Context, toAddress string, micro uint64, txType model.TransactionType) (*model.PayResponse, error) {
	acct, err := s.keys.Load(ctx)
	if err != nil {
		return nil, err
	}
	defer clear(acct.PrivateKey)

	txID, round, err := s.submit(ctx, acct, func(sp types.SuggestedParams) (types.Transaction, error) {
		return transaction.MakePaymentTxn(acct.Address, toAddress, micro, nil, "", sp)
	})
	if err != nil {
		return nil, err
	}

	s.record(model.TransactionRecord{
		ID:         txID,
		Address:    acct.Address,
		Amount:     common.MicroToALGO(micro),
		MicroAlgos: micro,
		Recipient:  toAddress,
		Timestamp:  s.now().UTC(),
		Type:       txType,
	})

	return &model.PayResponse{TxID: txID, ConfirmedRound: round}, nil
}

// CallApp invokes an ABI method of appID with args encoded per the method signature,
// e.g. "create_consent(string,uint64)void".
func (s *Submitter) CallApp(ctx context.Context, appID uint64, signature string, args ...any) (*model.PayResponse, error) {
	appArgs, err := encodeMethodCall(signature, args)
	if err != nil {
		return nil, err
	}

	acct, err := s.keys.Load(ctx)
	if err != nil {
		return nil, err
	}
	defer clear(acct.PrivateKey)

	sender, err := types.DecodeAddress(acct.Address)
	if err != nil {
		return nil, &model.BlockchainError{Op: "decode sender", Err: err}
	}

	txID, round, err := s.submit(ctx, acct, func(sp types.SuggestedParams) (types.Transaction, error) {
		return transaction.MakeApplicationNoOpTx(appID, appArgs, nil, nil, nil, sp, sender, nil, types.Digest{}, [32]byte{}, types.Address{})
	})
	if err != nil {
		return nil, err
	}

	s.record(model.TransactionRecord{
		ID:         txID,
		Address:    acct.Address,
		Amount:     common.MicroToALGO(0),
		MicroAlgos: 0,
		Recipient:  crypto.GetApplicationAddress(appID).String(),
		Timestamp:  s.now().UTC(),
		Type:       model.TransactionTypeAppCall,
	})

	return &model.PayResponse{TxID: txID, ConfirmedRound: round}, nil
}

// encodeMethodCall returns [selector, arg0, arg1, ...] as application args
func encodeMethodCall(signature string, args []any) ([][]byte, error) {
	method, err := abi.MethodFromSignature(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid method signature %q: %w", signature, err)
	}
	if len(method.Args) != len(args) {
		return nil, fmt.Errorf("method %s takes %d args, got %d", method.Name, len(method.Args), len(args))
	}

	appArgs := make([][]byte, 0, len(args)+1)
	appArgs = append(appArgs, method.GetSelector())
	for i, arg := range method.Args {
		typ, err := abi.TypeOf(arg.Type)
		if err != nil {
			return nil, fmt.Errorf("invalid type for arg %d: %w", i, err)
		}
		encoded, err := typ.Encode(args[i])
		if err != nil {
			return nil, fmt.Errorf("failed to encode arg %d: %w", i, err)
		}
		appArgs = append(appArgs, encoded)
	}
	return appArgs, nil
}

// submit runs params -> build -> sign -> broadcast -> confirm
func (s *Submitter) submit(ctx context.Context, acct model.Account, build func(types.SuggestedParams) (types.Transaction, error)) (string, uint64, error) {
	sp, err := s.node.SuggestedParams(ctx)
	if err != nil {
		return "", 0, &model.BlockchainError{Op: "fetch suggested params", Err: err}
	}

	tx, err := build(sp)
	if err != nil {
		return "", 0, &model.BlockchainError{Op: "build transaction", Err: err}
	}

	txID, signed, err := crypto.SignTransaction(acct.PrivateKey, tx)
	if err != nil {
		return "", 0, &model.BlockchainError{Op: "sign transaction", Err: err}
	}

	sentID, err := s.node.SendRawTransaction(ctx, signed)
	if err != nil {
		return "", 0, &model.BlockchainError{Op: "send transaction", Err: err}
	}
	if sentID != "" {
		txID = sentID
	}

	round, err := s.node.WaitForConfirmation(ctx, txID, s.opts.ConfirmationRounds)
	if err != nil {
		return "", 0, &model.BlockchainError{Op: "confirm transaction", Err: err}
	}

	s.logger.Info("transaction confirmed", zap.String("tx_id", txID), zap.Uint64("round", round))
	return txID, round, nil
}

// record appends to the local log; the transaction is already confirmed so a log failure is only logged
func (s *Submitter) record(rec model.TransactionRecord) {
	if err := s.log.Append(rec); err != nil {
		s.logger.Error("failed to append transaction log", zap.String("tx_id", rec.ID), zap.Error(err))
	}
}
