package consent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/backend"
	"github.com/AlexZinkM/consent-wallet/internal/common"
	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateConsentMethod is the ABI method of the per-wallet consent app.
// Args: title, organization, access type, expiry (unix seconds, 0 = none), payload hash, payload.
const CreateConsentMethod = "create_consent(string,string,string,uint64,string,string)void"

// WarningNotAnchored is returned when the row was saved but anchoring failed
const WarningNotAnchored = "saved to database but not to blockchain"

// WarningAnchorNotRecorded is returned when the app call succeeded but the row could not be updated
const WarningAnchorNotRecorded = "anchored on chain but not recorded in database"

// WarningPlaintextPayload is returned when the payload could not be encrypted
const WarningPlaintextPayload = "encryption failed, payload anchored unencrypted"

// Wallet gives the address of the stored wallet
type Wallet interface {
	StoredAddress(ctx context.Context) (string, error)
}

// Chain submits the funding payment and the app call
type Chain interface {
	Fund(ctx context.Context, appAddress, amount string) (*model.PayResponse, error)
	CallApp(ctx context.Context, appID uint64, signature string, args ...any) (*model.PayResponse, error)
}

// Provisioner creates the consent app bound to a wallet
type Provisioner interface {
	Provision(ctx context.Context, walletAddress string) (appID uint64, appAddress string, err error)
}

// Encryptor encrypts the anchored payload
type Encryptor interface {
	Encrypt(ctx context.Context, data string) (string, error)
}

// Documents resolves a linked upload to a signed link
type Documents interface {
	SignedURL(ctx context.Context, userID, uploadID string) (*model.SignedURLResponse, error)
}

// Options configure anchoring
type Options struct {
	// Anchor enables provisioning, funding and the app call after insert
	Anchor bool
	// FundingALGO is paid to a freshly provisioned app; "0" or empty skips funding
	FundingALGO string
}

// Service validates, persists and anchors consents
type Service struct {
	rows        backend.Rows
	wallet      Wallet
	chain       Chain
	provisioner Provisioner
	encryptor   Encryptor
	documents   Documents
	opts        Options
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a consent service. chain, provisioner and encryptor are only used when opts.Anchor is set.
func NewService(rows backend.Rows, wallet Wallet, chain Chain, provisioner Provisioner, encryptor Encryptor, documents Documents, opts Options, logger *zap.Logger) *Service {
	return &Service{
		rows:        rows,
		wallet:      wallet,
		chain:       chain,
		provisioner: provisioner,
		encryptor:   encryptor,
		documents:   documents,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

type anchorResult struct {
	appID      uint64
	appAddress string
	txID       string
}

// Create validates req, inserts the consent row and, when enabled, anchors it.
// Once the row is inserted an anchoring failure only adds a warning.
func (s *Service) Create(ctx context.Context, userID string, req *model.ConsentRequest) (*model.ConsentResponse, error) {
	now := s.now()
	if err := Validate(req, now); err != nil {
		return nil, err
	}

	address, err := s.wallet.StoredAddress(ctx)
	if err != nil && !errors.Is(err, model.ErrNoWallet) {
		return nil, err
	}

	c := &model.Consent{
		ID:            uuid.NewString(),
		UserID:        userID,
		WalletAddress: address,
		DocumentID:    req.DocumentID,
		Title:         strings.TrimSpace(req.Title),
		Organization:  strings.TrimSpace(req.Organization),
		Description:   strings.TrimSpace(req.Description),
		AccessType:    req.AccessType,
		Status:        model.ConsentActive,
		Data:          fieldData(req.Fields),
		CreatedAt:     now.UTC(),
	}
	if req.ExpiryEnabled {
		expiresAt := req.ExpiresAt.UTC()
		c.ExpiresAt = &expiresAt
	}

	if req.DocumentID != nil && *req.DocumentID != "" {
		link, err := s.documents.SignedURL(ctx, userID, *req.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("failed to link document: %w", err)
		}
		c.SignedURL = link.URL
	}

	if s.opts.Anchor && address != "" {
		c.Status = model.ConsentPending
	}

	if err := s.rows.InsertConsent(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save consent: %w", err)
	}
	s.logger.Info("consent saved", zap.String("id", c.ID), zap.String("organization", c.Organization))

	resp := &model.ConsentResponse{Consent: c}
	if !s.opts.Anchor {
		return resp, nil
	}
	if address == "" {
		resp.Warnings = append(resp.Warnings, WarningNotAnchored+": no wallet")
		s.logger.Warn("consent not anchored", zap.String("id", c.ID), zap.Error(model.ErrNoWallet))
		return resp, nil
	}

	res, warnings, err := s.anchor(ctx, c)
	resp.Warnings = append(resp.Warnings, warnings...)

	active := model.ConsentActive
	upd := model.ConsentUpdate{Status: &active}
	if err == nil {
		upd.AppID = &res.appID
		upd.AppAddress = &res.appAddress
		upd.AnchorTxID = &res.txID
	}
	uerr := s.rows.UpdateConsent(ctx, c.ID, upd)
	if uerr != nil {
		s.logger.Warn("consent update failed, retrying", zap.String("id", c.ID), zap.Error(uerr))
		uerr = s.rows.UpdateConsent(ctx, c.ID, upd)
	}
	if uerr == nil {
		c.Status = model.ConsentActive
	}

	if err == nil && uerr != nil {
		// the row stays pending until the reconciler promotes it
		s.logger.Error("anchor not recorded", zap.String("id", c.ID), zap.String("tx_id", res.txID), zap.Error(uerr))
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s: tx %s: %v", WarningAnchorNotRecorded, res.txID, uerr))
	} else if err != nil {
		s.logger.Warn("consent not anchored", zap.String("id", c.ID), zap.Error(err))
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s: %v", WarningNotAnchored, err))
		return resp, nil
	}

	c.AppID = &res.appID
	c.AppAddress = res.appAddress
	c.AnchorTxID = res.txID
	resp.Anchored = true
	s.logger.Info("consent anchored", zap.String("id", c.ID), zap.Uint64("app_id", res.appID), zap.String("tx_id", res.txID))
	return resp, nil
}

// anchor provisions and funds the app, then records the consent with an app call
func (s *Service) anchor(ctx context.Context, c *model.Consent) (anchorResult, []string, error) {
	var warnings []string

	appID, appAddress, err := s.provisioner.Provision(ctx, c.WalletAddress)
	if err != nil {
		return anchorResult{}, warnings, fmt.Errorf("failed to provision app: %w", err)
	}

	if funding, err := common.ALGOToMicro(s.opts.FundingALGO); err == nil && funding > 0 {
		if _, err := s.chain.Fund(ctx, appAddress, s.opts.FundingALGO); err != nil {
			return anchorResult{}, warnings, fmt.Errorf("failed to fund app: %w", err)
		}
	}

	payload, err := json.Marshal(newPayload(c))
	if err != nil {
		return anchorResult{}, warnings, fmt.Errorf("failed to marshal payload: %w", err)
	}
	sum := sha256.Sum256(payload)
	hash := hex.EncodeToString(sum[:])

	data, err := s.encryptor.Encrypt(ctx, string(payload))
	if err != nil {
		s.logger.Warn("payload encryption failed, using plaintext", zap.String("id", c.ID), zap.Error(err))
		warnings = append(warnings, WarningPlaintextPayload)
		data = string(payload)
	}

	var expiry uint64
	if c.ExpiresAt != nil {
		expiry = uint64(c.ExpiresAt.Unix())
	}

	res, err := s.chain.CallApp(ctx, appID, CreateConsentMethod,
		c.Title, c.Organization, string(c.AccessType), expiry, hash, data)
	if err != nil {
		return anchorResult{}, warnings, fmt.Errorf("failed to call app: %w", err)
	}

	return anchorResult{appID: appID, appAddress: appAddress, txID: res.TxID}, warnings, nil
}

type payload struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Organization string            `json:"organization"`
	Description  string            `json:"description,omitempty"`
	AccessType   model.AccessType  `json:"accessType"`
	ExpiresAt    *time.Time        `json:"expiresAt,omitempty"`
	DocumentID   *string           `json:"documentId,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

func newPayload(c *model.Consent) payload {
	return payload{
		ID:           c.ID,
		Title:        c.Title,
		Organization: c.Organization,
		Description:  c.Description,
		AccessType:   c.AccessType,
		ExpiresAt:    c.ExpiresAt,
		DocumentID:   c.DocumentID,
		Data:         c.Data,
	}
}

// List returns the user's consents with their effective status. It never writes.
func (s *Service) List(ctx context.Context, userID string) ([]model.Consent, error) {
	consents, err := s.rows.ListConsents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}
	now := s.now()
	for i := range consents {
		consents[i].Status = ComputeStatus(&consents[i], now)
	}
	return consents, nil
}

// Get returns one of the user's consents with its effective status
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Consent, error) {
	c, err := s.rows.GetConsent(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, model.ErrNotFound
	}
	c.Status = ComputeStatus(c, s.now())
	return c, nil
}

// Revoke marks a consent revoked. Revoking a revoked consent does nothing.
func (s *Service) Revoke(ctx context.Context, userID, id string) (*model.Consent, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c.Status == model.ConsentRevoked {
		return c, nil
	}

	revoked := model.ConsentRevoked
	if err := s.rows.UpdateConsent(ctx, id, model.ConsentUpdate{Status: &revoked}); err != nil {
		return nil, fmt.Errorf("failed to revoke consent: %w", err)
	}
	c.Status = revoked
	s.logger.Info("consent revoked", zap.String("id", id))
	return c, nil
}
