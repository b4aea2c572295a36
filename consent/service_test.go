package consent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/backend"
	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testWallet = "WALLETADDRESS"

type fakeWallet struct {
	address string
}

func (w fakeWallet) StoredAddress(context.Context) (string, error) {
	if w.address == "" {
		return "", model.ErrNoWallet
	}
	return w.address, nil
}

type appCall struct {
	appID     uint64
	signature string
	args      []any
}

type fakeChain struct {
	funded  []string
	calls   []appCall
	fundErr error
	callErr error
}

func (c *fakeChain) Fund(_ context.Context, appAddress, amount string) (*model.PayResponse, error) {
	if c.fundErr != nil {
		return nil, c.fundErr
	}
	c.funded = append(c.funded, appAddress+"="+amount)
	return &model.PayResponse{TxID: "FUNDTX", ConfirmedRound: 10}, nil
}

func (c *fakeChain) CallApp(_ context.Context, appID uint64, signature string, args ...any) (*model.PayResponse, error) {
	if c.callErr != nil {
		return nil, c.callErr
	}
	c.calls = append(c.calls, appCall{appID: appID, signature: signature, args: args})
	return &model.PayResponse{TxID: "CALLTX", ConfirmedRound: 11}, nil
}

type fakeProvisioner struct {
	calls int
	err   error
}

func (p *fakeProvisioner) Provision(context.Context, string) (uint64, string, error) {
	p.calls++
	if p.err != nil {
		return 0, "", p.err
	}
	return 77, "APPADDRESS", nil
}

type fakeEncryptor struct {
	err error
}

func (e fakeEncryptor) Encrypt(_ context.Context, data string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return "enc:" + data, nil
}

type fakeDocuments struct{}

func (fakeDocuments) SignedURL(_ context.Context, userID, uploadID string) (*model.SignedURLResponse, error) {
	if uploadID != "doc1" || userID != "u1" {
		return nil, model.ErrNotFound
	}
	return &model.SignedURLResponse{URL: "https://files.example/doc1"}, nil
}

type fixture struct {
	rows    *backend.MemoryRows
	chain   *fakeChain
	prov    *fakeProvisioner
	logs    *observer.ObservedLogs
	service *Service
	now     time.Time
}

func newFixture(t *testing.T, anchor bool, encErr error) *fixture {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	f := &fixture{
		rows:  backend.NewMemoryRows(),
		chain: &fakeChain{},
		prov:  &fakeProvisioner{},
		logs:  logs,
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.service = NewService(f.rows, fakeWallet{address: testWallet}, f.chain, f.prov, fakeEncryptor{err: encErr}, fakeDocuments{},
		Options{Anchor: anchor, FundingALGO: "0.2"}, zap.New(core))
	f.service.now = func() time.Time { return f.now }
	return f
}

func validRequest(now time.Time) *model.ConsentRequest {
	expires := now.Add(24 * time.Hour)
	return &model.ConsentRequest{
		Title:         "Lab results",
		Organization:  "City Clinic",
		AccessType:    model.AccessRead,
		Fields:        []model.DataField{{Key: "scope", Value: "bloodwork"}},
		ExpiryEnabled: true,
		ExpiresAt:     &expires,
	}
}

func TestCreateWithoutAnchoring(t *testing.T) {
	f := newFixture(t, false, nil)

	resp, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	require.NoError(t, err)
	assert.False(t, resp.Anchored)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, model.ConsentActive, resp.Consent.Status)
	assert.Equal(t, testWallet, resp.Consent.WalletAddress)
	assert.Equal(t, map[string]string{"scope": "bloodwork"}, resp.Consent.Data)
	assert.Equal(t, 0, f.prov.calls)

	stored, err := f.rows.GetConsent(context.Background(), resp.Consent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lab results", stored.Title)
}

func TestCreateExpiredRequestMakesNoCalls(t *testing.T) {
	f := newFixture(t, true, nil)
	req := validRequest(f.now)
	past := f.now.Add(-time.Second)
	req.ExpiresAt = &past

	_, err := f.service.Create(context.Background(), "u1", req)
	assert.True(t, model.IsValidationError(err))
	assert.Equal(t, 0, f.rows.Inserts())
	assert.Equal(t, 0, f.prov.calls)
}

func TestCreateAnchors(t *testing.T) {
	f := newFixture(t, true, nil)

	resp, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	require.NoError(t, err)
	assert.True(t, resp.Anchored)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, []string{"APPADDRESS=0.2"}, f.chain.funded)

	require.Len(t, f.chain.calls, 1)
	call := f.chain.calls[0]
	assert.Equal(t, uint64(77), call.appID)
	assert.Equal(t, CreateConsentMethod, call.signature)
	require.Len(t, call.args, 6)
	assert.Equal(t, "Lab results", call.args[0])
	assert.Equal(t, "City Clinic", call.args[1])
	assert.Equal(t, "read", call.args[2])
	assert.Equal(t, uint64(f.now.Add(24*time.Hour).Unix()), call.args[3])

	// hash covers the plaintext payload, the encrypted form is what gets anchored
	data := call.args[5].(string)
	require.True(t, len(data) > 4 && data[:4] == "enc:")
	sum := sha256.Sum256([]byte(data[4:]))
	assert.Equal(t, hex.EncodeToString(sum[:]), call.args[4])

	stored, err := f.rows.GetConsent(context.Background(), resp.Consent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsentActive, stored.Status)
	require.NotNil(t, stored.AppID)
	assert.Equal(t, uint64(77), *stored.AppID)
	assert.Equal(t, "APPADDRESS", stored.AppAddress)
	assert.Equal(t, "CALLTX", stored.AnchorTxID)
}

func TestCreateEncryptionFallsBackToPlaintext(t *testing.T) {
	f := newFixture(t, true, errors.New("encryption endpoint down"))

	resp, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	require.NoError(t, err)
	assert.True(t, resp.Anchored)
	assert.Contains(t, resp.Warnings, WarningPlaintextPayload)
	assert.Equal(t, 1, f.rows.Inserts())
	assert.Equal(t, 1, f.logs.FilterMessage("payload encryption failed, using plaintext").Len())

	require.Len(t, f.chain.calls, 1)
	data := f.chain.calls[0].args[5].(string)
	assert.Contains(t, data, `"title":"Lab results"`)
}

func TestCreateAnchoringFailureKeepsRow(t *testing.T) {
	f := newFixture(t, true, nil)
	f.chain.fundErr = &model.BlockchainError{Op: "confirm transaction", Err: errors.New("timeout")}

	resp, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	require.NoError(t, err)
	assert.False(t, resp.Anchored)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], WarningNotAnchored)
	assert.Equal(t, 1, f.logs.FilterMessage("consent not anchored").Len())

	stored, err := f.rows.GetConsent(context.Background(), resp.Consent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsentActive, stored.Status)
	assert.Nil(t, stored.AppID)
}

func TestCreateRetriesAnchorRecord(t *testing.T) {
	f := newFixture(t, true, nil)
	f.rows.UpdateErr = errors.New("connection reset")
	f.rows.FailUpdates = 1

	resp, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	require.NoError(t, err)
	assert.True(t, resp.Anchored)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, 1, f.logs.FilterMessage("consent update failed, retrying").Len())

	stored, err := f.rows.GetConsent(context.Background(), resp.Consent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsentActive, stored.Status)
	assert.Equal(t, "CALLTX", stored.AnchorTxID)
}

func TestCreateAnchoredButNotRecorded(t *testing.T) {
	f := newFixture(t, true, nil)
	f.rows.UpdateErr = errors.New("database unavailable")

	resp, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	require.NoError(t, err)
	assert.True(t, resp.Anchored)
	assert.Equal(t, model.ConsentPending, resp.Consent.Status)
	assert.Equal(t, "CALLTX", resp.Consent.AnchorTxID)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], WarningAnchorNotRecorded)
	assert.NotContains(t, resp.Warnings[0], WarningNotAnchored)
	assert.Equal(t, 1, f.logs.FilterMessage("anchor not recorded").Len())

	stored, err := f.rows.GetConsent(context.Background(), resp.Consent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsentPending, stored.Status)
}

func TestCreateProvisionFailureKeepsRow(t *testing.T) {
	f := newFixture(t, true, nil)
	f.prov.err = &model.RemoteServiceError{Service: "provisioner", StatusCode: 500, Err: errors.New("boom")}

	resp, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	require.NoError(t, err)
	assert.False(t, resp.Anchored)
	assert.Equal(t, 1, f.rows.Inserts())
	assert.Empty(t, f.chain.funded)
}

func TestCreateInsertFailure(t *testing.T) {
	f := newFixture(t, true, nil)
	f.rows.InsertErr = errors.New("db down")

	_, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	assert.Error(t, err)
	assert.Equal(t, 0, f.prov.calls)
}

func TestCreateLinksDocument(t *testing.T) {
	f := newFixture(t, false, nil)
	req := validRequest(f.now)
	doc := "doc1"
	req.DocumentID = &doc

	resp, err := f.service.Create(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/doc1", resp.Consent.SignedURL)

	missing := "nope"
	req.DocumentID = &missing
	_, err = f.service.Create(context.Background(), "u1", req)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 1, f.rows.Inserts())
}

func TestListComputesStatusWithoutWriting(t *testing.T) {
	f := newFixture(t, false, nil)
	resp, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	require.NoError(t, err)

	f.now = f.now.Add(48 * time.Hour)
	list, err := f.service.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.ConsentExpired, list[0].Status)
	assert.Equal(t, 0, f.rows.Updates())

	stored, err := f.rows.GetConsent(context.Background(), resp.Consent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsentActive, stored.Status)
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newFixture(t, false, nil)
	resp, err := f.service.Create(context.Background(), "u1", validRequest(f.now))
	require.NoError(t, err)

	c, err := f.service.Revoke(context.Background(), "u1", resp.Consent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsentRevoked, c.Status)
	assert.Equal(t, 1, f.rows.Updates())

	_, err = f.service.Revoke(context.Background(), "u1", resp.Consent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.rows.Updates())

	_, err = f.service.Get(context.Background(), "u2", resp.Consent.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
