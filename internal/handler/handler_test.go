package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessions struct {
	session *model.Session
	err     error
}

func (f *fakeSessions) SignUp(context.Context, string, string) (*model.Session, error) {
	return f.session, f.err
}

func (f *fakeSessions) SignIn(context.Context, string, string) (*model.Session, error) {
	return f.session, f.err
}

func (f *fakeSessions) SignOut(context.Context) error { return f.err }

func (f *fakeSessions) Authorize(ctx context.Context) (context.Context, *model.Session, error) {
	if f.session == nil {
		return nil, nil, model.ErrNoSession
	}
	return ctx, f.session, nil
}

type fakeWallets struct {
	imported string
	err      error
}

func (f *fakeWallets) Create(context.Context) (*model.WalletResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.WalletResponse{Success: true, Address: "ADDR"}, nil
}

func (f *fakeWallets) Import(_ context.Context, phrase string) (*model.WalletResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.imported = phrase
	return &model.WalletResponse{Success: true, Address: "ADDR"}, nil
}

func (f *fakeWallets) Address(context.Context) (*model.WalletResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.WalletResponse{Success: true, Address: "ADDR"}, nil
}

func (f *fakeWallets) Reset(context.Context) error { return f.err }

type fakePayments struct {
	lastReq *model.LogRequest
	err     error
}

func (f *fakePayments) Balance(context.Context) (*model.BalanceResponse, error) {
	return &model.BalanceResponse{Address: "ADDR", ALGO: "1.000000", MicroAlgos: 1000000}, f.err
}

func (f *fakePayments) Pay(_ context.Context, to, amount string) (*model.PayResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.PayResponse{TxID: "TX-" + to + "-" + amount, ConfirmedRound: 9}, nil
}

func (f *fakePayments) History(_ context.Context, req *model.LogRequest) (*model.LogResponse, error) {
	f.lastReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &model.LogResponse{Address: "ADDR", TotalSentALGO: "0.000000", Transactions: []model.TransactionRecord{}}, nil
}

type fakeConsents struct {
	userID string
}

func (f *fakeConsents) Create(_ context.Context, userID string, req *model.ConsentRequest) (*model.ConsentResponse, error) {
	f.userID = userID
	if req.Title == "" {
		return nil, model.NewValidationError("title", "title is required")
	}
	return &model.ConsentResponse{
		Consent:  &model.Consent{ID: "c1", UserID: userID, Title: req.Title},
		Warnings: []string{"saved to database but not to blockchain: boom"},
	}, nil
}

func (f *fakeConsents) List(_ context.Context, userID string) ([]model.Consent, error) {
	return []model.Consent{{ID: "c1", UserID: userID}}, nil
}

func (f *fakeConsents) Get(_ context.Context, userID, id string) (*model.Consent, error) {
	if id != "c1" {
		return nil, model.ErrNotFound
	}
	return &model.Consent{ID: id, UserID: userID}, nil
}

func (f *fakeConsents) Revoke(_ context.Context, userID, id string) (*model.Consent, error) {
	return &model.Consent{ID: id, UserID: userID, Status: model.ConsentRevoked}, nil
}

type fakeDocuments struct {
	name string
	body string
}

func (f *fakeDocuments) Upload(_ context.Context, userID, fileName, contentType string, size int64, body io.Reader) (*model.Upload, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.name, f.body = fileName, string(data)
	return &model.Upload{ID: "d1", UserID: userID, FileName: fileName, Size: size}, nil
}

func (f *fakeDocuments) List(_ context.Context, userID string) ([]model.Upload, error) {
	return []model.Upload{{ID: "d1", UserID: userID}}, nil
}

func (f *fakeDocuments) SignedURL(_ context.Context, _, uploadID string) (*model.SignedURLResponse, error) {
	return &model.SignedURLResponse{URL: "https://files.example/" + uploadID}, nil
}

func signedIn() *fakeSessions {
	return &fakeSessions{session: &model.Session{AccessToken: "tok", User: model.SessionUser{ID: "u1", Email: "a@b.co"}}}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{model.NewValidationError("amount", "bad"), http.StatusBadRequest, model.CodeValidation},
		{&model.InvalidMnemonicError{Err: errors.New("checksum")}, http.StatusUnprocessableEntity, model.CodeInvalidMnemonic},
		{&model.GenerationError{Err: &model.RemoteServiceError{Service: "generator", StatusCode: 500, Err: errors.New("x")}}, http.StatusBadGateway, model.CodeGeneration},
		{&model.BlockchainError{Op: "send transaction", Err: errors.New("x")}, http.StatusBadGateway, model.CodeBlockchain},
		{&model.RemoteServiceError{Service: "supabase", StatusCode: 500, Err: errors.New("x")}, http.StatusBadGateway, model.CodeRemoteService},
		{&model.RemoteServiceError{Service: "supabase", StatusCode: 401, Err: errors.New("x")}, http.StatusUnauthorized, model.CodeUnauthorized},
		{fmt.Errorf("load: %w", model.ErrNoWallet), http.StatusNotFound, model.CodeNoWallet},
		{model.ErrNotFound, http.StatusNotFound, model.CodeNotFound},
		{model.ErrNoSession, http.StatusUnauthorized, model.CodeUnauthorized},
		{model.ErrWalletExists, http.StatusConflict, model.CodeWalletExists},
		{errors.New("disk full"), http.StatusInternalServerError, model.CodeInternal},
	}
	for _, tc := range cases {
		status, code := classify(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestWalletImport(t *testing.T) {
	wallets := &fakeWallets{}
	h := NewWalletHandler(wallets, &fakePayments{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Import(rec, httptest.NewRequest(http.MethodPost, "/wallet/import", bytes.NewBufferString(`{"mnemonic":"a b c"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a b c", wallets.imported)

	rec = httptest.NewRecorder()
	h.Import(rec, httptest.NewRequest(http.MethodPost, "/wallet/import", bytes.NewBufferString(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.CodeValidation, decodeError(t, rec).Code)
}

func TestWalletGetWithoutWallet(t *testing.T) {
	h := NewWalletHandler(&fakeWallets{err: model.ErrNoWallet}, &fakePayments{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/wallet", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, model.CodeNoWallet, decodeError(t, rec).Code)
}

func TestWalletPay(t *testing.T) {
	h := NewWalletHandler(&fakeWallets{}, &fakePayments{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Pay(rec, httptest.NewRequest(http.MethodPost, "/wallet/pay", bytes.NewBufferString(`{"toAddress":"TO","amount":"1.5"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.PayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "TX-TO-1.5", resp.TxID)
}

func TestWalletTransactionsParsesFilters(t *testing.T) {
	payments := &fakePayments{}
	h := NewWalletHandler(&fakeWallets{}, payments, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Transactions(rec, httptest.NewRequest(http.MethodGet, "/wallet/transactions?type=SEND&from=2025-01-01&to=2025-01-31&minAmount=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, payments.lastReq.Type)
	assert.Equal(t, model.TransactionTypeSend, *payments.lastReq.Type)
	assert.Equal(t, 31, payments.lastReq.To.Day())
	assert.Equal(t, 23, payments.lastReq.To.Hour())

	rec = httptest.NewRecorder()
	h.Transactions(rec, httptest.NewRequest(http.MethodGet, "/wallet/transactions?from=01-01-2025", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Transactions(rec, httptest.NewRequest(http.MethodGet, "/wallet/transactions?type=BURN", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletTransactionsRejectsInvertedRange(t *testing.T) {
	payments := &fakePayments{}
	h := NewWalletHandler(&fakeWallets{}, payments, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Transactions(rec, httptest.NewRequest(http.MethodGet, "/wallet/transactions?from=2025-02-01&to=2025-01-31", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, payments.lastReq)
	assert.True(t, payments.lastReq.From.After(*payments.lastReq.To))

	// a single day is a valid range
	rec = httptest.NewRecorder()
	h.Transactions(rec, httptest.NewRequest(http.MethodGet, "/wallet/transactions?from=2025-01-31&to=2025-01-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, payments.lastReq.From.Hour())
	assert.Equal(t, 31, payments.lastReq.To.Day())
}

func TestConsentsRequireSession(t *testing.T) {
	h := NewConsentHandler(&fakeConsents{}, &fakeSessions{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/consents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConsentCreateReturnsWarnings(t *testing.T) {
	consents := &fakeConsents{}
	h := NewConsentHandler(consents, signedIn(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/consents", bytes.NewBufferString(`{"title":"Share","organization":"Acme"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", consents.userID)

	var resp model.ConsentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.Consent.ID)
	assert.Len(t, resp.Warnings, 1)

	rec = httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/consents", bytes.NewBufferString(`{"organization":"Acme"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConsentGetUsesPathID(t *testing.T) {
	h := NewConsentHandler(&fakeConsents{}, signedIn(), zap.NewNop())

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/consents/c1", nil), map[string]string{"id": "c1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/consents/c9", nil), map[string]string{"id": "c9"})
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentUploadMultipart(t *testing.T) {
	docs := &fakeDocuments{}
	h := NewDocumentHandler(docs, signedIn(), zap.NewNop())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "scan.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "scan.pdf", docs.name)
	assert.Equal(t, "%PDF", docs.body)
}

func TestDocumentUploadWithoutFile(t *testing.T) {
	h := NewDocumentHandler(&fakeDocuments{}, signedIn(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.Upload(rec, httptest.NewRequest(http.MethodPost, "/documents", bytes.NewBufferString("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthSignUpPendingConfirmation(t *testing.T) {
	h := NewAuthHandler(&fakeSessions{session: &model.Session{User: model.SessionUser{ID: "u1", Email: "a@b.co"}}}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.SignUp(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(`{"email":"a@b.co","password":"secret1"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.ConfirmationRequired)
	assert.Equal(t, "u1", resp.UserID)
}

func TestAuthSignInRemoteFailure(t *testing.T) {
	h := NewAuthHandler(&fakeSessions{err: &model.RemoteServiceError{Service: "supabase auth", StatusCode: 400, Err: errors.New("invalid login")}}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.SignIn(rec, httptest.NewRequest(http.MethodPost, "/auth/signin", bytes.NewBufferString(`{"email":"a@b.co","password":"secret1"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, model.CodeRemoteService, decodeError(t, rec).Code)
}
