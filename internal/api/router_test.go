package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/consent-wallet/consent"
	_ "github.com/AlexZinkM/consent-wallet/docs"
	"github.com/AlexZinkM/consent-wallet/document"
	"github.com/AlexZinkM/consent-wallet/internal/backend"
	"github.com/AlexZinkM/consent-wallet/internal/credstore"
	"github.com/AlexZinkM/consent-wallet/internal/handler"
	"github.com/AlexZinkM/consent-wallet/internal/identity"
	"github.com/AlexZinkM/consent-wallet/internal/model"
	"github.com/AlexZinkM/consent-wallet/internal/prefs"
	"github.com/AlexZinkM/consent-wallet/internal/txlog"
	"github.com/AlexZinkM/consent-wallet/wallet"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type noAuth struct{}

func (noAuth) SignUp(context.Context, string, string) (*model.Session, error) {
	return nil, model.ErrNoSession
}

func (noAuth) SignIn(context.Context, string, string) (*model.Session, error) {
	return nil, model.ErrNoSession
}

func (noAuth) Refresh(context.Context, string) (*model.Session, error) {
	return nil, model.ErrNoSession
}

type noGenerator struct{}

func (noGenerator) Generate(context.Context) (string, string, error) {
	return "", "", model.ErrNotFound
}

type offlineNode struct{}

func (offlineNode) SuggestedParams(context.Context) (types.SuggestedParams, error) {
	return types.SuggestedParams{}, model.ErrNotFound
}

func (offlineNode) SendRawTransaction(context.Context, []byte) (string, error) {
	return "", model.ErrNotFound
}

func (offlineNode) WaitForConfirmation(context.Context, string, uint64) (uint64, error) {
	return 0, model.ErrNotFound
}

func (offlineNode) AccountBalance(context.Context, string) (uint64, error) {
	return 0, model.ErrNotFound
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()
	store := credstore.NewMemoryStore()
	rows := backend.NewMemoryRows()

	sessions := identity.NewSessions(noAuth{}, rows, store, logger)
	keys := wallet.NewManager(store, noGenerator{}, logger)
	submitter := wallet.NewSubmitter(offlineNode{}, keys, txlog.New(filepath.Join(dir, "tx.jsonl")), wallet.SubmitterOptions{}, logger)
	docs := document.NewService(rows, nil, "documents", 0, logger)
	consents := consent.NewService(rows, keys, submitter, nil, nil, docs, consent.Options{}, logger)

	return SetupRouter(Handlers{
		Auth:       handler.NewAuthHandler(sessions, logger),
		Onboarding: handler.NewOnboardingHandler(prefs.NewFile(filepath.Join(dir, "preferences.json")), logger),
		Wallet:     handler.NewWalletHandler(keys, submitter, logger),
		Documents:  handler.NewDocumentHandler(docs, sessions, logger),
		Consents:   handler.NewConsentHandler(consents, sessions, logger),
	}, logger)
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/onboarding", "", http.StatusOK},
		{http.MethodGet, "/wallet", "", http.StatusNotFound},
		{http.MethodGet, "/wallet/balance", "", http.StatusNotFound},
		{http.MethodPost, "/wallet/import", `{"mnemonic":"too short"}`, http.StatusBadRequest},
		{http.MethodPost, "/wallet/pay", `{"toAddress":"","amount":"1"}`, http.StatusBadRequest},
		{http.MethodGet, "/wallet/pay", "", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/wallet", "", http.StatusNoContent},
		{http.MethodGet, "/consents", "", http.StatusUnauthorized},
		{http.MethodGet, "/consents/abc", "", http.StatusUnauthorized},
		{http.MethodGet, "/documents/abc/url", "", http.StatusUnauthorized},
		{http.MethodGet, "/swagger/doc.json", "", http.StatusOK},
		{http.MethodGet, "/nowhere", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body)))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
