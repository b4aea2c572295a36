package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"go.uber.org/zap"
)

// Wallets manages the stored wallet
type Wallets interface {
	Create(ctx context.Context) (*model.WalletResponse, error)
	Import(ctx context.Context, phrase string) (*model.WalletResponse, error)
	Address(ctx context.Context) (*model.WalletResponse, error)
	Reset(ctx context.Context) error
}

// Payments reads the balance and history and sends payments
type Payments interface {
	Balance(ctx context.Context) (*model.BalanceResponse, error)
	Pay(ctx context.Context, toAddress, amount string) (*model.PayResponse, error)
	History(ctx context.Context, req *model.LogRequest) (*model.LogResponse, error)
}

// WalletHandler serves the /wallet endpoints
type WalletHandler struct {
	wallets  Wallets
	payments Payments
	logger   *zap.Logger
}

// NewWalletHandler creates a WalletHandler
func NewWalletHandler(wallets Wallets, payments Payments, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, payments: payments, logger: logger}
}

// Create handles POST /wallet/create
// @Summary      Create wallet
// @Description  Requests a new mnemonic from the generator, verifies it locally and stores it
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.WalletResponse
// @Failure      409  {object}  model.ErrorResponse
// @Failure      422  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /wallet/create [post]
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	resp, err := h.wallets.Create(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Import handles POST /wallet/import
// @Summary      Import wallet
// @Description  Imports a 25-word Algorand mnemonic
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportRequest  true  "Mnemonic"
// @Success      200      {object}  model.WalletResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      422      {object}  model.ErrorResponse
// @Router       /wallet/import [post]
func (h *WalletHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req model.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.wallets.Import(r.Context(), req.Mnemonic)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /wallet
// @Summary      Wallet address
// @Description  Returns the stored address and a QR code for receiving
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.WalletResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallet [get]
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.wallets.Address(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reset handles DELETE /wallet
// @Summary      Reset wallet
// @Description  Deletes the mnemonic, the address and the session
// @Tags         wallet
// @Success      204
// @Router       /wallet [delete]
func (h *WalletHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.wallets.Reset(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Balance handles GET /wallet/balance
// @Summary      Get wallet balance
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.BalanceResponse
// @Failure      404  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /wallet/balance [get]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	resp, err := h.payments.Balance(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Pay handles POST /wallet/pay
// @Summary      Send ALGO
// @Description  Sends a payment and waits for confirmation
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PayRequest  true  "Payment data"
// @Success      200      {object}  model.PayResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /wallet/pay [post]
func (h *WalletHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req model.PayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.payments.Pay(r.Context(), req.ToAddress, req.Amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Transactions handles GET /wallet/transactions
// @Summary      Get wallet transactions
// @Description  Gets locally logged transactions with filtering
// @Tags         wallet
// @Produce      json
// @Param        type       query     string   false  "Transaction type: SEND, FUND or APP_CALL"
// @Param        txId       query     string   false  "Transaction ID"
// @Param        from       query     string   false  "Start date (YYYY-MM-DD)"
// @Param        to         query     string   false  "End date (YYYY-MM-DD)"
// @Param        minAmount  query     string   false  "Minimum amount"
// @Param        maxAmount  query     string   false  "Maximum amount"
// @Success      200  {object}  model.LogResponse
// @Failure      400  {object}  model.ErrorResponse
// @Router       /wallet/transactions [get]
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	var req model.LogRequest
	q := r.URL.Query()

	from, err := queryDay(q, "from", false)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	to, err := queryDay(q, "to", true)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.From, req.To = from, to

	if typeStr := q.Get("type"); typeStr != "" {
		txType := model.TransactionType(typeStr)
		req.Type = &txType
	}
	if txID := q.Get("txId"); txID != "" {
		req.TxID = &txID
	}
	if minAmount := q.Get("minAmount"); minAmount != "" {
		req.MinAmount = &minAmount
	}
	if maxAmount := q.Get("maxAmount"); maxAmount != "" {
		req.MaxAmount = &maxAmount
	}

	resp, err := h.payments.History(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// queryDay reads an optional YYYY-MM-DD parameter. With endOfDay the last
// nanosecond of that day is returned so the range stays inclusive.
func queryDay(q url.Values, name string, endOfDay bool) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, model.NewValidationError(name, "invalid date: use YYYY-MM-DD (e.g. 2006-01-02)")
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
