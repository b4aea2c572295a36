package handler

import (
	"context"
	"net/http"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Consents records and reads the user's consents
type Consents interface {
	Create(ctx context.Context, userID string, req *model.ConsentRequest) (*model.ConsentResponse, error)
	List(ctx context.Context, userID string) ([]model.Consent, error)
	Get(ctx context.Context, userID, id string) (*model.Consent, error)
	Revoke(ctx context.Context, userID, id string) (*model.Consent, error)
}

// ConsentHandler serves the /consents endpoints
type ConsentHandler struct {
	consents Consents
	sessions Sessions
	logger   *zap.Logger
}

// NewConsentHandler creates a ConsentHandler
func NewConsentHandler(consents Consents, sessions Sessions, logger *zap.Logger) *ConsentHandler {
	return &ConsentHandler{consents: consents, sessions: sessions, logger: logger}
}

// Create handles POST /consents
// @Summary      Create consent
// @Description  Saves a consent and anchors it on chain when enabled. Anchoring failures come back as warnings.
// @Tags         consents
// @Accept       json
// @Produce      json
// @Param        request  body      model.ConsentRequest  true  "Consent"
// @Success      201      {object}  model.ConsentResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /consents [post]
func (h *ConsentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, session, err := h.sessions.Authorize(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req model.ConsentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.consents.Create(ctx, session.User.ID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /consents
// @Summary      List consents
// @Tags         consents
// @Produce      json
// @Success      200  {array}   model.Consent
// @Failure      401  {object}  model.ErrorResponse
// @Router       /consents [get]
func (h *ConsentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, session, err := h.sessions.Authorize(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	consents, err := h.consents.List(ctx, session.User.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, consents)
}

// Get handles GET /consents/{id}
// @Summary      Get consent
// @Tags         consents
// @Produce      json
// @Param        id   path      string  true  "Consent ID"
// @Success      200  {object}  model.Consent
// @Failure      404  {object}  model.ErrorResponse
// @Router       /consents/{id} [get]
func (h *ConsentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, session, err := h.sessions.Authorize(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	c, err := h.consents.Get(ctx, session.User.ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Revoke handles POST /consents/{id}/revoke
// @Summary      Revoke consent
// @Tags         consents
// @Produce      json
// @Param        id   path      string  true  "Consent ID"
// @Success      200  {object}  model.Consent
// @Failure      404  {object}  model.ErrorResponse
// @Router       /consents/{id}/revoke [post]
func (h *ConsentHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx, session, err := h.sessions.Authorize(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	c, err := h.consents.Revoke(ctx, session.User.ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
