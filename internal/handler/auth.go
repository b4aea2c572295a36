package handler

import (
	"net/http"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"go.uber.org/zap"
)

// AuthHandler signs the user up, in and out
type AuthHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(sessions Sessions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

// SignUp handles POST /auth/signup
// @Summary      Sign up
// @Description  Registers a user with the backend and stores the session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.CredentialsRequest  true  "Credentials"
// @Success      200      {object}  model.SessionResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	session, err := h.sessions.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := sessionResponse(session)
	resp.ConfirmationRequired = session.AccessToken == ""
	writeJSON(w, http.StatusOK, resp)
}

// SignIn handles POST /auth/signin
// @Summary      Sign in
// @Description  Signs in with email and password and stores the session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.CredentialsRequest  true  "Credentials"
// @Success      200      {object}  model.SessionResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	session, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// SignOut handles POST /auth/signout
// @Summary      Sign out
// @Description  Deletes the stored session. The wallet is kept.
// @Tags         auth
// @Success      204
// @Router       /auth/signout [post]
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionResponse(s *model.Session) model.SessionResponse {
	return model.SessionResponse{
		UserID:    s.User.ID,
		Email:     s.User.Email,
		ExpiresAt: s.ExpiresAt,
	}
}
