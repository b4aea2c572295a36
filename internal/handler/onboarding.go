package handler

import (
	"net/http"

	"github.com/AlexZinkM/consent-wallet/internal/model"
	"github.com/AlexZinkM/consent-wallet/internal/prefs"

	"go.uber.org/zap"
)

// Preferences stores the onboarding flag
type Preferences interface {
	Load() (prefs.Preferences, error)
	SetOnboardingComplete(done bool) error
}

// OnboardingHandler reads and sets the onboarding flag
type OnboardingHandler struct {
	prefs  Preferences
	logger *zap.Logger
}

// NewOnboardingHandler creates an OnboardingHandler
func NewOnboardingHandler(p Preferences, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{prefs: p, logger: logger}
}

// Get handles GET /onboarding
// @Summary      Onboarding state
// @Tags         onboarding
// @Produce      json
// @Success      200  {object}  model.OnboardingState
// @Router       /onboarding [get]
func (h *OnboardingHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.prefs.Load()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, model.OnboardingState{Completed: p.OnboardingComplete})
}

// Set handles POST /onboarding
// @Summary      Set onboarding state
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Param        request  body      model.OnboardingState  true  "Onboarding state"
// @Success      200      {object}  model.OnboardingState
// @Router       /onboarding [post]
func (h *OnboardingHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req model.OnboardingState
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.prefs.SetOnboardingComplete(req.Completed); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
