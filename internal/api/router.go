package api

import (
	"net/http"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/handler"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Handlers groups the API handlers the router serves
type Handlers struct {
	Auth       *handler.AuthHandler
	Onboarding *handler.OnboardingHandler
	Wallet     *handler.WalletHandler
	Documents  *handler.DocumentHandler
	Consents   *handler.ConsentHandler
}

// SetupRouter sets up router with handlers
func SetupRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger(logger))

	// Swagger UI
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Auth endpoints
	r.HandleFunc("/auth/signup", h.Auth.SignUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/signin", h.Auth.SignIn).Methods(http.MethodPost)
	r.HandleFunc("/auth/signout", h.Auth.SignOut).Methods(http.MethodPost)

	r.HandleFunc("/onboarding", h.Onboarding.Get).Methods(http.MethodGet)
	r.HandleFunc("/onboarding", h.Onboarding.Set).Methods(http.MethodPost)

	// Wallet endpoints
	r.HandleFunc("/wallet", h.Wallet.Get).Methods(http.MethodGet)
	r.HandleFunc("/wallet", h.Wallet.Reset).Methods(http.MethodDelete)
	r.HandleFunc("/wallet/create", h.Wallet.Create).Methods(http.MethodPost)
	r.HandleFunc("/wallet/import", h.Wallet.Import).Methods(http.MethodPost)
	r.HandleFunc("/wallet/balance", h.Wallet.Balance).Methods(http.MethodGet)
	r.HandleFunc("/wallet/pay", h.Wallet.Pay).Methods(http.MethodPost)
	r.HandleFunc("/wallet/transactions", h.Wallet.Transactions).Methods(http.MethodGet)

	// Document endpoints
	r.HandleFunc("/documents", h.Documents.Upload).Methods(http.MethodPost)
	r.HandleFunc("/documents", h.Documents.List).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}/url", h.Documents.SignedURL).Methods(http.MethodGet)

	// Consent endpoints
	r.HandleFunc("/consents", h.Consents.Create).Methods(http.MethodPost)
	r.HandleFunc("/consents", h.Consents.List).Methods(http.MethodGet)
	r.HandleFunc("/consents/{id}", h.Consents.Get).Methods(http.MethodGet)
	r.HandleFunc("/consents/{id}/revoke", h.Consents.Revoke).Methods(http.MethodPost)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
