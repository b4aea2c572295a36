// Consent wallet API server.
// Usage: go run ./cmd/consentd
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/consent-wallet/consent"
	_ "github.com/AlexZinkM/consent-wallet/docs"
	"github.com/AlexZinkM/consent-wallet/document"
	"github.com/AlexZinkM/consent-wallet/internal/api"
	"github.com/AlexZinkM/consent-wallet/internal/backend"
	"github.com/AlexZinkM/consent-wallet/internal/client"
	"github.com/AlexZinkM/consent-wallet/internal/config"
	"github.com/AlexZinkM/consent-wallet/internal/credstore"
	"github.com/AlexZinkM/consent-wallet/internal/crypto"
	"github.com/AlexZinkM/consent-wallet/internal/handler"
	"github.com/AlexZinkM/consent-wallet/internal/identity"
	"github.com/AlexZinkM/consent-wallet/internal/prefs"
	"github.com/AlexZinkM/consent-wallet/internal/txlog"
	"github.com/AlexZinkM/consent-wallet/wallet"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 10 * time.Second

// @title        Consent Wallet API
// @version      1.0
// @description  Algorand wallet with consent records kept in Supabase and anchored on chain.
// @host         localhost:8080
// @BasePath     /
func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.Get()

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := config.PromptForPassword(); err != nil {
		return err
	}
	password, err := config.GetVaultPasswordBytes()
	if err != nil {
		return err
	}
	store, err := credstore.OpenFileStore(cfg.VaultPath(), password, crypto.KDFWithLogN(cfg.KDFLogN))
	clear(password)
	config.ForgetPassword()
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supabase := client.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.HTTPTimeout)
	var rows backend.Rows = supabase
	if cfg.DatabaseURL != "" {
		pg, err := backend.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		rows = pg
		logger.Info("using postgres rows backend")
	}

	algod, err := client.NewAlgodClient(cfg.AlgodURL, cfg.AlgodToken)
	if err != nil {
		return err
	}

	sessions := identity.NewSessions(supabase, rows, store, logger.Named("identity"))
	keys := wallet.NewManager(store, client.NewGeneratorClient(cfg.GeneratorURL, cfg.HTTPTimeout), logger.Named("wallet"))
	submitter := wallet.NewSubmitter(algod, keys, txlog.New(cfg.TransactionLogPath()), wallet.SubmitterOptions{
		ConfirmationRounds: cfg.ConfirmationRounds,
		PayCooldown:        time.Duration(cfg.PayCooldownSeconds) * time.Second,
	}, logger.Named("wallet"))
	documents := document.NewService(rows, supabase, cfg.DocumentsBucket, cfg.SignedURLTTL, logger.Named("document"))
	consents := consent.NewService(rows, keys, submitter,
		client.NewProvisionerClient(cfg.ProvisionURL, cfg.HTTPTimeout),
		client.NewEncryptorClient(cfg.EncryptURL, cfg.HTTPTimeout),
		documents,
		consent.Options{Anchor: cfg.AnchorConsents, FundingALGO: cfg.AppFundingALGO},
		logger.Named("consent"))

	reconciler := consent.NewReconciler(rows, func(ctx context.Context) (context.Context, error) {
		authCtx, _, err := sessions.Authorize(ctx)
		return authCtx, err
	}, logger.Named("reconciler"))
	go reconciler.Run(ctx, cfg.ReconcileInterval)

	router := api.SetupRouter(api.Handlers{
		Auth:       handler.NewAuthHandler(sessions, logger),
		Onboarding: handler.NewOnboardingHandler(prefs.NewFile(cfg.PreferencesPath()), logger),
		Wallet:     handler.NewWalletHandler(keys, submitter, logger),
		Documents:  handler.NewDocumentHandler(documents, sessions, logger),
		Consents:   handler.NewConsentHandler(consents, sessions, logger),
	}, logger.Named("http"))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", server.Addr), zap.String("swagger", "http://localhost:"+cfg.Port+"/swagger/index.html"))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	zc := zap.NewProductionConfig()
	if format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
