// Package identity keeps the signed-in user's session in the credential store.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/backend"
	"github.com/AlexZinkM/consent-wallet/internal/credstore"
	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// refreshLeeway is how close to expiry a session is refreshed
const refreshLeeway = 30 * time.Second

const minPasswordLen = 6

// Sessions signs the user up/in and hands out the current session
type Sessions struct {
	auth   backend.Auth
	rows   backend.Rows
	store  credstore.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewSessions creates a session manager
func NewSessions(auth backend.Auth, rows backend.Rows, store credstore.Store, logger *zap.Logger) *Sessions {
	return &Sessions{
		auth:   auth,
		rows:   rows,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return model.NewValidationError("email", "invalid email address")
	}
	if len(password) < minPasswordLen {
		return model.NewValidationError("password", "must be at least %d characters", minPasswordLen)
	}
	return nil
}

// SignUp registers the user, persists the session and creates the users row.
// When the backend requires email confirmation no session is issued and nothing is persisted.
func (s *Sessions) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	session, err := s.auth.SignUp(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, fmt.Errorf("sign up failed: %w", err)
	}
	if session.AccessToken == "" {
		s.logger.Info("sign up pending email confirmation", zap.String("user_id", session.User.ID))
		return session, nil
	}

	if err := s.persist(session); err != nil {
		return nil, err
	}

	user := &model.User{ID: session.User.ID, Email: session.User.Email}
	if addr, err := s.store.Get(model.CredentialAddress); err == nil {
		user.WalletAddress = addr
	}
	if err := s.rows.InsertUser(backend.WithAccessToken(ctx, session.AccessToken), user); err != nil {
		return nil, fmt.Errorf("failed to create user row: %w", err)
	}
	return session, nil
}

// SignIn authenticates and persists the session
func (s *Sessions) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	session, err := s.auth.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, fmt.Errorf("sign in failed: %w", err)
	}
	if err := s.persist(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Current returns the stored session, refreshing it when it is about to expire.
// Returns model.ErrNoSession when nobody is signed in.
func (s *Sessions) Current(ctx context.Context) (*model.Session, error) {
	raw, err := s.store.Get(model.CredentialSession)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to parse stored session: %w", err)
	}

	expiry := expiresAt(&session)
	if expiry.IsZero() || s.now().Add(refreshLeeway).Before(expiry) {
		return &session, nil
	}

	if session.RefreshToken == "" {
		return nil, model.ErrNoSession
	}
	refreshed, err := s.auth.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	if err := s.persist(refreshed); err != nil {
		return nil, err
	}
	s.logger.Debug("session refreshed", zap.String("user_id", refreshed.User.ID))
	return refreshed, nil
}

// Authorize returns ctx carrying the current access token, and the session
func (s *Sessions) Authorize(ctx context.Context) (context.Context, *model.Session, error) {
	session, err := s.Current(ctx)
	if err != nil {
		return ctx, nil, err
	}
	return backend.WithAccessToken(ctx, session.AccessToken), session, nil
}

// SignOut forgets the stored session
func (s *Sessions) SignOut(_ context.Context) error {
	return s.store.Delete(model.CredentialSession)
}

func (s *Sessions) persist(session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.store.Set(model.CredentialSession, string(data)); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// expiresAt prefers the access token's exp claim over the stored expiry.
// The token is not verified here; the backend does that on every call.
func expiresAt(session *model.Session) time.Time {
	if session.AccessToken != "" {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(session.AccessToken, claims); err == nil {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				return exp.Time
			}
		}
	}
	return session.ExpiresAt
}
