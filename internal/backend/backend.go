// Package backend describes the remote auth, relational and object-storage services.
package backend

import (
	"context"
	"io"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// Table names
const (
	TableUsers    = "users"
	TableUploads  = "user_uploads"
	TableConsents = "user_consents"
)

// Auth signs users up and in
type Auth interface {
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*model.Session, error)
}

// Rows is the relational store for users, uploads and consents.
// Get methods return model.ErrNotFound for a missing row.
type Rows interface {
	InsertUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)

	InsertUpload(ctx context.Context, u *model.Upload) error
	GetUpload(ctx context.Context, id string) (*model.Upload, error)
	ListUploads(ctx context.Context, userID string) ([]model.Upload, error)

	InsertConsent(ctx context.Context, c *model.Consent) error
	GetConsent(ctx context.Context, id string) (*model.Consent, error)
	ListConsents(ctx context.Context, userID string) ([]model.Consent, error)
	// ListConsentsByStatus returns consents of every user in one of the given statuses
	ListConsentsByStatus(ctx context.Context, statuses ...model.ConsentStatus) ([]model.Consent, error)
	UpdateConsent(ctx context.Context, id string, upd model.ConsentUpdate) error
}

// Objects is the document object store
type Objects interface {
	Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error
	SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}

type accessTokenKey struct{}

// WithAccessToken attaches the user's access token so row-level security applies
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the token attached by WithAccessToken
func AccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok && token != ""
}
