// Package document stores user documents in the object store and hands out signed links.
package document

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/backend"
	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSignedURLTTL is used when no TTL is configured
const DefaultSignedURLTTL = time.Hour

// Service uploads documents and lists them per user
type Service struct {
	rows    backend.Rows
	objects backend.Objects
	bucket  string
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a document service writing to bucket
func NewService(rows backend.Rows, objects backend.Objects, bucket string, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &Service{
		rows:    rows,
		objects: objects,
		bucket:  bucket,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Upload stores body under <userID>/<uuid>-<name> and records the upload row
func (s *Service) Upload(ctx context.Context, userID, fileName, contentType string, size int64, body io.Reader) (*model.Upload, error) {
	name := cleanName(fileName)
	if name == "" {
		return nil, model.NewValidationError("file", "file name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.NewString()
	objectPath := fmt.Sprintf("%s/%s-%s", userID, id, name)

	if err := s.objects.Upload(ctx, s.bucket, objectPath, contentType, body); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}

	upload := &model.Upload{
		ID:          id,
		UserID:      userID,
		FileName:    name,
		Path:        objectPath,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.rows.InsertUpload(ctx, upload); err != nil {
		// the object is orphaned; there is no delete endpoint to clean it up
		s.logger.Warn("upload stored without row", zap.String("path", objectPath), zap.Error(err))
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	s.logger.Info("document uploaded", zap.String("id", id), zap.Int64("size", size))
	return upload, nil
}

// List returns the user's uploads, newest first
func (s *Service) List(ctx context.Context, userID string) ([]model.Upload, error) {
	uploads, err := s.rows.ListUploads(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return uploads, nil
}

// SignedURL returns a time-limited link to one of the user's uploads.
// Uploads of other users are reported as not found.
func (s *Service) SignedURL(ctx context.Context, userID, uploadID string) (*model.SignedURLResponse, error) {
	upload, err := s.rows.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if upload.UserID != userID {
		return nil, model.ErrNotFound
	}

	expiresAt := s.now().Add(s.ttl).UTC()
	url, err := s.objects.SignURL(ctx, s.bucket, upload.Path, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to sign url: %w", err)
	}

	return &model.SignedURLResponse{URL: url, ExpiresAt: expiresAt}, nil
}

func cleanName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return strings.ReplaceAll(name, " ", "_")
}
