package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxUploadSize caps a single document upload
const maxUploadSize = 20 << 20

// Documents stores and lists the user's documents
type Documents interface {
	Upload(ctx context.Context, userID, fileName, contentType string, size int64, body io.Reader) (*model.Upload, error)
	List(ctx context.Context, userID string) ([]model.Upload, error)
	SignedURL(ctx context.Context, userID, uploadID string) (*model.SignedURLResponse, error)
}

// DocumentHandler serves the /documents endpoints
type DocumentHandler struct {
	documents Documents
	sessions  Sessions
	logger    *zap.Logger
}

// NewDocumentHandler creates a DocumentHandler
func NewDocumentHandler(documents Documents, sessions Sessions, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{documents: documents, sessions: sessions, logger: logger}
}

// Upload handles POST /documents
// @Summary      Upload document
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Document"
// @Success      201   {object}  model.Upload
// @Failure      400   {object}  model.ErrorResponse
// @Failure      401   {object}  model.ErrorResponse
// @Router       /documents [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, session, err := h.sessions.Authorize(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, model.NewValidationError("file", "%v", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	upload, err := h.documents.Upload(ctx, session.User.ID, header.Filename, contentType, header.Size, file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}

// List handles GET /documents
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Success      200  {array}   model.Upload
// @Failure      401  {object}  model.ErrorResponse
// @Router       /documents [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, session, err := h.sessions.Authorize(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	uploads, err := h.documents.List(ctx, session.User.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}

// SignedURL handles GET /documents/{id}/url
// @Summary      Signed document link
// @Tags         documents
// @Produce      json
// @Param        id   path      string  true  "Upload ID"
// @Success      200  {object}  model.SignedURLResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /documents/{id}/url [get]
func (h *DocumentHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	ctx, session, err := h.sessions.Authorize(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	link, err := h.documents.SignedURL(ctx, session.User.ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}
