package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/backend"
	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// SupabaseClient talks to the backend's auth (GoTrue), rows (PostgREST) and storage REST APIs
type SupabaseClient struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// NewSupabaseClient creates a new backend client
func NewSupabaseClient(baseURL, anonKey string, timeout time.Duration) *SupabaseClient {
	return &SupabaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// headers returns apikey + bearer; the user's token is used when ctx carries one
func (c *SupabaseClient) headers(ctx context.Context) map[string]string {
	bearer := c.anonKey
	if token, ok := backend.AccessToken(ctx); ok {
		bearer = token
	}
	return map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + bearer,
	}
}

// --- auth ---

type authRequest struct {
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *authUser `json:"user"`
	// sign-up with email confirmation enabled returns the bare user
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r *authResponse) session() *model.Session {
	s := &model.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0).UTC()
	case r.ExpiresIn > 0:
		s.ExpiresAt = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second).UTC()
	}
	if r.User != nil {
		s.User = model.SessionUser{ID: r.User.ID, Email: r.User.Email}
	} else {
		s.User = model.SessionUser{ID: r.ID, Email: r.Email}
	}
	return s
}

func (c *SupabaseClient) auth(ctx context.Context, path string, req authRequest) (*model.Session, error) {
	var resp authResponse
	if err := doJSON(ctx, c.client, "auth", http.MethodPost, c.baseURL+path, c.headers(context.Background()), req, &resp); err != nil {
		return nil, err
	}
	s := resp.session()
	if s.User.ID == "" {
		return nil, &model.RemoteServiceError{Service: "auth", Err: errors.New("response carried no user")}
	}
	return s, nil
}

// SignUp registers a new user
func (c *SupabaseClient) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	return c.auth(ctx, "/auth/v1/signup", authRequest{Email: email, Password: password})
}

// SignIn exchanges email and password for a session
func (c *SupabaseClient) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	return c.auth(ctx, "/auth/v1/token?grant_type=password", authRequest{Email: email, Password: password})
}

// Refresh exchanges a refresh token for a new session
func (c *SupabaseClient) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	return c.auth(ctx, "/auth/v1/token?grant_type=refresh_token", authRequest{RefreshToken: refreshToken})
}

// --- rows ---

func (c *SupabaseClient) restURL(table string, query url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *SupabaseClient) insert(ctx context.Context, table string, row any, prefer string) error {
	h := c.headers(ctx)
	h["Prefer"] = prefer
	return doJSON(ctx, c.client, table, http.MethodPost, c.restURL(table, nil), h, row, nil)
}

func (c *SupabaseClient) selectRows(ctx context.Context, table string, query url.Values, out any) error {
	query.Set("select", "*")
	return doJSON(ctx, c.client, table, http.MethodGet, c.restURL(table, query), c.headers(ctx), nil, out)
}

// InsertUser upserts the users row
func (c *SupabaseClient) InsertUser(ctx context.Context, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return c.insert(ctx, backend.TableUsers, u, "resolution=merge-duplicates,return=minimal")
}

func (c *SupabaseClient) GetUser(ctx context.Context, id string) (*model.User, error) {
	var users []model.User
	if err := c.selectRows(ctx, backend.TableUsers, url.Values{"id": {"eq." + id}}, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, model.ErrNotFound
	}
	return &users[0], nil
}

func (c *SupabaseClient) InsertUpload(ctx context.Context, u *model.Upload) error {
	return c.insert(ctx, backend.TableUploads, u, "return=minimal")
}

func (c *SupabaseClient) GetUpload(ctx context.Context, id string) (*model.Upload, error) {
	var uploads []model.Upload
	if err := c.selectRows(ctx, backend.TableUploads, url.Values{"id": {"eq." + id}}, &uploads); err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, model.ErrNotFound
	}
	return &uploads[0], nil
}

func (c *SupabaseClient) ListUploads(ctx context.Context, userID string) ([]model.Upload, error) {
	uploads := make([]model.Upload, 0)
	q := url.Values{"user_id": {"eq." + userID}, "order": {"created_at.desc"}}
	if err := c.selectRows(ctx, backend.TableUploads, q, &uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}

func (c *SupabaseClient) InsertConsent(ctx context.Context, consent *model.Consent) error {
	return c.insert(ctx, backend.TableConsents, consent, "return=minimal")
}

func (c *SupabaseClient) GetConsent(ctx context.Context, id string) (*model.Consent, error) {
	var consents []model.Consent
	if err := c.selectRows(ctx, backend.TableConsents, url.Values{"id": {"eq." + id}}, &consents); err != nil {
		return nil, err
	}
	if len(consents) == 0 {
		return nil, model.ErrNotFound
	}
	return &consents[0], nil
}

func (c *SupabaseClient) ListConsents(ctx context.Context, userID string) ([]model.Consent, error) {
	consents := make([]model.Consent, 0)
	q := url.Values{"user_id": {"eq." + userID}, "order": {"created_at.desc"}}
	if err := c.selectRows(ctx, backend.TableConsents, q, &consents); err != nil {
		return nil, err
	}
	return consents, nil
}

func (c *SupabaseClient) ListConsentsByStatus(ctx context.Context, statuses ...model.ConsentStatus) ([]model.Consent, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	consents := make([]model.Consent, 0)
	q := url.Values{"status": {"in.(" + strings.Join(names, ",") + ")"}}
	if err := c.selectRows(ctx, backend.TableConsents, q, &consents); err != nil {
		return nil, err
	}
	return consents, nil
}

func (c *SupabaseClient) UpdateConsent(ctx context.Context, id string, upd model.ConsentUpdate) error {
	patch := make(map[string]any)
	if upd.Status != nil {
		patch["status"] = *upd.Status
	}
	if upd.AppID != nil {
		patch["app_id"] = *upd.AppID
	}
	if upd.AppAddress != nil {
		patch["app_address"] = *upd.AppAddress
	}
	if upd.AnchorTxID != nil {
		patch["anchor_tx_id"] = *upd.AnchorTxID
	}
	if len(patch) == 0 {
		return nil
	}

	h := c.headers(ctx)
	h["Prefer"] = "return=representation"
	var updated []json.RawMessage
	u := c.restURL(backend.TableConsents, url.Values{"id": {"eq." + id}})
	if err := doJSON(ctx, c.client, backend.TableConsents, http.MethodPatch, u, h, patch, &updated); err != nil {
		return err
	}
	if len(updated) == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- storage ---

func objectPath(bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// Upload stores body under bucket/path
func (c *SupabaseClient) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/storage/v1/object/"+objectPath(bucket, path), body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	for k, v := range c.headers(ctx) {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := c.client.Do(req)
	if err != nil {
		return &model.RemoteServiceError{Service: "storage", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &model.RemoteServiceError{Service: "storage", StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(msg)))}
	}
	return nil
}

type signRequest struct {
	ExpiresIn int64 `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignURL returns a time-limited link to bucket/path
func (c *SupabaseClient) SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	var resp signResponse
	u := c.baseURL + "/storage/v1/object/sign/" + objectPath(bucket, path)
	if err := doJSON(ctx, c.client, "storage", http.MethodPost, u, c.headers(ctx), signRequest{ExpiresIn: int64(ttl.Seconds())}, &resp); err != nil {
		return "", err
	}
	if resp.SignedURL == "" {
		return "", &model.RemoteServiceError{Service: "storage", Err: errors.New("empty signed URL")}
	}
	if strings.HasPrefix(resp.SignedURL, "http") {
		return resp.SignedURL, nil
	}
	return c.baseURL + "/storage/v1" + resp.SignedURL, nil
}
