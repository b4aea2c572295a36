package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRows is a Rows backed directly by the Postgres database behind the backend
type PostgresRows struct {
	Pool *pgxpool.Pool
}

// ConnectPostgres opens a pool against connString and pings it
func ConnectPostgres(ctx context.Context, connString string) (*PostgresRows, error) {
	connString = strings.TrimSpace(connString)
	if connString == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRows{Pool: pool}, nil
}

// Close releases the pool
func (db *PostgresRows) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// InsertUser inserts the user, or refreshes its wallet address if it already exists
func (db *PostgresRows) InsertUser(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, email, wallet_address, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			wallet_address = COALESCE(EXCLUDED.wallet_address, users.wallet_address)
		RETURNING created_at
	`
	if err := db.Pool.QueryRow(ctx, query, u.ID, u.Email, u.WalletAddress).Scan(&u.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (db *PostgresRows) GetUser(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	query := `
		SELECT id, email, COALESCE(wallet_address, ''), created_at
		FROM users
		WHERE id = $1
	`
	err := db.Pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.WalletAddress, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (db *PostgresRows) InsertUpload(ctx context.Context, u *model.Upload) error {
	query := `
		INSERT INTO user_uploads (id, user_id, file_name, path, content_type, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.Pool.Exec(ctx, query, u.ID, u.UserID, u.FileName, u.Path, u.ContentType, u.Size, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

const uploadColumns = `id, user_id, file_name, path, content_type, size, created_at`

func scanUpload(row pgx.Row) (*model.Upload, error) {
	u := &model.Upload{}
	err := row.Scan(&u.ID, &u.UserID, &u.FileName, &u.Path, &u.ContentType, &u.Size, &u.CreatedAt)
	return u, err
}

func (db *PostgresRows) GetUpload(ctx context.Context, id string) (*model.Upload, error) {
	u, err := scanUpload(db.Pool.QueryRow(ctx, `SELECT `+uploadColumns+` FROM user_uploads WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "upload")
	}
	return u, nil
}

func (db *PostgresRows) ListUploads(ctx context.Context, userID string) ([]model.Upload, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+uploadColumns+` FROM user_uploads WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]model.Upload, 0)
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, *u)
	}
	return uploads, rows.Err()
}

const consentColumns = `id, user_id, wallet_address, document_id, title, organization, description,
	access_type, expires_at, status, signed_url, data, app_id, app_address, anchor_tx_id, created_at`

func (db *PostgresRows) InsertConsent(ctx context.Context, c *model.Consent) error {
	data, err := json.Marshal(c.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal consent data: %w", err)
	}
	var appID *int64
	if c.AppID != nil {
		v := int64(*c.AppID)
		appID = &v
	}

	query := `
		INSERT INTO user_consents (` + consentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = db.Pool.Exec(ctx, query,
		c.ID, c.UserID, c.WalletAddress, c.DocumentID, c.Title, c.Organization, c.Description,
		string(c.AccessType), c.ExpiresAt, string(c.Status), c.SignedURL, data, appID,
		c.AppAddress, c.AnchorTxID, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert consent: %w", err)
	}
	return nil
}

func scanConsent(row pgx.Row) (*model.Consent, error) {
	c := &model.Consent{}
	var (
		accessType, status string
		data               []byte
		appID              *int64
		// optional text columns are NULL when the REST client omitted them
		walletAddress, description, signedURL, appAddress, anchorTxID *string
	)
	err := row.Scan(
		&c.ID, &c.UserID, &walletAddress, &c.DocumentID, &c.Title, &c.Organization, &description,
		&accessType, &c.ExpiresAt, &status, &signedURL, &data, &appID, &appAddress, &anchorTxID, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.WalletAddress = deref(walletAddress)
	c.Description = deref(description)
	c.SignedURL = deref(signedURL)
	c.AppAddress = deref(appAddress)
	c.AnchorTxID = deref(anchorTxID)
	c.AccessType = model.AccessType(accessType)
	c.Status = model.ConsentStatus(status)
	if appID != nil {
		v := uint64(*appID)
		c.AppID = &v
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal consent data: %w", err)
		}
	}
	return c, nil
}

func (db *PostgresRows) GetConsent(ctx context.Context, id string) (*model.Consent, error) {
	c, err := scanConsent(db.Pool.QueryRow(ctx, `SELECT `+consentColumns+` FROM user_consents WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "consent")
	}
	return c, nil
}

func (db *PostgresRows) ListConsents(ctx context.Context, userID string) ([]model.Consent, error) {
	return db.queryConsents(ctx, `SELECT `+consentColumns+` FROM user_consents WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (db *PostgresRows) ListConsentsByStatus(ctx context.Context, statuses ...model.ConsentStatus) ([]model.Consent, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return db.queryConsents(ctx, `SELECT `+consentColumns+` FROM user_consents WHERE status = ANY($1)`, names)
}

func (db *PostgresRows) queryConsents(ctx context.Context, query string, args ...any) ([]model.Consent, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}
	defer rows.Close()

	consents := make([]model.Consent, 0)
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		consents = append(consents, *c)
	}
	return consents, rows.Err()
}

func (db *PostgresRows) UpdateConsent(ctx context.Context, id string, upd model.ConsentUpdate) error {
	var appID *int64
	if upd.AppID != nil {
		v := int64(*upd.AppID)
		appID = &v
	}
	var status *string
	if upd.Status != nil {
		s := string(*upd.Status)
		status = &s
	}

	query := `
		UPDATE user_consents SET
			status = COALESCE($2, status),
			app_id = COALESCE($3, app_id),
			app_address = COALESCE($4, app_address),
			anchor_tx_id = COALESCE($5, anchor_tx_id)
		WHERE id = $1
	`
	tag, err := db.Pool.Exec(ctx, query, id, status, appID, upd.AppAddress, upd.AnchorTxID)
	if err != nil {
		return fmt.Errorf("failed to update consent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
