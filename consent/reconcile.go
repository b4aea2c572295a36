package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/backend"
	"github.com/AlexZinkM/consent-wallet/internal/model"

	"go.uber.org/zap"
)

// DefaultReconcileInterval is used when Run gets a non-positive interval
const DefaultReconcileInterval = 5 * time.Minute

// PendingTimeout is how long a consent may stay pending before it is promoted to active
const PendingTimeout = 10 * time.Minute

// Reconciler persists the expired status of consents whose expiry has passed
// and promotes consents left pending by an interrupted create
type Reconciler struct {
	rows      backend.Rows
	authorize func(ctx context.Context) (context.Context, error)
	logger    *zap.Logger
	now       func() time.Time
}

// NewReconciler creates a Reconciler. authorize, when set, attaches the
// credentials the rows backend needs; model.ErrNoSession skips the pass.
func NewReconciler(rows backend.Rows, authorize func(ctx context.Context) (context.Context, error), logger *zap.Logger) *Reconciler {
	return &Reconciler{
		rows:      rows,
		authorize: authorize,
		logger:    logger,
		now:       time.Now,
	}
}

// Run reconciles once immediately and then every interval until ctx is done
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("consent reconcile failed", zap.Error(err))
		} else if n > 0 {
			r.logger.Info("consents reconciled", zap.Int("count", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce marks every overdue active or pending consent expired, promotes
// pending consents older than PendingTimeout to active and returns how many it updated
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	if r.authorize != nil {
		authCtx, err := r.authorize(ctx)
		if err != nil {
			if errors.Is(err, model.ErrNoSession) {
				return 0, nil
			}
			return 0, err
		}
		ctx = authCtx
	}

	consents, err := r.rows.ListConsentsByStatus(ctx, model.ConsentActive, model.ConsentPending)
	if err != nil {
		return 0, fmt.Errorf("failed to list consents: %w", err)
	}

	now := r.now()
	expired, active := model.ConsentExpired, model.ConsentActive
	updated := 0
	for i := range consents {
		c := &consents[i]
		switch {
		case ComputeStatus(c, now) == model.ConsentExpired:
			if err := r.rows.UpdateConsent(ctx, c.ID, model.ConsentUpdate{Status: &expired}); err != nil {
				return updated, fmt.Errorf("failed to expire consent %s: %w", c.ID, err)
			}
		case c.Status == model.ConsentPending && now.Sub(c.CreatedAt) > PendingTimeout:
			if err := r.rows.UpdateConsent(ctx, c.ID, model.ConsentUpdate{Status: &active}); err != nil {
				return updated, fmt.Errorf("failed to activate consent %s: %w", c.ID, err)
			}
			r.logger.Warn("stale pending consent activated", zap.String("id", c.ID))
		default:
			continue
		}
		updated++
	}
	return updated, nil
}
