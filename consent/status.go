// Package consent records user consents and optionally anchors them on Algorand.
package consent

import (
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// ComputeStatus derives the effective status of c at now.
// Revoked wins over expired, and a passed expiry wins over the stored status.
func ComputeStatus(c *model.Consent, now time.Time) model.ConsentStatus {
	switch {
	case c.Status == model.ConsentRevoked:
		return model.ConsentRevoked
	case c.Status == model.ConsentExpired:
		return model.ConsentExpired
	case c.ExpiresAt != nil && !c.ExpiresAt.After(now):
		return model.ConsentExpired
	case c.Status == model.ConsentPending:
		return model.ConsentPending
	default:
		return model.ConsentActive
	}
}
