package consent

import (
	"strings"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// Validate checks a consent request. It does no I/O.
func Validate(req *model.ConsentRequest, now time.Time) error {
	if strings.TrimSpace(req.Title) == "" {
		return model.NewValidationError("title", "title is required")
	}
	if strings.TrimSpace(req.Organization) == "" {
		return model.NewValidationError("organization", "organization is required")
	}

	if req.AccessType == "" {
		req.AccessType = model.AccessRead
	}
	if !req.AccessType.Valid() {
		return model.NewValidationError("accessType", "must be read, write or full")
	}

	if len(req.Fields) > 0 {
		complete := false
		for _, f := range req.Fields {
			if strings.TrimSpace(f.Key) != "" && strings.TrimSpace(f.Value) != "" {
				complete = true
				break
			}
		}
		if !complete {
			return model.NewValidationError("fields", "at least one field needs both a key and a value")
		}
	}

	if req.ExpiryEnabled {
		if req.ExpiresAt == nil {
			return model.NewValidationError("expiresAt", "expiry date is required when expiry is enabled")
		}
		if !req.ExpiresAt.After(now) {
			return model.NewValidationError("expiresAt", "must be in the future")
		}
	}
	return nil
}

// fieldData keeps the complete key/value pairs of the request
func fieldData(fields []model.DataField) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	data := make(map[string]string, len(fields))
	for _, f := range fields {
		key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if key == "" || value == "" {
			continue
		}
		data[key] = value
	}
	return data
}
