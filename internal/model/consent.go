package model

import "time"

// ConsentStatus is the lifecycle state of a consent
type ConsentStatus string

const (
	ConsentActive  ConsentStatus = "active"
	ConsentPending ConsentStatus = "pending"
	ConsentExpired ConsentStatus = "expired"
	ConsentRevoked ConsentStatus = "revoked"
)

// AccessType is the access level an organization is granted
type AccessType string

const (
	AccessRead  AccessType = "read"
	AccessWrite AccessType = "write"
	AccessFull  AccessType = "full"
)

// Valid reports whether a is a known access type
func (a AccessType) Valid() bool {
	switch a {
	case AccessRead, AccessWrite, AccessFull:
		return true
	}
	return false
}

// Consent is a row of the user_consents table
type Consent struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	WalletAddress string            `json:"wallet_address"`
	DocumentID    *string           `json:"document_id,omitempty"`
	Title         string            `json:"title"`
	Organization  string            `json:"organization"`
	Description   string            `json:"description,omitempty"`
	AccessType    AccessType        `json:"access_type"`
	ExpiresAt     *time.Time        `json:"expires_at"`
	Status        ConsentStatus     `json:"status"`
	SignedURL     string            `json:"signed_url,omitempty"`
	Data          map[string]string `json:"data,omitempty"`
	AppID         *uint64           `json:"app_id,omitempty"`
	AppAddress    string            `json:"app_address,omitempty"`
	AnchorTxID    string            `json:"anchor_tx_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// DataField is one user-entered key/value pair of a consent
type DataField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ConsentRequest represents request for POST /consents
type ConsentRequest struct {
	Title         string      `json:"title"`
	Organization  string      `json:"organization"`
	Description   string      `json:"description"`
	AccessType    AccessType  `json:"accessType"`
	DocumentID    *string     `json:"documentId,omitempty"`
	Fields        []DataField `json:"fields,omitempty"`
	ExpiryEnabled bool        `json:"expiryEnabled"`
	ExpiresAt     *time.Time  `json:"expiresAt,omitempty"`
}

// ConsentResponse represents response for POST /consents
type ConsentResponse struct {
	Consent  *Consent `json:"consent"`
	Anchored bool     `json:"anchored"`
	Warnings []string `json:"warnings,omitempty"`
}

// ConsentUpdate holds the columns that may change after insert
type ConsentUpdate struct {
	Status     *ConsentStatus
	AppID      *uint64
	AppAddress *string
	AnchorTxID *string
}
