package model

import "time"

// SessionUser is the authenticated identity inside a session
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the authentication session persisted in the credential store
type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         SessionUser `json:"user"`
}

// User is a row of the users table
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CredentialsRequest represents request for POST /auth/signup and /auth/signin
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse represents response for sign-up/sign-in
type SessionResponse struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`

	// ConfirmationRequired is set when sign-up issued no session yet
	ConfirmationRequired bool `json:"confirmationRequired,omitempty"`
}

// OnboardingState represents request/response for /onboarding
type OnboardingState struct {
	Completed bool `json:"completed"`
}
