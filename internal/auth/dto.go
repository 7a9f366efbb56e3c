package auth

import (
	"time"

	"github.com/angelmondragon/phytopro-backend/internal/users"
)

// RegisterRequest carries a password-based sign up.
type RegisterRequest struct {
	Email             string  `json:"email" validate:"required,email"`
	Password          string  `json:"password" validate:"required,min=8"`
	Name              string  `json:"name" validate:"required"`
	IsProfessional    bool    `json:"is_professional"`
	CertificateNumber *string `json:"certificate_number,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ExchangeRequest carries the one-time id issued by the identity provider.
type ExchangeRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// SessionResult is returned by every flow that opens a session.
type SessionResult struct {
	User         *users.UserDTO `json:"user"`
	SessionToken string         `json:"session_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
}
