package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTokenPayload captures the data available when minting a JWT.
// SessionToken is the opaque store key; it travels as the jti.
type SessionTokenPayload struct {
	UserID       uuid.UUID
	SessionToken string
	ExpiresAt    time.Time
}

// SessionTokenClaims represents the typed JWT issued to clients.
type SessionTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionToken returns the opaque store key carried by the token.
func (c *SessionTokenClaims) SessionToken() string {
	if c == nil {
		return ""
	}
	return c.ID
}
