package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenPayload captures the data available when minting a session JWT.
// UserID is the Discord user ID the identity provider resolved during OAuth.
type SessionTokenPayload struct {
	UserID string
	JTI    string
}

// SessionTokenClaims is the typed JWT held by the dashboard browser session.
type SessionTokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
