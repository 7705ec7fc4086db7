package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the decoded view of a verified token.
type AuthClaims interface {
	Subject() string
	UserID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete claim set the codec signs: registered claims
// plus a uid mirror of the subject.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the principal id the token was minted for.
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
