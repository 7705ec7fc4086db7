package auth

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the package needs. Messages carry
// key/value pairs; implementations must never receive raw tokens or
// password material.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated principal.
type Identity interface {
	ID() string
	Name() string
	Email() string
}

// IdentityProvider is the credential-store boundary the authenticator and
// middleware consume.
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (Identity, error)
	FindIdentityByID(ctx context.Context, id string) (Identity, error)
}

// TokenService mints and validates signed tokens.
type TokenService interface {
	Generate(identity Identity) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// PasswordAuthenticator hashes and verifies passwords.
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Config is the configuration surface consumed by the token codec, the
// middleware, and the HTTP controller. The signing key is loaded once at
// process start and is immutable afterwards.
type Config interface {
	GetSigningKey() string
	GetTokenTTL() time.Duration
	GetTokenLookup() string
	GetAuthScheme() string
	GetContextKey() string
	GetCookieName() string
	GetBcryptCost() int
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
