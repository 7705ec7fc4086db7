// Package authware guards protected routes. It walks a request through
// token extraction, token validation, and principal loading, attaching the
// principal on success and rejecting with one uniform 401 otherwise. The
// rejection is deliberately uninformative: a missing header, a forged
// token, an expired token, and a deleted account are indistinguishable to
// the caller.
package authware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// TokenValidator validates a raw token and returns structured claims.
// This mirrors the TokenService.Validate method from the auth package
// without creating an import cycle.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims mirrors the claims interface from the auth package.
type AuthClaims interface {
	Subject() string
	UserID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// PrincipalLoader resolves the principal a verified token points at. A
// stale token whose account no longer exists must return an error: the
// middleware treats it exactly like an invalid token.
type PrincipalLoader func(ctx context.Context, id string) (any, error)

// ContextEnricher propagates the authorized principal into the standard
// context for downstream code that never sees the fiber context.
type ContextEnricher func(ctx context.Context, claims AuthClaims, principal any) context.Context

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool

	// TokenValidator is required.
	TokenValidator TokenValidator

	// PrincipalLoader is optional; without it the claims are attached
	// directly and no store lookup happens.
	PrincipalLoader PrincipalLoader

	// ErrorHandler receives the internal cause of a rejection. The default
	// discards the cause and returns the uniform authorize error so the
	// application-level responder serializes it.
	ErrorHandler fiber.ErrorHandler

	ContextEnricher ContextEnricher

	// TokenLookup declares the extraction chain, e.g.
	// "header:Authorization,cookie:token". First hit wins.
	TokenLookup string
	AuthScheme  string
	ContextKey  string
	ClaimsKey   string
}

var defaultTokenLookup = "header:" + fiber.HeaderAuthorization

// New builds the route guard. The raw token value is never logged and the
// middleware writes no response body itself; every rejection is a typed
// error handed to the application's error handler.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		var principal any = claims
		if cfg.PrincipalLoader != nil {
			principal, err = cfg.PrincipalLoader(c.Context(), claims.UserID())
			if err != nil {
				// Deleted account with a live token: same rejection as a
				// bad token, not a 404.
				return cfg.ErrorHandler(c, err)
			}
		}

		c.Locals(cfg.ContextKey, principal)
		c.Locals(cfg.ClaimsKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims, principal))
		}

		return c.Next()
	}
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: authware configuration: TokenValidator is required.")
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.ClaimsKey == "" {
		cfg.ClaimsKey = "claims"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, _ error) error {
			return errors.New("Not authorized to access this route", errors.CategoryAuthz).
				WithTextCode("AUTHORIZE_ERROR").
				WithCode(errors.CodeUnauthorized)
		}
	}

	return cfg
}
