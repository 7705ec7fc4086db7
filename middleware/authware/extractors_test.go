package authware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devconnector/go-auth/middleware/authware"
)

func TestGetExtractors(t *testing.T) {
	tests := []struct {
		name   string
		lookup string
		count  int
	}{
		{
			name:   "single header source",
			lookup: "header:Authorization",
			count:  1,
		},
		{
			name:   "header and cookie chain",
			lookup: "header:Authorization,cookie:token",
			count:  2,
		},
		{
			name:   "all four sources with whitespace",
			lookup: "header:Authorization, cookie:token, query:auth_token, param:token",
			count:  4,
		},
		{
			name:   "malformed entries are skipped",
			lookup: "bogus,header",
			count:  0,
		},
		{
			name:   "unknown source is skipped",
			lookup: "session:token,header:Authorization",
			count:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractors := authware.GetExtractors(tt.lookup, "Bearer")
			assert.Len(t, extractors, tt.count)
		})
	}
}

// extractVia runs a single request through the middleware configured with the
// given lookup and reports whether the token reached the validator.
func extractVia(t *testing.T, lookup string, decorate func(req *http.Request)) bool {
	t.Helper()

	var seen string
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(fiber.StatusUnauthorized)
		},
	})

	app.Get("/private/:token?", authware.New(authware.Config{
		TokenValidator: validatorFunc(func(tokenString string) (authware.AuthClaims, error) {
			seen = tokenString
			return fakeClaims{subject: "user-1"}, nil
		}),
		TokenLookup: lookup,
	}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/private", nil)
	decorate(req)

	res, err := app.Test(req)
	require.NoError(t, err)

	return res.StatusCode == fiber.StatusOK && seen == "the-token"
}

type validatorFunc func(tokenString string) (authware.AuthClaims, error)

func (f validatorFunc) Validate(tokenString string) (authware.AuthClaims, error) {
	return f(tokenString)
}

func TestTokenExtraction(t *testing.T) {
	t.Run("header with scheme", func(t *testing.T) {
		ok := extractVia(t, "header:Authorization", func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer the-token")
		})
		assert.True(t, ok)
	})

	t.Run("header scheme is case insensitive", func(t *testing.T) {
		ok := extractVia(t, "header:Authorization", func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "bearer the-token")
		})
		assert.True(t, ok)
	})

	t.Run("custom header", func(t *testing.T) {
		ok := extractVia(t, "header:X-Auth-Token", func(req *http.Request) {
			req.Header.Set("X-Auth-Token", "Bearer the-token")
		})
		assert.True(t, ok)
	})

	t.Run("cookie", func(t *testing.T) {
		ok := extractVia(t, "cookie:token", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "token", Value: "the-token"})
		})
		assert.True(t, ok)
	})

	t.Run("query parameter", func(t *testing.T) {
		ok := extractVia(t, "query:auth_token", func(req *http.Request) {
			q := req.URL.Query()
			q.Set("auth_token", "the-token")
			req.URL.RawQuery = q.Encode()
		})
		assert.True(t, ok)
	})

	t.Run("first source wins", func(t *testing.T) {
		ok := extractVia(t, "header:Authorization,cookie:token", func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer the-token")
			req.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
		})
		assert.True(t, ok)
	})

	t.Run("later source covers a missing header", func(t *testing.T) {
		ok := extractVia(t, "header:Authorization,cookie:token", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "token", Value: "the-token"})
		})
		assert.True(t, ok)
	})

	t.Run("nothing to extract", func(t *testing.T) {
		ok := extractVia(t, "header:Authorization,cookie:token", func(req *http.Request) {})
		assert.False(t, ok)
	})
}
