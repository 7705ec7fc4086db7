package authware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrMissingOrMalformed is the internal cause for an absent credential. It
// is never serialized; the error handler replaces it with the uniform
// rejection.
var ErrMissingOrMalformed = errors.New("missing or malformed JWT")

// TokenExtractor pulls a raw token out of one request location.
type TokenExtractor func(c *fiber.Ctx) (string, error)

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// GetExtractors parses a lookup declaration such as
// "header:Authorization,cookie:token,query:auth_token,param:token" into an
// ordered extractor chain.
func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, tokenFromParam(parts[1]))
		}
	}

	return extractors
}

func extractRawToken(c *fiber.Ctx, extractors []TokenExtractor) (string, error) {
	var raw string
	err := ErrMissingOrMalformed

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			return raw, nil
		}
	}

	return "", err
}

// tokenFromHeader extracts a "<scheme> <token>" credential from the named
// request header.
func tokenFromHeader(header, authScheme string) TokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(authScheme)
		if l == 0 {
			return "", ErrMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrMissingOrMalformed
	}
}

func tokenFromCookie(name string) TokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

func tokenFromQuery(param string) TokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

func tokenFromParam(param string) TokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Params(param)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}
