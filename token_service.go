package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultTokenTTL matches the legacy deployment: a single long-lived token,
// no refresh rotation.
const DefaultTokenTTL = 30 * 24 * time.Hour

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	logger     Logger
}

// NewTokenService creates a new TokenService instance. The signing key is
// held by reference for the life of the process and never logged.
func NewTokenService(signingKey []byte, ttl time.Duration, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		ttl:        ttl,
		logger:     logger,
	}
}

// Generate mints a signed token embedding the principal id, valid from now
// until now + TTL.
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	if identity == nil {
		return "", errors.New("identity is required", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UID: identity.ID(),
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string. The outcome is binary:
// structured claims, or an error. Expiry is the only failure reported
// distinctly (the middleware still collapses both into one rejection).
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode claims")
	return nil, ErrTokenMalformed
}
