package auth

import (
	"context"
	"reflect"
)

// Auther verifies credentials against the identity provider and mints
// tokens for the principals it authenticates.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokenService TokenService) *Auther {
	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the email/password pair and returns a signed token for the
// matched principal. Failures propagate as typed errors; no logging of
// credentials or tokens happens here.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Debug("Login verify identity failed", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation failed", "error", err)
		return "", err
	}

	return token, nil
}
