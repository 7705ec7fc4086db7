package auth

import (
	"os"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// EnvConfig is the immutable configuration surface, loaded once at process
// start. The signing key is required and must never be logged.
type EnvConfig struct {
	SigningKey  string
	TokenTTL    time.Duration
	TokenLookup string
	AuthScheme  string
	ContextKey  string
	CookieName  string
	BcryptCost  int
}

// LoadConfig reads environment variables, optionally from a .env file if
// present, and validates the result.
func LoadConfig() (*EnvConfig, error) {
	_ = godotenv.Load()

	cfg := &EnvConfig{
		SigningKey:  os.Getenv("AUTH_SIGNING_KEY"),
		TokenTTL:    getEnvDuration("AUTH_TOKEN_TTL", DefaultTokenTTL),
		TokenLookup: getEnv("AUTH_TOKEN_LOOKUP", "header:Authorization,cookie:token"),
		AuthScheme:  getEnv("AUTH_SCHEME", "Bearer"),
		ContextKey:  getEnv("AUTH_CONTEXT_KEY", "user"),
		CookieName:  getEnv("AUTH_COOKIE_NAME", "token"),
		BcryptCost:  getEnvInt("AUTH_BCRYPT_COST", DefaultBcryptCost),
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("AUTH_SIGNING_KEY is required", errors.CategoryOperation)
	}

	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *EnvConfig) GetTokenTTL() time.Duration {
	return c.TokenTTL
}

func (c *EnvConfig) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *EnvConfig) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *EnvConfig) GetContextKey() string {
	return c.ContextKey
}

func (c *EnvConfig) GetCookieName() string {
	return c.CookieName
}

func (c *EnvConfig) GetBcryptCost() int {
	return c.BcryptCost
}

var _ Config = (*EnvConfig)(nil)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
