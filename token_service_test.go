package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/devconnector/go-auth"
)

var testSigningKey = []byte("test-signing-key")

type testIdentity struct {
	id    string
	name  string
	email string
}

func (t testIdentity) ID() string    { return t.id }
func (t testIdentity) Name() string  { return t.name }
func (t testIdentity) Email() string { return t.email }

// mintToken signs a claim set with an explicit expiry so tests can exercise
// the validation boundary directly.
func mintToken(t *testing.T, key []byte, exp time.Time) string {
	t.Helper()

	impl, ok := auth.NewTokenService(key, time.Hour, nil).(*auth.TokenServiceImpl)
	require.True(t, ok)

	token, err := impl.SignClaims(&auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UID: "user-1",
	})
	require.NoError(t, err)

	return token
}

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := auth.NewTokenService(testSigningKey, time.Hour, nil)

	token, err := ts.Generate(testIdentity{id: "user-1", name: "Pepe", email: "pepe@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "user-1", claims.Subject())
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires(), 5*time.Second)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt(), 5*time.Second)
}

func TestTokenServiceGenerate(t *testing.T) {
	t.Run("zero TTL falls back to default", func(t *testing.T) {
		ts := auth.NewTokenService(testSigningKey, 0, nil)

		token, err := ts.Generate(testIdentity{id: "user-1"})
		require.NoError(t, err)

		claims, err := ts.Validate(token)
		require.NoError(t, err)

		assert.WithinDuration(t, time.Now().Add(auth.DefaultTokenTTL), claims.Expires(), 5*time.Second)
	})

	t.Run("nil identity is rejected", func(t *testing.T) {
		ts := auth.NewTokenService(testSigningKey, time.Hour, nil)

		_, err := ts.Generate(nil)
		assert.Error(t, err)
	})
}

func TestTokenServiceValidate(t *testing.T) {
	ts := auth.NewTokenService(testSigningKey, time.Hour, nil)

	t.Run("token past expiry", func(t *testing.T) {
		token := mintToken(t, testSigningKey, time.Now().Add(-time.Second))

		_, err := ts.Validate(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
		assert.True(t, auth.IsTokenExpiredError(err))
		assert.False(t, auth.IsMalformedError(err))
	})

	t.Run("token just before expiry", func(t *testing.T) {
		token := mintToken(t, testSigningKey, time.Now().Add(5*time.Second))

		claims, err := ts.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID())
	})

	t.Run("token signed with a different key", func(t *testing.T) {
		token := mintToken(t, []byte("some-other-key"), time.Now().Add(time.Hour))

		_, err := ts.Validate(token)
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
		assert.False(t, auth.IsTokenExpiredError(err))
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := ts.Validate("not.a.token")
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ts.Validate("")
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})
}

func TestJWTClaimsUserIDFallback(t *testing.T) {
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2"},
	}
	assert.Equal(t, "user-2", claims.UserID())

	claims.UID = "user-3"
	assert.Equal(t, "user-3", claims.UserID())
}
