package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/devconnector/go-auth"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		Exec(context.Background())
	require.NoError(t, err)

	return db
}

func TestUsersRegister(t *testing.T) {
	db := newTestDB(t)
	store := auth.NewUsersRepository(db, auth.WithBcryptCost(4))
	ctx := context.Background()

	t.Run("creates the record with derived fields", func(t *testing.T) {
		user, err := store.Register(ctx, "Pepe Rone", "pepe@example.com", "secret1")
		require.NoError(t, err)

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "Pepe Rone", user.Name)
		assert.Equal(t, "pepe@example.com", user.Email)
		assert.Equal(t, auth.GravatarURL("pepe@example.com"), user.Avatar)

		assert.NotEqual(t, "secret1", user.PasswordHash)
		assert.NoError(t, user.MatchPassword("secret1"))
	})

	t.Run("second registration for the same email loses", func(t *testing.T) {
		_, err := store.Register(ctx, "Pepe Clone", "pepe@example.com", "secret2")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})

	t.Run("empty password is rejected before hashing", func(t *testing.T) {
		_, err := store.Register(ctx, "No Pass", "nopass@example.com", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNoEmptyString)
	})
}

func TestUsersLookups(t *testing.T) {
	db := newTestDB(t)
	store := auth.NewUsersRepository(db, auth.WithBcryptCost(4))
	ctx := context.Background()

	created, err := store.Register(ctx, "Pepe Rone", "pepe@example.com", "secret1")
	require.NoError(t, err)

	t.Run("get by email", func(t *testing.T) {
		user, err := store.GetByEmail(ctx, "pepe@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("get by id", func(t *testing.T) {
		user, err := store.GetByID(ctx, created.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "pepe@example.com", user.Email)
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		_, err := store.GetByEmail(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := store.GetByID(ctx, "b4b8d9e0-0000-0000-0000-000000000000")
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})
}

func TestUsersDeterministicIDs(t *testing.T) {
	db := newTestDB(t)
	store := auth.NewUsersRepository(db, auth.WithBcryptCost(4), auth.WithDeterministicIDs())
	ctx := context.Background()

	user, err := store.Register(ctx, "Pepe Rone", "pepe@example.com", "secret1")
	require.NoError(t, err)

	expected, err := hashid.NewUUID("pepe@example.com")
	require.NoError(t, err)
	assert.Equal(t, expected, user.ID)
}

func TestUsersPasswordReset(t *testing.T) {
	db := newTestDB(t)
	store := auth.NewUsersRepository(db, auth.WithBcryptCost(4))
	ctx := context.Background()

	_, err := store.Register(ctx, "Pepe Rone", "pepe@example.com", "secret1")
	require.NoError(t, err)

	t.Run("token round trip replaces the password", func(t *testing.T) {
		token, err := store.CreateResetPasswordToken(ctx, "pepe@example.com")
		require.NoError(t, err)
		require.Len(t, token, 40)

		// Only the digest is at rest, never the deliverable token.
		stored, err := store.GetByEmail(ctx, "pepe@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, stored.ResetPasswordToken)
		assert.NotEqual(t, token, stored.ResetPasswordToken)
		require.NotNil(t, stored.ResetPasswordExpiresAt)
		assert.WithinDuration(t, time.Now().Add(auth.ResetPasswordTokenTTL), *stored.ResetPasswordExpiresAt, 5*time.Second)

		user, err := store.FinalizePasswordReset(ctx, token, "changed1")
		require.NoError(t, err)

		assert.NoError(t, user.MatchPassword("changed1"))
		assert.ErrorIs(t, user.MatchPassword("secret1"), auth.ErrMismatchedHashAndPassword)
	})

	t.Run("a consumed token does not work twice", func(t *testing.T) {
		token, err := store.CreateResetPasswordToken(ctx, "pepe@example.com")
		require.NoError(t, err)

		_, err = store.FinalizePasswordReset(ctx, token, "changed2")
		require.NoError(t, err)

		_, err = store.FinalizePasswordReset(ctx, token, "changed3")
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		_, err := store.FinalizePasswordReset(ctx, "0000000000000000000000000000000000000000", "changed4")
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})

	t.Run("unknown email cannot mint a token", func(t *testing.T) {
		_, err := store.CreateResetPasswordToken(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})
}
