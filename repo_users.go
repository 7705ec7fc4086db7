package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResetPasswordTokenTTL bounds how long a password-reset token stays valid.
const ResetPasswordTokenTTL = 10 * time.Minute

var finalizePasswordResetSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reset_password_token" = NULL,
	"reset_password_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."reset_password_token" = ?
AND "usr"."reset_password_expires_at" > ?
RETURNING *;`

// Users is the credential store. Email uniqueness is enforced by the
// store's unique index, never by application-level locking: concurrent
// registrations race and the second writer loses with ErrUserExists.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	Register(ctx context.Context, name, email, password string) (*User, error)

	CreateResetPasswordToken(ctx context.Context, email string) (string, error)
	FinalizePasswordReset(ctx context.Context, token, password string) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db               *bun.DB
	bcryptCost       int
	deterministicIDs bool
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

type UsersOption func(*users)

// WithBcryptCost overrides the hashing work factor used at registration.
func WithBcryptCost(cost int) UsersOption {
	return func(u *users) {
		u.bcryptCost = cost
	}
}

// WithDeterministicIDs derives user ids from the email via hashid instead
// of random UUIDs. Useful for fixtures and idempotent imports.
func WithDeterministicIDs() UsersOption {
	return func(u *users) {
		u.deterministicIDs = true
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
		bcryptCost: DefaultBcryptCost,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByColumn(ctx, "email", strings.TrimSpace(email))
}

func (a *users) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.getByColumn(ctx, "id", strings.TrimSpace(id))
}

func (a *users) getByColumn(ctx context.Context, column, value string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{column: value})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user")
	}

	return record, nil
}

// Register hashes the password, derives the gravatar avatar, and inserts
// the record. A unique-index violation surfaces as ErrUserExists; the store
// never holds more than one record per email.
func (a *users) Register(ctx context.Context, name, email, password string) (*User, error) {
	hash, err := HashPasswordCost(password, a.bcryptCost)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Name:         name,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Avatar:       GravatarURL(email),
	}
	a.prepareUserDefaults(user)

	created, err := a.Repository.CreateTx(ctx, a.db, user)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
	}

	return created, nil
}

// CreateResetPasswordToken mints a reset token for the account, storing
// only its sha256 digest. The plaintext token is returned exactly once for
// delivery and is never persisted or logged.
func (a *users) CreateResetPasswordToken(ctx context.Context, email string) (string, error) {
	user, err := a.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
	}
	token := hex.EncodeToString(raw)

	digest := sha256.Sum256([]byte(token))
	expires := time.Now().Add(ResetPasswordTokenTTL)

	user.ResetPasswordToken = hex.EncodeToString(digest[:])
	user.ResetPasswordExpiresAt = &expires

	if _, err := a.Repository.UpdateTx(ctx, a.db, user, repository.UpdateByID(user.ID.String())); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
	}

	return token, nil
}

// FinalizePasswordReset consumes an unexpired reset token and replaces the
// password hash in one statement. An unknown or expired token is reported
// as not found; the caller decides the user-facing message.
func (a *users) FinalizePasswordReset(ctx context.Context, token, password string) (*User, error) {
	hash, err := HashPasswordCost(password, a.bcryptCost)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256([]byte(token))

	res, err := a.Repository.RawTx(ctx, a.db, finalizePasswordResetSQL,
		hash, hex.EncodeToString(digest[:]), time.Now())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"reason": "reset token unknown or expired"})
	}

	return res[0], nil
}

func (a *users) prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil && a.deterministicIDs {
		if id, err := hashid.NewUUID(record.Email); err == nil {
			record.ID = id
		}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// isDuplicateKeyError recognizes unique-index violations across the
// dialects the store runs on (sqlite in tests, postgres in deployments).
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "constraint failed: users.email")
}
