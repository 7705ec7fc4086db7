package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserProvider adapts the Users repository to the IdentityProvider boundary
// the authenticator and middleware consume.
type UserProvider struct {
	store  Users
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity finds the user by email and compares the password. An
// unknown email and a wrong password both come back as
// ErrInvalidCredentials so the endpoint cannot be used to probe for
// registered addresses.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := user.MatchPassword(password); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}

	return identityFromUser(user), nil
}

// FindIdentityByID resolves the principal a verified token points at. A
// missing record propagates as not found; the middleware collapses it into
// its uniform rejection.
func (u *UserProvider) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	user, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return identityFromUser(user), nil
}

var _ IdentityProvider = (*UserProvider)(nil)

type authIdentity struct {
	id    string
	name  string
	email string
}

func identityFromUser(user *User) authIdentity {
	return authIdentity{
		id:    user.ID.String(),
		name:  user.Name,
		email: user.Email,
	}
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Name() string {
	return a.name
}

func (a authIdentity) Email() string {
	return a.email
}

var _ Identity = authIdentity{}
