package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes for the closed set of failure kinds the subsystem can emit.
// The responder keys off category; text codes survive into logs and make
// the kind greppable.
const (
	TextCodeValidation     = "VALIDATION_ERROR"
	TextCodeAuth           = "AUTH_ERROR"
	TextCodeAuthorize      = "AUTHORIZE_ERROR"
	TextCodeNotFound       = "NOT_FOUND_ERROR"
	TextCodeDuplicateKey   = "DUPLICATE_KEY_ERROR"
	TextCodeLogic          = "LOGIC_ERROR"
	TextCodeTokenExpired   = "TOKEN_EXPIRED"
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
)

// messagesMetadataKey carries the ordered message list of a multi-violation
// failure inside error metadata. The responder reads it back.
const messagesMetadataKey = "messages"

// ErrInvalidCredentials is returned for a wrong password AND for an unknown
// email. The two cases are deliberately indistinguishable so login is not an
// oracle for account existence.
var ErrInvalidCredentials = errors.New("Invalid Credentials", errors.CategoryAuth).
	WithTextCode(TextCodeAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthorized is the uniform middleware rejection: missing credential,
// malformed token, expired token, and deleted principal all map here.
var ErrNotAuthorized = errors.New("Not authorized to access this route", errors.CategoryAuthz).
	WithTextCode(TextCodeAuthorize).
	WithCode(errors.CodeUnauthorized)

// ErrUserExists is returned when registration hits the unique email index.
var ErrUserExists = errors.New("User already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateKey).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned by the token codec once now >= exp.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers every non-expiry validation failure: bad
// signature, wrong algorithm, garbage input.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch; callers
// translate it to ErrInvalidCredentials before it crosses the HTTP boundary.
var ErrMismatchedHashAndPassword = errors.New("hash and password mismatch", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// NewValidationError aggregates field violations into a single 400 failure.
// Message order is the route's declaration order.
func NewValidationError(msgs ...string) *errors.Error {
	return errors.New("Validation Error", errors.CategoryValidation).
		WithTextCode(TextCodeValidation).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{messagesMetadataKey: msgs})
}

// NewAuthorizeError marks an authenticated principal that lacks permission,
// e.g. editing a resource it does not own.
func NewAuthorizeError(msgs ...string) *errors.Error {
	return errors.New("Authorize Error", errors.CategoryAuthz).
		WithTextCode(TextCodeAuthorize).
		WithCode(errors.CodeUnauthorized).
		WithMetadata(map[string]any{messagesMetadataKey: msgs})
}

// NewNotFoundError marks a referenced resource that does not exist.
func NewNotFoundError(msgs ...string) *errors.Error {
	return errors.New("Not Found Error", errors.CategoryNotFound).
		WithTextCode(TextCodeNotFound).
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{messagesMetadataKey: msgs})
}

// NewDuplicateKeyError marks a uniqueness violation.
func NewDuplicateKeyError(msgs ...string) *errors.Error {
	return errors.New("Duplicate Key Error", errors.CategoryConflict).
		WithTextCode(TextCodeDuplicateKey).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{messagesMetadataKey: msgs})
}

// NewLogicError marks a business-rule violation that no other kind covers,
// e.g. liking a post twice.
func NewLogicError(msgs ...string) *errors.Error {
	return errors.New("Logic Error", errors.CategoryBadInput).
		WithTextCode(TextCodeLogic).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{messagesMetadataKey: msgs})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
