package auth

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the principal record. PasswordHash and the reset-token fields are
// excluded from JSON so no response or log ever carries password material.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name         string    `bun:"name,notnull" json:"name,omitempty"`
	Email        string    `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	Avatar       string    `bun:"avatar" json:"avatar,omitempty"`

	ResetPasswordToken     string     `bun:"reset_password_token,nullzero" json:"-"`
	ResetPasswordExpiresAt *time.Time `bun:"reset_password_expires_at,nullzero" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// MatchPassword reports whether the cleartext password matches the stored
// hash. See ComparePasswordAndHash for the guarantees.
func (u *User) MatchPassword(password string) error {
	return ComparePasswordAndHash(password, u.PasswordHash)
}

// GravatarURL derives the avatar assigned at registration: 200px, PG rated,
// with the "mystery man" fallback.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=200&r=pg&d=mm", hex.EncodeToString(sum[:]))
}
