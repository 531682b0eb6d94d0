package user

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	Confirmed    bool      `json:"confirmed"`
	// RefreshTokenHash points at the only refresh token that may still be exchanged.
	RefreshTokenHash *string   `json:"-"`
	AvatarURL        *string   `json:"avatar"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasSession reports whether a refresh token is currently active.
func (u *User) HasSession() bool {
	return u.RefreshTokenHash != nil
}

// GravatarURL returns the default avatar for an email address.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:])
}
