package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted account record.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Email        string    `bun:"email,notnull,unique"`
	Username     string    `bun:"username,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Confirmed    bool      `bun:"confirmed,notnull"`
	// hex SHA-256 of the single active refresh token, nil when no session exists
	RefreshTokenHash *string   `bun:"refresh_token_hash"`
	AvatarURL        *string   `bun:"avatar_url"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,notnull"`
}

// Contact is an address-book entry owned by exactly one user.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID          int64     `bun:"id,pk,autoincrement"`
	OwnerID     uuid.UUID `bun:"owner_id,notnull,type:uuid"`
	FirstName   string    `bun:"first_name,notnull"`
	LastName    string    `bun:"last_name,notnull"`
	Email       string    `bun:"email,notnull"`
	PhoneNumber string    `bun:"phone_number,notnull"`
	BornDate    *Date     `bun:"born_date,type:date"`
	OtherInfo   *string   `bun:"other_info"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}
