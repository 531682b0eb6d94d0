package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-contacts-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. ID and timestamps are assigned when empty.
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	now := time.Now().UTC()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	dbUser := mapModelToDBUser(u)
	_, err := database.Conn(ctx, r.db).NewInsert().
		Model(dbUser).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := database.Conn(ctx, r.db).NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := database.Conn(ctx, r.db).NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// Save writes the mutable fields of u back to the store and bumps UpdatedAt.
func (r *Repository) Save(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()

	result, err := database.Conn(ctx, r.db).NewUpdate().
		Model((*database.User)(nil)).
		Set("username = ?", u.Username).
		Set("password_hash = ?", u.PasswordHash).
		Set("confirmed = ?", u.Confirmed).
		Set("refresh_token_hash = ?", u.RefreshTokenHash).
		Set("avatar_url = ?", u.AvatarURL).
		Set("updated_at = ?", u.UpdatedAt).
		Where("id = ?", u.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateAvatarURL sets only the avatar of user id. Session columns are left alone,
// so a caller holding an older copy of the user cannot overwrite a rotated refresh token.
func (r *Repository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) (time.Time, error) {
	updatedAt := time.Now().UTC()

	result, err := database.Conn(ctx, r.db).NewUpdate().
		Model((*database.User)(nil)).
		Set("avatar_url = ?", url).
		Set("updated_at = ?", updatedAt).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to update avatar url: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return time.Time{}, ErrNotFound
	}

	return updatedAt, nil
}

// Delete removes a user; their contacts go with them through the foreign key cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := database.Conn(ctx, r.db).NewDelete().
		Model((*database.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// sqlite reports constraint failures only through the message
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func mapModelToDBUser(u *User) *database.User {
	return &database.User{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		PasswordHash:     u.PasswordHash,
		Confirmed:        u.Confirmed,
		RefreshTokenHash: u.RefreshTokenHash,
		AvatarURL:        u.AvatarURL,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:               dbu.ID,
		Email:            dbu.Email,
		Username:         dbu.Username,
		PasswordHash:     dbu.PasswordHash,
		Confirmed:        dbu.Confirmed,
		RefreshTokenHash: dbu.RefreshTokenHash,
		AvatarURL:        dbu.AvatarURL,
		CreatedAt:        dbu.CreatedAt,
		UpdatedAt:        dbu.UpdatedAt,
	}
}
