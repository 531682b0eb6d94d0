package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-contacts-api/internal/database"
)

var ErrNotFound = errors.New("contact not found")

// Repository persists contacts. Every method is scoped to one owner, and a
// contact that belongs to someone else is reported as ErrNotFound.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns the owner's contacts in creation order.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]*Contact, error) {
	if limit <= 0 {
		return []*Contact{}, nil
	}

	var rows []database.Contact
	err := database.Conn(ctx, r.db).NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		OrderExpr("id ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	contacts := make([]*Contact, 0, len(rows))
	for i := range rows {
		contacts = append(contacts, mapDBContactToModel(&rows[i]))
	}
	return contacts, nil
}

func (r *Repository) Get(ctx context.Context, ownerID uuid.UUID, id int64) (*Contact, error) {
	row := new(database.Contact)
	err := database.Conn(ctx, r.db).NewSelect().
		Model(row).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return mapDBContactToModel(row), nil
}

// Create inserts c and fills in its ID and timestamps.
func (r *Repository) Create(ctx context.Context, c *Contact) (*Contact, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	row := mapModelToDBContact(c)
	_, err := database.Conn(ctx, r.db).NewInsert().
		Model(row).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return mapDBContactToModel(row), nil
}

// Update writes every field of c and bumps UpdatedAt.
func (r *Repository) Update(ctx context.Context, c *Contact) error {
	c.UpdatedAt = time.Now().UTC()

	result, err := database.Conn(ctx, r.db).NewUpdate().
		Model((*database.Contact)(nil)).
		Set("first_name = ?", c.FirstName).
		Set("last_name = ?", c.LastName).
		Set("email = ?", c.Email).
		Set("phone_number = ?", c.PhoneNumber).
		Set("born_date = ?", c.BornDate).
		Set("other_info = ?", c.OtherInfo).
		Set("updated_at = ?", c.UpdatedAt).
		Where("id = ?", c.ID).
		Where("owner_id = ?", c.OwnerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	return checkAffected(result)
}

func (r *Repository) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	result, err := database.Conn(ctx, r.db).NewDelete().
		Model((*database.Contact)(nil)).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func mapModelToDBContact(c *Contact) *database.Contact {
	return &database.Contact{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		BornDate:    c.BornDate,
		OtherInfo:   c.OtherInfo,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func mapDBContactToModel(row *database.Contact) *Contact {
	return &Contact{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Email:       row.Email,
		PhoneNumber: row.PhoneNumber,
		BornDate:    row.BornDate,
		OtherInfo:   row.OtherInfo,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
