package contact

import (
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-contacts-api/internal/database"
)

// Contact is an address-book entry. OwnerID is never taken from client input.
type Contact struct {
	ID          int64          `json:"id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Email       string         `json:"email"`
	PhoneNumber string         `json:"phone_number"`
	BornDate    *database.Date `json:"born_date" swaggertype:"string" example:"1990-04-21"`
	OtherInfo   *string        `json:"other_info"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateInput carries the fields of a new contact.
type CreateInput struct {
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Email       string         `json:"email"`
	PhoneNumber string         `json:"phone_number"`
	BornDate    *database.Date `json:"born_date,omitempty" swaggertype:"string" example:"1990-04-21"`
	OtherInfo   *string        `json:"other_info,omitempty"`
}

// UpdateInput holds a partial update; nil fields are left unchanged.
type UpdateInput struct {
	FirstName   *string        `json:"first_name,omitempty"`
	LastName    *string        `json:"last_name,omitempty"`
	Email       *string        `json:"email,omitempty"`
	PhoneNumber *string        `json:"phone_number,omitempty"`
	BornDate    *database.Date `json:"born_date,omitempty" swaggertype:"string" example:"1990-04-21"`
	OtherInfo   *string        `json:"other_info,omitempty"`
}

func (in UpdateInput) apply(c *Contact) {
	if in.FirstName != nil {
		c.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		c.LastName = *in.LastName
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.PhoneNumber != nil {
		c.PhoneNumber = *in.PhoneNumber
	}
	if in.BornDate != nil {
		c.BornDate = in.BornDate
	}
	if in.OtherInfo != nil {
		c.OtherInfo = in.OtherInfo
	}
}
