package contact

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxNameLen      = 50
	maxEmailLen     = 254
	maxPhoneLen     = 30
	maxOtherInfoLen = 2000
)

// ValidationError reports a malformed contact field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Store is the persistence the service needs.
type Store interface {
	List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]*Contact, error)
	Get(ctx context.Context, ownerID uuid.UUID, id int64) (*Contact, error)
	Create(ctx context.Context, c *Contact) (*Contact, error)
	Update(ctx context.Context, c *Contact) error
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements owner-scoped contact management.
type Service struct {
	store Store
	tx    Transactor
}

func NewService(store Store, tx Transactor) *Service {
	return &Service{store: store, tx: tx}
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]*Contact, error) {
	return s.store.List(ctx, ownerID, skip, limit)
}

func (s *Service) Get(ctx context.Context, ownerID uuid.UUID, id int64) (*Contact, error) {
	return s.store.Get(ctx, ownerID, id)
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*Contact, error) {
	c := &Contact{
		OwnerID:     ownerID,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.TrimSpace(in.Email),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		BornDate:    in.BornDate,
		OtherInfo:   in.OtherInfo,
	}
	if err := validate(c); err != nil {
		return nil, err
	}

	return s.store.Create(ctx, c)
}

// Update applies the provided fields to the owner's contact and returns the result.
func (s *Service) Update(ctx context.Context, ownerID uuid.UUID, id int64, in UpdateInput) (*Contact, error) {
	var updated *Contact
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.store.Get(ctx, ownerID, id)
		if err != nil {
			return err
		}

		in.apply(c)
		c.FirstName = strings.TrimSpace(c.FirstName)
		c.LastName = strings.TrimSpace(c.LastName)
		c.Email = strings.TrimSpace(c.Email)
		c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)
		if err := validate(c); err != nil {
			return err
		}

		if err := s.store.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the owner's contact and returns it as it was.
func (s *Service) Delete(ctx context.Context, ownerID uuid.UUID, id int64) (*Contact, error) {
	var deleted *Contact
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.store.Get(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, ownerID, id); err != nil {
			return err
		}
		deleted = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

func validate(c *Contact) error {
	if err := requireText("first_name", c.FirstName, maxNameLen); err != nil {
		return err
	}
	if err := requireText("last_name", c.LastName, maxNameLen); err != nil {
		return err
	}
	if err := requireText("email", c.Email, maxEmailLen); err != nil {
		return err
	}
	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		return &ValidationError{Field: "email", Message: "is not a valid email address"}
	}
	if err := requireText("phone_number", c.PhoneNumber, maxPhoneLen); err != nil {
		return err
	}
	if c.OtherInfo != nil && utf8.RuneCountInString(*c.OtherInfo) > maxOtherInfoLen {
		return &ValidationError{Field: "other_info", Message: fmt.Sprintf("must be at most %d characters", maxOtherInfoLen)}
	}
	return nil
}

func requireText(field, value string, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if n > maxLen {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", maxLen)}
	}
	return nil
}
