package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-contacts-api/internal/auth"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

var errUserExists = errors.New("a user with this email already exists")

// userStore is the part of user.Repository the admin commands use.
type userStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, u *user.User) (*user.User, error)
	Save(ctx context.Context, u *user.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// userAdmin performs account maintenance outside the HTTP flow.
type userAdmin struct {
	users  userStore
	hasher *auth.PasswordHasher
}

func (a *userAdmin) create(ctx context.Context, email, username, password string, confirmed bool) (*user.User, error) {
	in := auth.SignupInput{
		Email:    strings.TrimSpace(email),
		Username: strings.TrimSpace(username),
		Password: password,
	}
	if err := auth.ValidateSignup(in); err != nil {
		return nil, err
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatar := user.GravatarURL(in.Email)
	created, err := a.users.Create(ctx, &user.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: passwordHash,
		Confirmed:    confirmed,
		AvatarURL:    &avatar,
	})
	if errors.Is(err, user.ErrDuplicateEmail) {
		return nil, errUserExists
	}
	return created, err
}

// confirm marks the address as verified without a confirmation link.
func (a *userAdmin) confirm(ctx context.Context, email string) (*user.User, error) {
	return a.update(ctx, email, func(u *user.User) { u.Confirmed = true })
}

// revoke ends the user's session; the current refresh token stops working.
func (a *userAdmin) revoke(ctx context.Context, email string) (*user.User, error) {
	return a.update(ctx, email, func(u *user.User) { u.RefreshTokenHash = nil })
}

func (a *userAdmin) remove(ctx context.Context, email string) (*user.User, error) {
	u, err := a.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if err := a.users.Delete(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (a *userAdmin) update(ctx context.Context, email string, fn func(u *user.User)) (*user.User, error) {
	u, err := a.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	fn(u)
	if err := a.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
