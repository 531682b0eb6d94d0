package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-contacts-api/internal/auth"
	"github.com/redmonkez12/go-contacts-api/internal/database/dbtest"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

func newTestAdmin(t *testing.T) (*userAdmin, *user.Repository) {
	t.Helper()
	repo := user.NewRepository(dbtest.New(t))
	return &userAdmin{users: repo, hasher: auth.NewPasswordHasherWithParams(1, 8*1024, 1)}, repo
}

func TestUserAdmin_Create(t *testing.T) {
	admin, repo := newTestAdmin(t)
	ctx := context.Background()

	u, err := admin.create(ctx, " alice@example.com ", "alice", "password123", true)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, u.Confirmed)
	assert.False(t, u.HasSession())

	stored, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	ok, err := admin.hasher.Verify("password123", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = admin.create(ctx, "alice@example.com", "again", "password123", false)
	assert.ErrorIs(t, err, errUserExists)
}

func TestUserAdmin_CreateValidates(t *testing.T) {
	admin, _ := newTestAdmin(t)

	_, err := admin.create(context.Background(), "alice@example.com", "alice", "short", false)

	var validationErr *auth.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "password", validationErr.Field)
}

func TestUserAdmin_ConfirmAndRevoke(t *testing.T) {
	admin, repo := newTestAdmin(t)
	ctx := context.Background()

	_, err := admin.create(ctx, "alice@example.com", "alice", "password123", false)
	require.NoError(t, err)

	u, err := admin.confirm(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, u.Confirmed)

	hash := "stored-hash"
	u.RefreshTokenHash = &hash
	require.NoError(t, repo.Save(ctx, u))

	_, err = admin.revoke(ctx, "alice@example.com")
	require.NoError(t, err)

	stored, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, stored.Confirmed)
	assert.False(t, stored.HasSession())
}

func TestUserAdmin_Remove(t *testing.T) {
	admin, repo := newTestAdmin(t)
	ctx := context.Background()

	_, err := admin.create(ctx, "alice@example.com", "alice", "password123", false)
	require.NoError(t, err)

	removed, err := admin.remove(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", removed.Email)

	_, err = repo.GetByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserAdmin_UnknownEmail(t *testing.T) {
	admin, _ := newTestAdmin(t)
	ctx := context.Background()

	for name, op := range map[string]func(*userAdmin, context.Context, string) (*user.User, error){
		"confirm": (*userAdmin).confirm,
		"revoke":  (*userAdmin).revoke,
		"delete":  (*userAdmin).remove,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := op(admin, ctx, "nobody@example.com")
			assert.ErrorIs(t, err, user.ErrNotFound)
		})
	}
}
