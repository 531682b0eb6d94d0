package contact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-contacts-api/internal/database"
	"github.com/redmonkez12/go-contacts-api/internal/database/dbtest"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

func createOwner(t *testing.T, db *bun.DB, email string) *user.User {
	t.Helper()
	u, err := user.NewRepository(db).Create(context.Background(), &user.User{
		Email:        email,
		Username:     "owner",
		PasswordHash: "$argon2id$placeholder",
	})
	require.NoError(t, err)
	return u
}

func sampleContact(owner *user.User, first string) *Contact {
	born := database.NewDate(1990, 4, 21)
	info := "met at the conference"
	return &Contact{
		OwnerID:     owner.ID,
		FirstName:   first,
		LastName:    "Doe",
		Email:       first + "@example.com",
		PhoneNumber: "+420123456789",
		BornDate:    &born,
		OtherInfo:   &info,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner@example.com")

	created, err := repo.Create(ctx, sampleContact(owner, "jane"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := repo.Get(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, "jane", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "+420123456789", got.PhoneNumber)
	require.NotNil(t, got.BornDate)
	assert.Equal(t, "1990-04-21", got.BornDate.String())
	require.NotNil(t, got.OtherInfo)
	assert.Equal(t, "met at the conference", *got.OtherInfo)
}

func TestRepository_OptionalFieldsStayNull(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner@example.com")

	c := sampleContact(owner, "jane")
	c.BornDate = nil
	c.OtherInfo = nil
	created, err := repo.Create(ctx, c)
	require.NoError(t, err)

	got, err := repo.Get(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BornDate)
	assert.Nil(t, got.OtherInfo)
}

func TestRepository_OwnershipScoping(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	alice := createOwner(t, db, "alice@example.com")
	bob := createOwner(t, db, "bob@example.com")

	bobs, err := repo.Create(ctx, sampleContact(bob, "bobs-friend"))
	require.NoError(t, err)

	_, err = repo.Get(ctx, alice.ID, bobs.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	bobs.OwnerID = alice.ID
	bobs.FirstName = "hijacked"
	assert.ErrorIs(t, repo.Update(ctx, bobs), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, alice.ID, bobs.ID), ErrNotFound)

	list, err := repo.List(ctx, alice.ID, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := repo.Get(ctx, bob.ID, bobs.ID)
	require.NoError(t, err)
	assert.Equal(t, "bobs-friend", got.FirstName)
}

func TestRepository_ListPagination(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner@example.com")
	other := createOwner(t, db, "other@example.com")

	names := []string{"a", "b", "c", "d", "e"}
	for i, name := range names {
		_, err := repo.Create(ctx, sampleContact(owner, name))
		require.NoError(t, err)
		if i == 2 {
			_, err = repo.Create(ctx, sampleContact(other, "interleaved"))
			require.NoError(t, err)
		}
	}

	firstNames := func(cs []*Contact) []string {
		out := make([]string, 0, len(cs))
		for _, c := range cs {
			out = append(out, c.FirstName)
		}
		return out
	}

	page, err := repo.List(ctx, owner.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, firstNames(page))

	page, err = repo.List(ctx, owner.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, firstNames(page))

	page, err = repo.List(ctx, owner.ID, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, names, firstNames(page))

	page, err = repo.List(ctx, owner.ID, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = repo.List(ctx, owner.ID, 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner@example.com")

	c, err := repo.Create(ctx, sampleContact(owner, "jane"))
	require.NoError(t, err)

	c.PhoneNumber = "555-0100"
	c.BornDate = nil
	require.NoError(t, repo.Update(ctx, c))

	got, err := repo.Get(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", got.PhoneNumber)
	assert.Nil(t, got.BornDate)

	require.NoError(t, repo.Delete(ctx, owner.ID, c.ID))
	_, err = repo.Get(ctx, owner.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, owner.ID, c.ID), ErrNotFound)
}

func TestRepository_OwnerDeletionCascades(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := createOwner(t, db, "owner@example.com")

	c, err := repo.Create(ctx, sampleContact(owner, "jane"))
	require.NoError(t, err)

	require.NoError(t, user.NewRepository(db).Delete(ctx, owner.ID))

	_, err = repo.Get(ctx, owner.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	count, err := db.NewSelect().Model((*database.Contact)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
