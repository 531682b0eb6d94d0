package contact

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-contacts-api/internal/database"
	"github.com/redmonkez12/go-contacts-api/internal/database/dbtest"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

func newTestService(t *testing.T) (*Service, *user.User, *user.User) {
	t.Helper()
	db := dbtest.New(t)
	alice := createOwner(t, db, "alice@example.com")
	bob := createOwner(t, db, "bob@example.com")
	return NewService(NewRepository(db), database.NewTxManager(db)), alice, bob
}

func strPtr(s string) *string { return &s }

func validInput() CreateInput {
	born := database.NewDate(1985, 12, 1)
	return CreateInput{
		FirstName:   " John ",
		LastName:    "Smith",
		Email:       "john@example.com",
		PhoneNumber: "555-0100",
		BornDate:    &born,
	}
}

func TestService_CreateRoundTrip(t *testing.T) {
	svc, alice, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice.ID, validInput())
	require.NoError(t, err)
	assert.Equal(t, "John", created.FirstName)
	assert.Equal(t, alice.ID, created.OwnerID)

	got, err := svc.Get(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.FirstName, got.FirstName)
	assert.Equal(t, created.LastName, got.LastName)
	assert.Equal(t, created.Email, got.Email)
	assert.Equal(t, created.PhoneNumber, got.PhoneNumber)
	assert.Equal(t, created.BornDate.String(), got.BornDate.String())
	assert.Nil(t, got.OtherInfo)
}

func TestService_CreateTrimsSurroundingWhitespace(t *testing.T) {
	svc, alice, _ := newTestService(t)
	ctx := context.Background()

	in := CreateInput{
		FirstName:   "  Jane\t",
		LastName:    " Doe ",
		Email:       " jane@example.com\n",
		PhoneNumber: " 555-0199 ",
		OtherInfo:   strPtr("  kept as is  "),
	}
	created, err := svc.Create(ctx, alice.ID, in)
	require.NoError(t, err)

	got, err := svc.Get(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "555-0199", got.PhoneNumber)
	require.NotNil(t, got.OtherInfo)
	assert.Equal(t, "  kept as is  ", *got.OtherInfo)
}

func TestService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{name: "missing first name", mutate: func(in *CreateInput) { in.FirstName = "  " }, field: "first_name"},
		{name: "missing last name", mutate: func(in *CreateInput) { in.LastName = "" }, field: "last_name"},
		{name: "missing email", mutate: func(in *CreateInput) { in.Email = "" }, field: "email"},
		{name: "bad email", mutate: func(in *CreateInput) { in.Email = "john" }, field: "email"},
		{name: "missing phone", mutate: func(in *CreateInput) { in.PhoneNumber = "" }, field: "phone_number"},
		{name: "long name", mutate: func(in *CreateInput) { in.FirstName = strings.Repeat("x", 51) }, field: "first_name"},
		{name: "long other info", mutate: func(in *CreateInput) { in.OtherInfo = strPtr(strings.Repeat("x", 2001)) }, field: "other_info"},
	}

	svc, alice, _ := newTestService(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), alice.ID, in)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestService_UpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc, alice, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice.ID, validInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, alice.ID, created.ID, UpdateInput{
		PhoneNumber: strPtr("555-0199"),
		OtherInfo:   strPtr("new number"),
	})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.PhoneNumber)
	assert.Equal(t, "John", updated.FirstName)
	assert.Equal(t, "john@example.com", updated.Email)
	assert.Equal(t, "1985-12-01", updated.BornDate.String())
	require.NotNil(t, updated.OtherInfo)
	assert.Equal(t, "new number", *updated.OtherInfo)

	got, err := svc.Get(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0199", got.PhoneNumber)
}

func TestService_UpdateEmptyBodyIsNoop(t *testing.T) {
	svc, alice, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice.ID, validInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, alice.ID, created.ID, UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, created.FirstName, updated.FirstName)
	assert.Equal(t, created.PhoneNumber, updated.PhoneNumber)
}

func TestService_UpdateRejectsInvalidResult(t *testing.T) {
	svc, alice, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice.ID, validInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, alice.ID, created.ID, UpdateInput{Email: strPtr("not-an-email")})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	got, err := svc.Get(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", got.Email)
}

func TestService_NotOwnedIsNotFound(t *testing.T) {
	svc, alice, bob := newTestService(t)
	ctx := context.Background()

	bobs, err := svc.Create(ctx, bob.ID, validInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, alice.ID, bobs.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, alice.ID, bobs.ID, UpdateInput{FirstName: strPtr("Mallory")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Delete(ctx, alice.ID, bobs.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(ctx, bob.ID, bobs.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", got.FirstName)
}

func TestService_DeleteReturnsRemovedContact(t *testing.T) {
	svc, alice, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice.ID, validInput())
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "John", deleted.FirstName)

	_, err = svc.Get(ctx, alice.ID, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
