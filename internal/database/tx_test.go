package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-contacts-api/internal/database/dbtest"
)

func insertUser(ctx context.Context, db bun.IDB, email string) error {
	now := time.Now().UTC()
	_, err := db.NewInsert().Model(&User{
		ID:           uuid.New(),
		Email:        email,
		Username:     "tester",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Exec(ctx)
	return err
}

func countUsers(t *testing.T, db *bun.DB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*User)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestTxManager_CommitsOnSuccess(t *testing.T) {
	db := dbtest.New(t)
	tm := NewTxManager(db)

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertUser(ctx, Conn(ctx, db), "ok@example.com")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countUsers(t, db))
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	db := dbtest.New(t)
	tm := NewTxManager(db)

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, insertUser(ctx, Conn(ctx, db), "fail@example.com"))
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countUsers(t, db))
}

func TestTxManager_NestedCallsJoinOuterTx(t *testing.T) {
	db := dbtest.New(t)
	tm := NewTxManager(db)

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		outer := Conn(ctx, db)
		return tm.RunInTx(ctx, func(ctx context.Context) error {
			assert.Equal(t, outer, Conn(ctx, db))
			return insertUser(ctx, Conn(ctx, db), "nested@example.com")
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countUsers(t, db))
}

func TestConn_WithoutTxReturnsDB(t *testing.T) {
	db := dbtest.New(t)
	assert.Equal(t, bun.IDB(db), Conn(context.Background(), db))
}
