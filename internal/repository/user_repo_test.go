package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daily-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestUserCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createUser(t, s, "alice")

	err := s.Users.Create(ctx, &models.User{UserID: "alice", PasswordHash: "y", IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	exists, err := s.Users.ExistsByUserID(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := createUser(t, s, "alice")
	createUser(t, s, "bob")

	got, err := s.Users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)

	_, err = s.Users.GetByUserID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.Users.GetByID(ctx, 4242)
	assert.ErrorIs(t, err, ErrUserNotFound)

	users, err := s.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].UserID)
	assert.Equal(t, "bob", users[1].UserID)
}

func TestUserSetActive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createUser(t, s, "alice")

	u, err := s.Users.SetActive(ctx, "alice", false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	u, err = s.Users.SetActive(ctx, "alice", true)
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	_, err = s.Users.SetActive(ctx, "ghost", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *Store) error {
		u := &models.User{UserID: "temp", PasswordHash: "x", IsActive: true}
		if err := tx.Users.Create(ctx, u); err != nil {
			return err
		}
		if err := tx.Audit.Create(ctx, &models.AuditLog{Action: models.ActionCreateUser, Details: datatypes.JSONMap{"created_user": "temp"}, CreatedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := s.Users.ExistsByUserID(ctx, "temp")
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := s.Audit.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTransactionCommits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Transaction(ctx, func(tx *Store) error {
		return tx.Users.Create(ctx, &models.User{UserID: "kept", PasswordHash: "x", IsActive: true})
	})
	require.NoError(t, err)

	exists, err := s.Users.ExistsByUserID(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "alice")

	require.NoError(t, s.Users.Delete(ctx, u.ID))
	assert.ErrorIs(t, s.Users.Delete(ctx, u.ID), ErrUserNotFound)
}
