package service

import (
	"context"
	"testing"

	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/internal/repository"
	"github.com/daily-ledger/internal/reqctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAddsRequestID(t *testing.T) {
	f := newFixture(t)
	ctx := reqctx.WithRequestID(context.Background(), "req-123")

	var entry *models.AuditLog
	err := f.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		entry, err = f.audit.Record(ctx, tx, nil, models.ActionLogin, map[string]interface{}{"userid": "alice"})
		return err
	})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.True(t, entry.CreatedAt.Equal(f.clock.Now()))

	entries := f.auditEntries(t, models.ActionLogin)
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].Details["request_id"])
	assert.Equal(t, "alice", entries[0].Details["userid"])
	assert.Nil(t, entries[0].ActorUserID)
}

func TestRecordRollsBackWithCaller(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := f.audit.Record(ctx, tx, nil, models.ActionLogin, nil); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, f.auditEntries(t, models.ActionLogin))
}

func TestListAuditFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createUser(t, "root", "adminpw", true)
	alice := f.createUser(t, "alice", "pw1", false)
	_, err := f.ledger.Submit(ctx, identityOf(alice), alice.ID, day("2024-01-01"), dec("1"), dec("1"))
	require.NoError(t, err)

	all, err := f.audit.List(ctx, &ListAuditRequest{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, models.ActionSubmitDaily, all[0].Action, "newest first")

	byAction, err := f.audit.List(ctx, &ListAuditRequest{Action: string(models.ActionCreateUser)})
	require.NoError(t, err)
	assert.Len(t, byAction, 2)

	byActor, err := f.audit.List(ctx, &ListAuditRequest{ActorID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, models.ActionSubmitDaily, byActor[0].Action)

	limited, err := f.audit.List(ctx, &ListAuditRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = f.audit.List(ctx, &ListAuditRequest{Action: "drop_tables"})
	assert.True(t, IsValidation(err))
	_, err = f.audit.List(ctx, &ListAuditRequest{Limit: -1})
	assert.True(t, IsValidation(err))
}

func TestListAuditCapsLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.audit.config.MaxLimit = 2
	for _, id := range []string{"a1", "a2", "a3"} {
		f.createUser(t, id, "pw", false)
	}

	entries, err := f.audit.List(ctx, &ListAuditRequest{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
