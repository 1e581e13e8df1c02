package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/internal/policy"
	"github.com/daily-ledger/internal/repository"
	"github.com/daily-ledger/pkg/money"
	"github.com/shopspring/decimal"
)

// LedgerService maintains the per-user, per-date deposit and withdraw
// records
type LedgerService struct {
	store *repository.Store
	audit *AuditService
	now   func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(store *repository.Store, audit *AuditService) *LedgerService {
	return &LedgerService{
		store: store,
		audit: audit,
		now:   time.Now,
	}
}

// SetClock replaces the time source; used by tests
func (s *LedgerService) SetClock(now func() time.Time) {
	s.now = now
}

// SubmitDailyRequest represents a daily submission.
// Pointers distinguish a missing amount from zero.
type SubmitDailyRequest struct {
	Date          string           `json:"date" binding:"required,datetime=2006-01-02"`
	TotalDeposit  *decimal.Decimal `json:"total_deposit" binding:"required"`
	TotalWithdraw *decimal.Decimal `json:"total_withdraw" binding:"required"`
}

// UpdateDailyRequest represents an admin correction of a record
type UpdateDailyRequest struct {
	TotalDeposit  *decimal.Decimal `json:"total_deposit" binding:"required"`
	TotalWithdraw *decimal.Decimal `json:"total_withdraw" binding:"required"`
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, invalid("date", err)
	}
	return date, nil
}

func normalizeAmounts(deposit, withdraw decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	d, err := money.Normalize(deposit)
	if err != nil {
		return decimal.Zero, decimal.Zero, invalid("total_deposit", err)
	}
	w, err := money.Normalize(withdraw)
	if err != nil {
		return decimal.Zero, decimal.Zero, invalid("total_withdraw", err)
	}
	return d, w, nil
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(money.Format(d))
}

// Submit stores the totals for (userID, date). An existing row for that date,
// deleted or not, is overwritten and revived.
func (s *LedgerService) Submit(ctx context.Context, actor *policy.Identity, userID uint, date time.Time, deposit, withdraw decimal.Decimal) (*models.DailyRecord, error) {
	deposit, withdraw, err := normalizeAmounts(deposit, withdraw)
	if err != nil {
		return nil, err
	}

	record := &models.DailyRecord{
		UserID:        userID,
		Date:          models.NewDate(date),
		TotalDeposit:  deposit,
		TotalWithdraw: withdraw,
		CreatedAt:     s.now().UTC(),
	}

	var entry *models.AuditLog
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByIDForShare(ctx, userID); err != nil {
			return err
		}
		if err := tx.Daily.Upsert(ctx, record); err != nil {
			return err
		}
		var err error
		entry, err = s.audit.Record(ctx, tx, actorID(actor), models.ActionSubmitDaily, map[string]interface{}{
			"daily_id": record.ID,
			"date":     record.DateString(),
			"deposit":  amount(deposit),
			"withdraw": amount(withdraw),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.Publish(ctx, entry)
	return record, nil
}

// ListActive returns the non-deleted records of a user, newest date first
func (s *LedgerService) ListActive(ctx context.Context, userID uint) ([]models.DailyRecord, error) {
	return s.store.Daily.ListByUserID(ctx, userID, false)
}

// ListForUser returns the records of the user with login name userid.
// Soft-deleted rows are only included on request.
func (s *LedgerService) ListForUser(ctx context.Context, userid string, includeDeleted bool) ([]models.DailyRecord, error) {
	user, err := s.store.Users.GetByUserID(ctx, userid)
	if err != nil {
		return nil, err
	}
	return s.store.Daily.ListByUserID(ctx, user.ID, includeDeleted)
}

// Get retrieves a record by ID, deleted or not
func (s *LedgerService) Get(ctx context.Context, id uint) (*models.DailyRecord, error) {
	return s.store.Daily.GetByID(ctx, id)
}

// Update overwrites the amounts of a record. The deletion flag is left as is.
func (s *LedgerService) Update(ctx context.Context, actor *policy.Identity, id uint, deposit, withdraw decimal.Decimal) (*models.DailyRecord, error) {
	deposit, withdraw, err := normalizeAmounts(deposit, withdraw)
	if err != nil {
		return nil, err
	}

	var (
		after *models.DailyRecord
		entry *models.AuditLog
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var (
			before *models.DailyRecord
			err    error
		)
		before, after, err = tx.Daily.UpdateAmountsWithLock(ctx, id, deposit, withdraw)
		if err != nil {
			return err
		}
		entry, err = s.audit.Record(ctx, tx, actorID(actor), models.ActionUpdateDaily, map[string]interface{}{
			"daily_id": id,
			"before": map[string]interface{}{
				"total_deposit":  amount(before.TotalDeposit),
				"total_withdraw": amount(before.TotalWithdraw),
			},
			"after": map[string]interface{}{
				"total_deposit":  amount(after.TotalDeposit),
				"total_withdraw": amount(after.TotalWithdraw),
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.Publish(ctx, entry)
	return after, nil
}

// SoftDelete hides a record from the active listing. Deleting an already
// deleted record succeeds and is audited again.
func (s *LedgerService) SoftDelete(ctx context.Context, actor *policy.Identity, id uint) (*models.DailyRecord, error) {
	return s.setDeleted(ctx, actor, id, true, models.ActionDeleteDaily)
}

// Restore brings a soft-deleted record back
func (s *LedgerService) Restore(ctx context.Context, actor *policy.Identity, id uint) (*models.DailyRecord, error) {
	return s.setDeleted(ctx, actor, id, false, models.ActionRestoreDaily)
}

func (s *LedgerService) setDeleted(ctx context.Context, actor *policy.Identity, id uint, deleted bool, action models.AuditAction) (*models.DailyRecord, error) {
	var (
		record *models.DailyRecord
		entry  *models.AuditLog
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		record, err = tx.Daily.SetDeleted(ctx, id, deleted)
		if err != nil {
			return err
		}
		entry, err = s.audit.Record(ctx, tx, actorID(actor), action, map[string]interface{}{
			"daily_id": id,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.Publish(ctx, entry)
	return record, nil
}
