package repository

import (
	"context"
	"errors"

	"github.com/daily-ledger/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDailyRecordNotFound = errors.New("daily record not found")
)

// DailyRecordRepository handles daily record data access
type DailyRecordRepository struct {
	db *gorm.DB
}

// NewDailyRecordRepository creates a new DailyRecordRepository
func NewDailyRecordRepository(db *gorm.DB) *DailyRecordRepository {
	return &DailyRecordRepository{db: db}
}

// Upsert inserts the record or, when (user_id, date) already exists,
// overwrites its amounts and created_at and clears is_deleted in the same
// statement. The stored row is loaded back into record.
func (r *DailyRecordRepository) Upsert(ctx context.Context, record *models.DailyRecord) error {
	record.IsDeleted = false
	db := r.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_deposit",
			"total_withdraw",
			"created_at",
			"is_deleted",
		}),
	}).Create(record).Error
	if err != nil {
		return err
	}

	// The id reported for an upsert that took the update branch is not
	// reliable on every driver, so read the row back by its natural key.
	var stored models.DailyRecord
	if err := db.Where("user_id = ? AND date = ?", record.UserID, record.Date).First(&stored).Error; err != nil {
		return err
	}
	*record = stored
	return nil
}

// GetByID retrieves a record by surrogate ID, deleted or not
func (r *DailyRecordRepository) GetByID(ctx context.Context, id uint) (*models.DailyRecord, error) {
	var record models.DailyRecord
	result := r.db.WithContext(ctx).First(&record, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDailyRecordNotFound
		}
		return nil, result.Error
	}
	return &record, nil
}

// GetByUserAndDate retrieves the record for a user's calendar date
func (r *DailyRecordRepository) GetByUserAndDate(ctx context.Context, userID uint, date datatypes.Date) (*models.DailyRecord, error) {
	var record models.DailyRecord
	result := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDailyRecordNotFound
		}
		return nil, result.Error
	}
	return &record, nil
}

// ListByUserID returns a user's records, newest date first.
// Soft-deleted rows are included only when includeDeleted is set.
func (r *DailyRecordRepository) ListByUserID(ctx context.Context, userID uint, includeDeleted bool) ([]models.DailyRecord, error) {
	var records []models.DailyRecord
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	result := query.Order("date DESC").Find(&records)
	return records, result.Error
}

// UpdateAmountsWithLock overwrites the amounts of a record while holding a
// row lock and returns the record as it was before the change.
func (r *DailyRecordRepository) UpdateAmountsWithLock(ctx context.Context, id uint, deposit, withdraw decimal.Decimal) (before, after *models.DailyRecord, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.DailyRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDailyRecordNotFound
			}
			return err
		}

		snapshot := record
		before = &snapshot

		if err := tx.Model(&record).Updates(map[string]interface{}{
			"total_deposit":  deposit,
			"total_withdraw": withdraw,
		}).Error; err != nil {
			return err
		}

		if err := tx.First(&record, id).Error; err != nil {
			return err
		}
		after = &record
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// SetDeleted sets the soft-delete flag in a single UPDATE and returns the
// updated record. Setting the flag to its current value still succeeds.
func (r *DailyRecordRepository) SetDeleted(ctx context.Context, id uint, deleted bool) (*models.DailyRecord, error) {
	result := r.db.WithContext(ctx).Model(&models.DailyRecord{}).
		Where("id = ?", id).
		Update("is_deleted", deleted)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrDailyRecordNotFound
	}
	return r.GetByID(ctx, id)
}

// DeleteByUserID permanently removes every record owned by a user
func (r *DailyRecordRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.DailyRecord{})
	return result.RowsAffected, result.Error
}

// CountByUserID counts all records for a user, deleted or not
func (r *DailyRecordRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DailyRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
