package repository

import (
	"context"

	"github.com/daily-ledger/internal/models"
	"gorm.io/gorm"
)

// AuditFilter narrows an audit log listing
type AuditFilter struct {
	Action  models.AuditAction
	ActorID *uint
	Limit   int
}

// AuditLogRepository appends and lists audit entries. Entries are never
// updated or deleted.
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends an audit entry
func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns entries newest first
func (r *AuditLogRepository) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_user_id = ?", *filter.ActorID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	result := query.Order("created_at DESC").Order("id DESC").Find(&entries)
	return entries, result.Error
}

// Count counts entries matching action; an empty action counts all
func (r *AuditLogRepository) Count(ctx context.Context, action models.AuditAction) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if action != "" {
		query = query.Where("action = ?", action)
	}
	err := query.Count(&count).Error
	return count, err
}
