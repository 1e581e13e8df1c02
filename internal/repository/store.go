package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories and opens transactions that span them.
type Store struct {
	db *gorm.DB

	Users *UserRepository
	Daily *DailyRecordRepository
	Audit *AuditLogRepository
}

// NewStore creates a Store backed by db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		Users: NewUserRepository(db),
		Daily: NewDailyRecordRepository(db),
		Audit: NewAuditLogRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single database
// transaction. The transaction commits when fn returns nil and rolls back
// when fn returns an error or panics.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
