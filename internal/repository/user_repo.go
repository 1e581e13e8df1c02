package repository

import (
	"context"
	"errors"

	"github.com/daily-ledger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("userid already exists")
)

// UserRepository handles user data access
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user; a duplicate userid returns ErrDuplicateUser
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUser
	}
	return err
}

// GetByID retrieves a user by surrogate ID
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetByIDForShare retrieves a user by surrogate ID and holds a shared lock
// on the row, so a concurrent delete waits for the surrounding transaction
func (r *UserRepository) GetByIDForShare(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetByUserID retrieves a user by login name
func (r *UserRepository) GetByUserID(ctx context.Context, userid string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("userid = ?", userid).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetByUserIDForUpdate retrieves a user by login name and locks the row
// until the surrounding transaction ends
func (r *UserRepository) GetByUserIDForUpdate(ctx context.Context, userid string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("userid = ?", userid).
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// ExistsByUserID checks whether a login name is taken
func (r *UserRepository) ExistsByUserID(ctx context.Context, userid string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("userid = ?", userid).Count(&count).Error
	return count > 0, err
}

// List returns all users ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	result := r.db.WithContext(ctx).Order("id").Find(&users)
	return users, result.Error
}

// SetActive flips the active flag and returns the updated user
func (r *UserRepository) SetActive(ctx context.Context, userid string, active bool) (*models.User, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("userid = ?", userid).
		Update("is_active", active)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetByUserID(ctx, userid)
}

// Delete removes the user row permanently
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
