package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daily-ledger/internal/cache"
	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/internal/policy"
	"github.com/daily-ledger/internal/repository"
	"github.com/daily-ledger/pkg/crypto"
	"github.com/daily-ledger/pkg/logger"
)

// UserService manages accounts
type UserService struct {
	store *repository.Store
	audit *AuditService
	cache cache.IdentityCache
	now   func() time.Time
}

// NewUserService creates a new UserService; identities may be nil
func NewUserService(store *repository.Store, audit *AuditService, identities cache.IdentityCache) *UserService {
	if identities == nil {
		identities = cache.NopIdentityCache{}
	}
	return &UserService{
		store: store,
		audit: audit,
		cache: identities,
		now:   time.Now,
	}
}

// SetClock replaces the time source; used by tests
func (s *UserService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateUserRequest represents the create user request
type CreateUserRequest struct {
	UserID   string `json:"userid" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=72"`
	FullName string `json:"full_name" binding:"max=255"`
	IsAdmin  bool   `json:"is_admin"`
}

// UserResponse is the API view of a user
type UserResponse struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"userid"`
	FullName  string    `json:"full_name"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse converts a user to its API view
func ToUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		UserID:    u.UserID,
		FullName:  u.FullName,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// Create registers a new account and audits it as create_user
func (s *UserService) Create(ctx context.Context, actor *policy.Identity, req *CreateUserRequest) (*models.User, error) {
	userid := strings.TrimSpace(req.UserID)
	if userid == "" {
		return nil, invalid("userid", errRequired)
	}
	if req.Password == "" {
		return nil, invalid("password", errRequired)
	}

	exists, err := s.store.Users.ExistsByUserID(ctx, userid)
	if err != nil {
		return nil, fmt.Errorf("check userid: %w", err)
	}
	if exists {
		return nil, ErrUserIDTaken
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return nil, invalid("password", err)
		}
		return nil, err
	}

	user := &models.User{
		UserID:       userid,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: passwordHash,
		IsAdmin:      req.IsAdmin,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}

	var entry *models.AuditLog
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateUser) {
				return ErrUserIDTaken
			}
			return err
		}
		entry, err = s.audit.Record(ctx, tx, actorID(actor), models.ActionCreateUser, map[string]interface{}{
			"created_user": user.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.Publish(ctx, entry)

	logger.Infof("[UserService] created user %s (admin=%t)", user.UserID, user.IsAdmin)
	return user, nil
}

// EnsureAdmin creates an admin account unless the userid already exists.
// The returned flag reports whether a new account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, userid, password, fullName string) (*models.User, bool, error) {
	existing, err := s.store.Users.GetByUserID(ctx, userid)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	user, err := s.Create(ctx, nil, &CreateUserRequest{
		UserID:   userid,
		Password: password,
		FullName: fullName,
		IsAdmin:  true,
	})
	if errors.Is(err, ErrUserIDTaken) {
		existing, getErr := s.store.Users.GetByUserID(ctx, userid)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Authenticate checks a userid and password. Unknown userids, wrong
// passwords and inactive accounts are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, userid, password string) (*models.User, error) {
	user, err := s.store.Users.GetByUserID(ctx, userid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			crypto.BurnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID retrieves a user by surrogate ID
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users.GetByID(ctx, id)
}

// GetByUserID retrieves a user by login name
func (s *UserService) GetByUserID(ctx context.Context, userid string) (*models.User, error) {
	return s.store.Users.GetByUserID(ctx, userid)
}

// List returns all users ordered by ID
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.Users.List(ctx)
}

// Deactivate blocks future logins for userid. Tokens already issued stay
// valid until they expire.
func (s *UserService) Deactivate(ctx context.Context, actor *policy.Identity, userid string) (*models.User, error) {
	return s.setActive(ctx, actor, userid, false, models.ActionDeactivateUser)
}

// Restore re-enables logins for userid
func (s *UserService) Restore(ctx context.Context, actor *policy.Identity, userid string) (*models.User, error) {
	return s.setActive(ctx, actor, userid, true, models.ActionRestoreUser)
}

func (s *UserService) setActive(ctx context.Context, actor *policy.Identity, userid string, active bool, action models.AuditAction) (*models.User, error) {
	var (
		user  *models.User
		entry *models.AuditLog
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		user, err = tx.Users.SetActive(ctx, userid, active)
		if err != nil {
			return err
		}
		entry, err = s.audit.Record(ctx, tx, actorID(actor), action, map[string]interface{}{
			"userid": userid,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.Publish(ctx, entry)
	return user, nil
}

// HardDelete permanently removes a user together with all of its daily
// records. The audit entry survives the user.
func (s *UserService) HardDelete(ctx context.Context, actor *policy.Identity, userid string) error {
	var (
		user    *models.User
		entry   *models.AuditLog
		removed int64
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		user, err = tx.Users.GetByUserIDForUpdate(ctx, userid)
		if err != nil {
			return err
		}
		removed, err = tx.Daily.DeleteByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("delete daily records: %w", err)
		}
		if err := tx.Users.Delete(ctx, user.ID); err != nil {
			return err
		}
		entry, err = s.audit.Record(ctx, tx, actorID(actor), models.ActionDeleteUser, map[string]interface{}{
			"userid":          userid,
			"deleted_records": removed,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, user.ID)
	s.audit.Publish(ctx, entry)
	logger.Infof("[UserService] deleted user %s and %d daily records", userid, removed)
	return nil
}
