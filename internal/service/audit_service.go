package service

import (
	"context"
	"time"

	"github.com/daily-ledger/internal/config"
	"github.com/daily-ledger/internal/events"
	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/internal/repository"
	"github.com/daily-ledger/internal/reqctx"
	"github.com/daily-ledger/pkg/logger"
	"gorm.io/datatypes"
)

// AuditService writes audit entries inside the caller's transaction and
// fans them out after commit.
type AuditService struct {
	store  *repository.Store
	bus    events.AuditBus
	config config.AuditConfig
	now    func() time.Time
}

// NewAuditService creates a new AuditService; bus may be nil
func NewAuditService(store *repository.Store, bus events.AuditBus, cfg config.AuditConfig) *AuditService {
	return &AuditService{
		store:  store,
		bus:    bus,
		config: cfg,
		now:    time.Now,
	}
}

// SetClock replaces the time source; used by tests
func (s *AuditService) SetClock(now func() time.Time) {
	s.now = now
}

// Record appends one entry using tx, so it commits or rolls back together
// with the mutation it describes.
func (s *AuditService) Record(ctx context.Context, tx *repository.Store, actorID *uint, action models.AuditAction, details map[string]interface{}) (*models.AuditLog, error) {
	payload := datatypes.JSONMap{}
	for k, v := range details {
		payload[k] = v
	}
	if id := reqctx.RequestID(ctx); id != "" {
		payload["request_id"] = id
	}

	entry := &models.AuditLog{
		ActorUserID: actorID,
		Action:      action,
		Details:     payload,
		CreatedAt:   s.now().UTC(),
	}
	if err := tx.Audit.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Publish hands committed entries to the live bus. Failures are logged and
// never surface to the caller.
func (s *AuditService) Publish(ctx context.Context, entries ...*models.AuditLog) {
	if s.bus == nil {
		return
	}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if err := s.bus.Publish(context.WithoutCancel(ctx), *entry); err != nil {
			logger.Warnf("[AuditService] publish %s #%d failed: %v", entry.Action, entry.ID, err)
		}
	}
}

// ListAuditRequest holds the audit log query parameters
type ListAuditRequest struct {
	Action  string `form:"action"`
	ActorID *uint  `form:"actor_id"`
	Limit   int    `form:"limit"`
}

// List returns audit entries newest first
func (s *AuditService) List(ctx context.Context, req *ListAuditRequest) ([]models.AuditLog, error) {
	filter := repository.AuditFilter{
		ActorID: req.ActorID,
		Limit:   req.Limit,
	}
	if req.Action != "" {
		action := models.AuditAction(req.Action)
		if !action.Valid() {
			return nil, invalid("action", errUnknownAction)
		}
		filter.Action = action
	}
	switch {
	case filter.Limit < 0:
		return nil, invalid("limit", errNegativeLimit)
	case filter.Limit == 0:
		filter.Limit = s.config.DefaultLimit
	case filter.Limit > s.config.MaxLimit:
		filter.Limit = s.config.MaxLimit
	}
	return s.store.Audit.List(ctx, filter)
}
