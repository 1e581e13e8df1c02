package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction is the closed vocabulary of persisted audit actions.
// Values are stored as-is; add new ones, never repurpose old ones.
type AuditAction string

const (
	ActionLogin          AuditAction = "login"
	ActionCreateUser     AuditAction = "create_user"
	ActionSubmitDaily    AuditAction = "submit_daily"
	ActionUpdateDaily    AuditAction = "update_daily"
	ActionDeleteDaily    AuditAction = "delete_daily"
	ActionRestoreDaily   AuditAction = "restore_daily"
	ActionDeactivateUser AuditAction = "deactivate_user"
	ActionRestoreUser    AuditAction = "restore_user"
	ActionDeleteUser     AuditAction = "delete_user"
)

// AuditActions lists every valid action
var AuditActions = []AuditAction{
	ActionLogin,
	ActionCreateUser,
	ActionSubmitDaily,
	ActionUpdateDaily,
	ActionDeleteDaily,
	ActionRestoreDaily,
	ActionDeactivateUser,
	ActionRestoreUser,
	ActionDeleteUser,
}

// Valid reports whether a is part of the vocabulary
func (a AuditAction) Valid() bool {
	for _, known := range AuditActions {
		if a == known {
			return true
		}
	}
	return false
}

// AuditLog is a write-once record of a mutation.
// ActorUserID is a weak reference: there is no foreign key and the user may
// since have been deleted.
type AuditLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ActorUserID *uint             `gorm:"index" json:"actor_user_id"`
	Action      AuditAction       `gorm:"type:text;not null;index" json:"action"`
	Details     datatypes.JSONMap `json:"details"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
