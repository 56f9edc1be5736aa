package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records a group mutation for traceability. Rows are written in
// the same transaction as the mutation they describe.
type AuditLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GroupID     uint64 `gorm:"not null;index"` // Affected group ID.
	ActorUserID uint64 `gorm:"not null;index"` // User who performed the action.

	Action string         `gorm:"type:text;not null"` // Action name, e.g. "member.remove".
	Detail datatypes.JSON `gorm:"type:jsonb"`         // Action-specific payload.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
