package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caregrid/caregrid/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditStore persists AuditLog records.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore constructs an AuditStore.
func NewAuditStore(conn *gorm.DB) *AuditStore {
	return &AuditStore{db: conn}
}

// WithConn returns a copy of the store bound to the given connection.
func (s *AuditStore) WithConn(conn *gorm.DB) *AuditStore {
	return &AuditStore{db: conn}
}

// Record writes an audit entry. Detail may be nil.
func (s *AuditStore) Record(ctx context.Context, groupID, actorUserID uint64, action string, detail map[string]any) error {
	entry := models.AuditLog{
		GroupID:     groupID,
		ActorUserID: actorUserID,
		Action:      action,
	}
	if detail != nil {
		payload, errMarshal := json.Marshal(detail)
		if errMarshal != nil {
			return fmt.Errorf("audit store: marshal detail: %w", errMarshal)
		}
		entry.Detail = datatypes.JSON(payload)
	}
	if errCreate := s.db.WithContext(ctx).Create(&entry).Error; errCreate != nil {
		return fmt.Errorf("audit store: record: %w", errCreate)
	}
	return nil
}

// ListByGroup returns a group's audit entries, newest first.
func (s *AuditStore) ListByGroup(ctx context.Context, groupID uint64, limit int) ([]models.AuditLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	var rows []models.AuditLog
	if errFind := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("audit store: list by group: %w", errFind)
	}
	return rows, nil
}
