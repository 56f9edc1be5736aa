// Package store persists the group domain via GORM. Each store owns one
// table; cross-table orchestration belongs to the groups service, which
// binds stores to a single transaction with WithConn.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/caregrid/caregrid/internal/db"
	"github.com/caregrid/caregrid/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupStore persists Group records.
type GroupStore struct {
	db *gorm.DB
}

// NewGroupStore constructs a GroupStore.
func NewGroupStore(conn *gorm.DB) *GroupStore {
	return &GroupStore{db: conn}
}

// WithConn returns a copy of the store bound to the given connection,
// typically a transaction.
func (s *GroupStore) WithConn(conn *gorm.DB) *GroupStore {
	return &GroupStore{db: conn}
}

// Create inserts a new group.
func (s *GroupStore) Create(ctx context.Context, group *models.Group) error {
	if errCreate := s.db.WithContext(ctx).Create(group).Error; errCreate != nil {
		return fmt.Errorf("group store: create: %w", errCreate)
	}
	return nil
}

// Get returns a group by ID.
func (s *GroupStore) Get(ctx context.Context, id uint64) (*models.Group, error) {
	var group models.Group
	if errFind := s.db.WithContext(ctx).First(&group, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("group store: get: %w", errFind)
	}
	return &group, nil
}

// GetLocked returns a group by ID, holding a row lock for the enclosing
// transaction so capacity re-counts serialize against concurrent writers.
// SQLite transactions are already serialized, so no lock clause is added
// there.
func (s *GroupStore) GetLocked(ctx context.Context, id uint64) (*models.Group, error) {
	q := s.db.WithContext(ctx)
	if !db.IsSQLite(s.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var group models.Group
	if errFind := q.First(&group, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("group store: get locked: %w", errFind)
	}
	return &group, nil
}

// GroupPatch holds optional group field updates. MaxMembers/MaxPatients
// distinguish "leave unchanged" (outer nil) from "clear the cap" (inner nil).
type GroupPatch struct {
	Name        *string
	Description *string
	MaxMembers  **int
	MaxPatients **int

	PatientManagementRequiresAdmin *bool
}

// Update applies a patch to a group. Reducing a capacity below the current
// active count fails with ErrCapacityViolation.
func (s *GroupStore) Update(ctx context.Context, id uint64, patch GroupPatch) (*models.Group, error) {
	group, errGet := s.GetLocked(ctx, id)
	if errGet != nil {
		return nil, errGet
	}

	if patch.MaxMembers != nil && *patch.MaxMembers != nil {
		count, errCount := s.CountActiveMembers(ctx, id)
		if errCount != nil {
			return nil, errCount
		}
		if int64(**patch.MaxMembers) < count {
			return nil, fmt.Errorf("max_members %d below %d active members: %w", **patch.MaxMembers, count, models.ErrCapacityViolation)
		}
	}
	if patch.MaxPatients != nil && *patch.MaxPatients != nil {
		count, errCount := s.CountActivePatients(ctx, id)
		if errCount != nil {
			return nil, errCount
		}
		if int64(**patch.MaxPatients) < count {
			return nil, fmt.Errorf("max_patients %d below %d active assignments: %w", **patch.MaxPatients, count, models.ErrCapacityViolation)
		}
	}

	if patch.Name != nil {
		group.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		group.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.MaxMembers != nil {
		group.MaxMembers = *patch.MaxMembers
	}
	if patch.MaxPatients != nil {
		group.MaxPatients = *patch.MaxPatients
	}
	if patch.PatientManagementRequiresAdmin != nil {
		group.PatientManagementRequiresAdmin = *patch.PatientManagementRequiresAdmin
	}

	if errSave := s.db.WithContext(ctx).Save(group).Error; errSave != nil {
		return nil, fmt.Errorf("group store: update: %w", errSave)
	}
	return group, nil
}

// Delete removes a group row. Dependent rows are removed by the service
// through the owning stores inside the same transaction.
func (s *GroupStore) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.Group{}, id)
	if res.Error != nil {
		return fmt.Errorf("group store: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountActiveMembers returns the number of active memberships in the group.
func (s *GroupStore) CountActiveMembers(ctx context.Context, id uint64) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.GroupMembership{}).
		Where("group_id = ?", id).Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("group store: count members: %w", errCount)
	}
	return count, nil
}

// CountActivePatients returns the number of active patient assignments in the group.
func (s *GroupStore) CountActivePatients(ctx context.Context, id uint64) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.GroupPatient{}).
		Where("group_id = ?", id).Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("group store: count patients: %w", errCount)
	}
	return count, nil
}

// ListForUser returns the groups the user belongs to, optionally filtered by
// a case-insensitive name search, newest first, with offset pagination.
func (s *GroupStore) ListForUser(ctx context.Context, userID uint64, search string, page, limit int) ([]models.Group, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Group{}).
		Joins("JOIN group_memberships ON group_memberships.group_id = groups.id").
		Where("group_memberships.user_id = ?", userID)
	if search = strings.TrimSpace(search); search != "" {
		pattern := db.NormalizeLikePattern(s.db, "%"+search+"%")
		q = q.Where(db.CaseInsensitiveLikeExpr(s.db, "groups.name"), pattern)
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		return nil, 0, fmt.Errorf("group store: count list: %w", errCount)
	}

	var rows []models.Group
	if errFind := q.Order("groups.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, 0, fmt.Errorf("group store: list: %w", errFind)
	}
	return rows, total, nil
}
