package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caregrid/caregrid/internal/models"
	"gorm.io/gorm"
)

// MembershipStore persists GroupMembership records.
type MembershipStore struct {
	db *gorm.DB
}

// NewMembershipStore constructs a MembershipStore.
func NewMembershipStore(conn *gorm.DB) *MembershipStore {
	return &MembershipStore{db: conn}
}

// WithConn returns a copy of the store bound to the given connection.
func (s *MembershipStore) WithConn(conn *gorm.DB) *MembershipStore {
	return &MembershipStore{db: conn}
}

// Add inserts a membership. A second active membership for the same
// (group, user) pair fails with ErrDuplicateMembership; the unique index
// enforces this even against a concurrent insert.
func (s *MembershipStore) Add(ctx context.Context, groupID, userID uint64, role models.Role, invitedBy *uint64, joinedAt time.Time) (*models.GroupMembership, error) {
	var existing int64
	if errCount := s.db.WithContext(ctx).Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&existing).Error; errCount != nil {
		return nil, fmt.Errorf("membership store: check existing: %w", errCount)
	}
	if existing > 0 {
		return nil, models.ErrDuplicateMembership
	}

	membership := models.GroupMembership{
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		InvitedBy: invitedBy,
		JoinedAt:  joinedAt,
	}
	if errCreate := s.db.WithContext(ctx).Create(&membership).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			return nil, models.ErrDuplicateMembership
		}
		return nil, fmt.Errorf("membership store: add: %w", errCreate)
	}
	return &membership, nil
}

// Get returns the membership for a (group, user) pair.
func (s *MembershipStore) Get(ctx context.Context, groupID, userID uint64) (*models.GroupMembership, error) {
	var membership models.GroupMembership
	if errFind := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&membership).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("membership store: get: %w", errFind)
	}
	return &membership, nil
}

// ChangeRole sets a member's role.
func (s *MembershipStore) ChangeRole(ctx context.Context, groupID, userID uint64, newRole models.Role) (*models.GroupMembership, error) {
	membership, errGet := s.Get(ctx, groupID, userID)
	if errGet != nil {
		return nil, errGet
	}
	membership.Role = newRole
	if errSave := s.db.WithContext(ctx).Save(membership).Error; errSave != nil {
		return nil, fmt.Errorf("membership store: change role: %w", errSave)
	}
	return membership, nil
}

// Remove deletes a membership.
func (s *MembershipStore) Remove(ctx context.Context, groupID, userID uint64) error {
	res := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMembership{})
	if res.Error != nil {
		return fmt.Errorf("membership store: remove: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByGroup returns the group's memberships, oldest first.
func (s *MembershipStore) ListByGroup(ctx context.Context, groupID uint64) ([]models.GroupMembership, error) {
	var rows []models.GroupMembership
	if errFind := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC, id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("membership store: list by group: %w", errFind)
	}
	return rows, nil
}

// ListByUser returns all memberships held by a user.
func (s *MembershipStore) ListByUser(ctx context.Context, userID uint64) ([]models.GroupMembership, error) {
	var rows []models.GroupMembership
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at ASC, id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("membership store: list by user: %w", errFind)
	}
	return rows, nil
}

// AdminCount returns the number of admins in the group.
func (s *MembershipStore) AdminCount(ctx context.Context, groupID uint64) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.GroupMembership{}).
		Where("group_id = ? AND role = ?", groupID, models.RoleAdmin).
		Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("membership store: admin count: %w", errCount)
	}
	return count, nil
}

// IsSoleAdmin reports whether the user is the group's only admin.
func (s *MembershipStore) IsSoleAdmin(ctx context.Context, groupID, userID uint64) (bool, error) {
	membership, errGet := s.Get(ctx, groupID, userID)
	if errGet != nil {
		if errors.Is(errGet, models.ErrNotFound) {
			return false, nil
		}
		return false, errGet
	}
	if membership.Role != models.RoleAdmin {
		return false, nil
	}
	count, errCount := s.AdminCount(ctx, groupID)
	if errCount != nil {
		return false, errCount
	}
	return count == 1, nil
}

// DeleteByGroup removes all memberships of a group.
func (s *MembershipStore) DeleteByGroup(ctx context.Context, groupID uint64) error {
	if errDelete := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Delete(&models.GroupMembership{}).Error; errDelete != nil {
		return fmt.Errorf("membership store: delete by group: %w", errDelete)
	}
	return nil
}
