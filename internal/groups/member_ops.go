package groups

import (
	"context"
	"fmt"

	"github.com/caregrid/caregrid/internal/models"
	"github.com/caregrid/caregrid/internal/permission"
)

// ChangeMemberRole sets a member's role. Demoting the group's last admin
// fails with ErrLastAdminViolation so the group cannot become unmanageable.
func (s *Service) ChangeMemberRole(ctx context.Context, groupID, targetUserID uint64, newRole models.Role, callerUserID uint64) (*models.GroupMembership, error) {
	if !models.ValidRole(newRole) {
		return nil, fmt.Errorf("unknown role %q: %w", newRole, models.ErrValidation)
	}

	var updated *models.GroupMembership
	errTx := s.inTx(ctx, func(tx *txStores) error {
		callerMemberships, errList := tx.memberships.ListByUser(ctx, callerUserID)
		if errList != nil {
			return errList
		}
		if !permission.IsAdminOf(callerMemberships, groupID) {
			return models.ErrForbidden
		}

		target, errGet := tx.memberships.Get(ctx, groupID, targetUserID)
		if errGet != nil {
			return errGet
		}
		adminCount, errCount := tx.memberships.AdminCount(ctx, groupID)
		if errCount != nil {
			return errCount
		}
		if !permission.CanChangeMemberRole(callerMemberships, groupID, targetUserID, callerUserID, target.Role, newRole, int(adminCount)) {
			return models.ErrLastAdminViolation
		}

		membership, errChange := tx.memberships.ChangeRole(ctx, groupID, targetUserID, newRole)
		if errChange != nil {
			return errChange
		}
		updated = membership
		return tx.audits.Record(ctx, groupID, callerUserID, "member.role_change", map[string]any{
			"target_user_id": targetUserID,
			"new_role":       string(newRole),
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return updated, nil
}

// RemoveMember removes a member from a group. Admins may remove anyone and
// members may remove themselves, but the group's sole admin can never be
// removed while other members remain adminless.
func (s *Service) RemoveMember(ctx context.Context, groupID, targetUserID, callerUserID uint64) error {
	return s.inTx(ctx, func(tx *txStores) error {
		callerMemberships, errList := tx.memberships.ListByUser(ctx, callerUserID)
		if errList != nil {
			return errList
		}
		if !permission.IsAdminOf(callerMemberships, groupID) && callerUserID != targetUserID {
			return models.ErrForbidden
		}

		if _, errGet := tx.memberships.Get(ctx, groupID, targetUserID); errGet != nil {
			return errGet
		}
		soleAdmin, errSole := tx.memberships.IsSoleAdmin(ctx, groupID, targetUserID)
		if errSole != nil {
			return errSole
		}
		if !permission.CanRemoveMember(callerMemberships, groupID, targetUserID, callerUserID, soleAdmin) {
			return models.ErrLastAdminViolation
		}

		if errRemove := tx.memberships.Remove(ctx, groupID, targetUserID); errRemove != nil {
			return errRemove
		}
		return tx.audits.Record(ctx, groupID, callerUserID, "member.remove", map[string]any{
			"target_user_id": targetUserID,
		})
	})
}

// ListMembers returns a group's memberships. Any member of the group may
// list them.
func (s *Service) ListMembers(ctx context.Context, groupID, callerUserID uint64) ([]models.GroupMembership, error) {
	callerMemberships, errList := s.memberships.ListByUser(ctx, callerUserID)
	if errList != nil {
		return nil, errList
	}
	if !permission.IsMemberOf(callerMemberships, groupID) {
		return nil, models.ErrForbidden
	}
	return s.memberships.ListByGroup(ctx, groupID)
}
