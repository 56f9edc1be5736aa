package groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/caregrid/caregrid/internal/models"
	"github.com/caregrid/caregrid/internal/permission"
	"github.com/caregrid/caregrid/internal/store"
)

// CreateGroupParams holds inputs for group creation.
type CreateGroupParams struct {
	Name        string
	Description string
	MaxMembers  *int
	MaxPatients *int

	PatientManagementRequiresAdmin bool
}

// GroupSummary is a group plus its active counts, as returned by listings.
type GroupSummary struct {
	Group        models.Group
	MemberCount  int64
	PatientCount int64
}

// GroupDetail is a group with its full member and patient rosters.
type GroupDetail struct {
	Group    models.Group
	Members  []models.GroupMembership
	Patients []models.GroupPatient
}

// CreateGroup creates a group and makes the caller its first admin.
func (s *Service) CreateGroup(ctx context.Context, params CreateGroupParams, callerUserID uint64) (*models.Group, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", models.ErrValidation)
	}
	if params.MaxMembers != nil && *params.MaxMembers < 1 {
		return nil, fmt.Errorf("max_members must be positive: %w", models.ErrValidation)
	}
	if params.MaxPatients != nil && *params.MaxPatients < 1 {
		return nil, fmt.Errorf("max_patients must be positive: %w", models.ErrValidation)
	}

	group := models.Group{
		Name:                           name,
		Description:                    strings.TrimSpace(params.Description),
		MaxMembers:                     params.MaxMembers,
		MaxPatients:                    params.MaxPatients,
		PatientManagementRequiresAdmin: params.PatientManagementRequiresAdmin,
	}

	errTx := s.inTx(ctx, func(tx *txStores) error {
		if errCreate := tx.groups.Create(ctx, &group); errCreate != nil {
			return errCreate
		}
		if _, errAdd := tx.memberships.Add(ctx, group.ID, callerUserID, models.RoleAdmin, nil, s.now()); errAdd != nil {
			return errAdd
		}
		return tx.audits.Record(ctx, group.ID, callerUserID, "group.create", map[string]any{"name": group.Name})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &group, nil
}

// ListGroups returns the caller's groups with member and patient counts.
func (s *Service) ListGroups(ctx context.Context, callerUserID uint64, search string, page, limit int) ([]GroupSummary, int64, error) {
	rows, total, errList := s.groups.ListForUser(ctx, callerUserID, search, page, limit)
	if errList != nil {
		return nil, 0, errList
	}
	out := make([]GroupSummary, 0, len(rows))
	for _, row := range rows {
		memberCount, errCount := s.groups.CountActiveMembers(ctx, row.ID)
		if errCount != nil {
			return nil, 0, errCount
		}
		patientCount, errCount := s.groups.CountActivePatients(ctx, row.ID)
		if errCount != nil {
			return nil, 0, errCount
		}
		out = append(out, GroupSummary{Group: row, MemberCount: memberCount, PatientCount: patientCount})
	}
	return out, total, nil
}

// GetGroup returns a group with its members and patient assignments.
func (s *Service) GetGroup(ctx context.Context, groupID uint64) (*GroupDetail, error) {
	group, errGet := s.groups.Get(ctx, groupID)
	if errGet != nil {
		return nil, errGet
	}
	members, errMembers := s.memberships.ListByGroup(ctx, groupID)
	if errMembers != nil {
		return nil, errMembers
	}
	patients, errPatients := s.patients.ListByGroup(ctx, groupID)
	if errPatients != nil {
		return nil, errPatients
	}
	return &GroupDetail{Group: *group, Members: members, Patients: patients}, nil
}

// UpdateGroup applies a patch to a group. Only admins may update; capacity
// reductions below current counts fail with ErrCapacityViolation.
func (s *Service) UpdateGroup(ctx context.Context, groupID uint64, patch store.GroupPatch, callerUserID uint64) (*models.Group, error) {
	var updated *models.Group
	errTx := s.inTx(ctx, func(tx *txStores) error {
		memberships, errList := tx.memberships.ListByUser(ctx, callerUserID)
		if errList != nil {
			return errList
		}
		if !permission.IsAdminOf(memberships, groupID) {
			return models.ErrForbidden
		}
		group, errUpdate := tx.groups.Update(ctx, groupID, patch)
		if errUpdate != nil {
			return errUpdate
		}
		updated = group
		return tx.audits.Record(ctx, groupID, callerUserID, "group.update", nil)
	})
	if errTx != nil {
		return nil, errTx
	}
	return updated, nil
}

// ListAuditLog returns the group's recent audit entries, newest first.
// Admins only.
func (s *Service) ListAuditLog(ctx context.Context, groupID, callerUserID uint64, limit int) ([]models.AuditLog, error) {
	callerMemberships, errList := s.memberships.ListByUser(ctx, callerUserID)
	if errList != nil {
		return nil, errList
	}
	if !permission.IsAdminOf(callerMemberships, groupID) {
		return nil, models.ErrForbidden
	}
	if _, errGet := s.groups.Get(ctx, groupID); errGet != nil {
		return nil, errGet
	}
	return s.audits.ListByGroup(ctx, groupID, limit)
}

// DeleteGroup removes a group and cascades to its memberships, patient
// assignments, and open invitations, all in one transaction.
func (s *Service) DeleteGroup(ctx context.Context, groupID uint64, callerUserID uint64) error {
	return s.inTx(ctx, func(tx *txStores) error {
		memberships, errList := tx.memberships.ListByUser(ctx, callerUserID)
		if errList != nil {
			return errList
		}
		if !permission.IsAdminOf(memberships, groupID) {
			return models.ErrForbidden
		}
		if errAudit := tx.audits.Record(ctx, groupID, callerUserID, "group.delete", nil); errAudit != nil {
			return errAudit
		}
		if errDelete := tx.invitations.DeleteByGroup(ctx, groupID); errDelete != nil {
			return errDelete
		}
		if errDelete := tx.patients.DeleteByGroup(ctx, groupID); errDelete != nil {
			return errDelete
		}
		if errDelete := tx.memberships.DeleteByGroup(ctx, groupID); errDelete != nil {
			return errDelete
		}
		return tx.groups.Delete(ctx, groupID)
	})
}
