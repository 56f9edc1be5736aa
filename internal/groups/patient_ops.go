package groups

import (
	"context"

	"github.com/caregrid/caregrid/internal/models"
	"github.com/caregrid/caregrid/internal/permission"
)

// AssignPatient adds a patient record to the group's shared roster. The
// group's PatientManagementRequiresAdmin flag decides whether plain members
// may do this.
func (s *Service) AssignPatient(ctx context.Context, groupID, patientID, callerUserID uint64) (*models.GroupPatient, error) {
	var created *models.GroupPatient
	errTx := s.inTx(ctx, func(tx *txStores) error {
		group, errGet := tx.groups.GetLocked(ctx, groupID)
		if errGet != nil {
			return errGet
		}
		callerMemberships, errList := tx.memberships.ListByUser(ctx, callerUserID)
		if errList != nil {
			return errList
		}
		if !permission.CanManagePatients(callerMemberships, groupID, group.PatientManagementRequiresAdmin) {
			return models.ErrForbidden
		}

		assignment, errAssign := tx.patients.Assign(ctx, group, patientID, callerUserID, s.now())
		if errAssign != nil {
			return errAssign
		}
		created = assignment
		return tx.audits.Record(ctx, groupID, callerUserID, "patient.assign", map[string]any{
			"patient_id": patientID,
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return created, nil
}

// UnassignPatient removes a patient from the group's roster.
func (s *Service) UnassignPatient(ctx context.Context, groupID, patientID, callerUserID uint64) error {
	return s.inTx(ctx, func(tx *txStores) error {
		group, errGet := tx.groups.Get(ctx, groupID)
		if errGet != nil {
			return errGet
		}
		callerMemberships, errList := tx.memberships.ListByUser(ctx, callerUserID)
		if errList != nil {
			return errList
		}
		if !permission.CanManagePatients(callerMemberships, groupID, group.PatientManagementRequiresAdmin) {
			return models.ErrForbidden
		}

		if errUnassign := tx.patients.Unassign(ctx, groupID, patientID); errUnassign != nil {
			return errUnassign
		}
		return tx.audits.Record(ctx, groupID, callerUserID, "patient.unassign", map[string]any{
			"patient_id": patientID,
		})
	})
}

// ListPatients returns the group's patient roster. Any member may list it.
func (s *Service) ListPatients(ctx context.Context, groupID, callerUserID uint64) ([]models.GroupPatient, error) {
	callerMemberships, errList := s.memberships.ListByUser(ctx, callerUserID)
	if errList != nil {
		return nil, errList
	}
	if !permission.IsMemberOf(callerMemberships, groupID) {
		return nil, models.ErrForbidden
	}
	return s.patients.ListByGroup(ctx, groupID)
}
