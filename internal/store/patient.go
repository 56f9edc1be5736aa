package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caregrid/caregrid/internal/models"
	"gorm.io/gorm"
)

// PatientStore persists GroupPatient assignment records.
type PatientStore struct {
	db *gorm.DB
}

// NewPatientStore constructs a PatientStore.
func NewPatientStore(conn *gorm.DB) *PatientStore {
	return &PatientStore{db: conn}
}

// WithConn returns a copy of the store bound to the given connection.
func (s *PatientStore) WithConn(conn *gorm.DB) *PatientStore {
	return &PatientStore{db: conn}
}

// Assign adds a patient to the group's roster. It re-counts against the
// group's MaxPatients inside the caller's transaction, so the cap holds
// under concurrent assignment. Duplicate active assignments fail with
// ErrDuplicateAssignment.
func (s *PatientStore) Assign(ctx context.Context, group *models.Group, patientID, assignedBy uint64, at time.Time) (*models.GroupPatient, error) {
	var existing int64
	if errCount := s.db.WithContext(ctx).Model(&models.GroupPatient{}).
		Where("group_id = ? AND patient_id = ?", group.ID, patientID).
		Count(&existing).Error; errCount != nil {
		return nil, fmt.Errorf("patient store: check existing: %w", errCount)
	}
	if existing > 0 {
		return nil, models.ErrDuplicateAssignment
	}

	if group.MaxPatients != nil {
		count, errCount := s.CountByGroup(ctx, group.ID)
		if errCount != nil {
			return nil, errCount
		}
		if count >= int64(*group.MaxPatients) {
			return nil, fmt.Errorf("group %d at max_patients %d: %w", group.ID, *group.MaxPatients, models.ErrCapacityExceeded)
		}
	}

	assignment := models.GroupPatient{
		GroupID:    group.ID,
		PatientID:  patientID,
		AssignedBy: assignedBy,
		AssignedAt: at,
	}
	if errCreate := s.db.WithContext(ctx).Create(&assignment).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			return nil, models.ErrDuplicateAssignment
		}
		return nil, fmt.Errorf("patient store: assign: %w", errCreate)
	}
	return &assignment, nil
}

// Unassign removes a patient from the group's roster.
func (s *PatientStore) Unassign(ctx context.Context, groupID, patientID uint64) error {
	res := s.db.WithContext(ctx).
		Where("group_id = ? AND patient_id = ?", groupID, patientID).
		Delete(&models.GroupPatient{})
	if res.Error != nil {
		return fmt.Errorf("patient store: unassign: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByGroup returns the group's patient assignments, oldest first.
func (s *PatientStore) ListByGroup(ctx context.Context, groupID uint64) ([]models.GroupPatient, error) {
	var rows []models.GroupPatient
	if errFind := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("assigned_at ASC, id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("patient store: list by group: %w", errFind)
	}
	return rows, nil
}

// CountByGroup returns the number of active assignments in the group.
func (s *PatientStore) CountByGroup(ctx context.Context, groupID uint64) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.GroupPatient{}).
		Where("group_id = ?", groupID).
		Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("patient store: count: %w", errCount)
	}
	return count, nil
}

// DeleteByGroup removes all assignments of a group.
func (s *PatientStore) DeleteByGroup(ctx context.Context, groupID uint64) error {
	if errDelete := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Delete(&models.GroupPatient{}).Error; errDelete != nil {
		return fmt.Errorf("patient store: delete by group: %w", errDelete)
	}
	return nil
}
