package models

import "time"

// GroupPatient makes a patient record visible to a group.
// At most one row may exist per (group_id, patient_id).
type GroupPatient struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GroupID uint64 `gorm:"not null;uniqueIndex:idx_group_patients_group_patient"` // Owning group ID.
	Group   Group  `gorm:"foreignKey:GroupID"`                                    // Owning group.

	PatientID uint64 `gorm:"not null;uniqueIndex:idx_group_patients_group_patient;index"` // External patient record ID.

	AssignedBy uint64 `gorm:"not null"` // User who assigned the patient.

	AssignedAt time.Time `gorm:"not null"`                // Assignment timestamp.
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
