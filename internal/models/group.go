package models

import "time"

// Group is a named collaboration unit owning members and patient assignments.
type Group struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null"` // Display name.
	Description string `gorm:"type:text"`          // Optional description.

	MaxMembers  *int `gorm:"type:integer"` // Cap on active memberships; nil means unlimited.
	MaxPatients *int `gorm:"type:integer"` // Cap on active patient assignments; nil means unlimited.

	PatientManagementRequiresAdmin bool `gorm:"not null;default:false"` // Restricts patient roster changes to admins.

	Memberships []GroupMembership `gorm:"foreignKey:GroupID"` // Related memberships.
	Patients    []GroupPatient    `gorm:"foreignKey:GroupID"` // Related patient assignments.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
