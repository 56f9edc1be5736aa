package db

import (
	"fmt"

	"github.com/caregrid/caregrid/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect. The unique
// indexes it creates are the authoritative guard against concurrent
// duplicate memberships and assignments.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.Group{},
		&models.GroupMembership{},
		&models.GroupPatient{},
		&models.GroupInvitation{},
		&models.Setting{},
		&models.AuditLog{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	for _, stmt := range []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_group_memberships_group_user
			ON group_memberships (group_id, user_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_group_patients_group_patient
			ON group_patients (group_id, patient_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_group_invitations_token_hash
			ON group_invitations (token_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_group_invitations_group_expiry
			ON group_invitations (group_id, expires_at)`,
	} {
		if errExec := conn.Exec(stmt).Error; errExec != nil {
			return fmt.Errorf("db: create index: %w", errExec)
		}
	}
	return nil
}
