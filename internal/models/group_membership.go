package models

import "time"

// Role identifies a member's standing within a group.
type Role string

// Role constants define membership roles.
const (
	// RoleAdmin grants full group management rights.
	RoleAdmin Role = "admin"
	// RoleMember grants collaboration rights without management.
	RoleMember Role = "member"
)

// ValidRole reports whether the role is a known value.
func ValidRole(role Role) bool {
	return role == RoleAdmin || role == RoleMember
}

// GroupMembership grants a user standing in a group with a role.
// At most one row may exist per (group_id, user_id).
type GroupMembership struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GroupID uint64 `gorm:"not null;uniqueIndex:idx_group_memberships_group_user"` // Owning group ID.
	Group   Group  `gorm:"foreignKey:GroupID"`                                    // Owning group.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_group_memberships_group_user;index"` // External identity of the member.

	Role Role `gorm:"type:text;not null"` // Granted role.

	InvitedBy *uint64 `gorm:"type:bigint"` // User who invited this member, when joined via invitation.

	JoinedAt  time.Time `gorm:"not null"`                // Join timestamp.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
