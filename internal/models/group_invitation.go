package models

import "time"

// GroupInvitation is a time-boxed, token-redeemable offer of membership.
// At most one of AcceptedAt, DeclinedAt, RevokedAt may ever be set; the
// invitation status is always derived from these markers and ExpiresAt,
// never stored as its own column.
type GroupInvitation struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GroupID uint64 `gorm:"not null;index"`     // Target group ID.
	Group   Group  `gorm:"foreignKey:GroupID"` // Target group.

	Email string `gorm:"type:text;not null"` // Invitee address; not yet a user ID.
	Role  Role   `gorm:"type:text;not null"` // Role granted on acceptance.

	InvitedByUserID uint64 `gorm:"not null"` // Admin who issued the invitation.

	TokenHash string `gorm:"type:text;not null;uniqueIndex"` // SHA-256 of the redemption secret; the raw token is never stored.

	ExpiresAt time.Time `gorm:"not null"` // Expiry instant; past this the invitation reads as expired.

	AcceptedAt *time.Time // Acceptance marker.
	DeclinedAt *time.Time // Decline marker.
	RevokedAt  *time.Time // Revocation marker.

	AcceptedByUserID *uint64 `gorm:"type:bigint"` // User who redeemed the invitation.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Resolved reports whether a terminal marker is set.
func (inv GroupInvitation) Resolved() bool {
	return inv.AcceptedAt != nil || inv.DeclinedAt != nil || inv.RevokedAt != nil
}
