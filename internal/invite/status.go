package invite

import (
	"time"

	"github.com/caregrid/caregrid/internal/models"
)

// Status is the derived state of an invitation.
type Status string

// Status values. The terminal states are accepted, declined, revoked, and
// expired; only pending can transition.
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusRevoked  Status = "revoked"
	StatusExpired  Status = "expired"
)

// StatusOf derives the invitation status at the given instant. Terminal
// markers win over expiry, in accepted > declined > revoked precedence
// should more than one ever be set.
func StatusOf(inv models.GroupInvitation, now time.Time) Status {
	switch {
	case inv.AcceptedAt != nil:
		return StatusAccepted
	case inv.DeclinedAt != nil:
		return StatusDeclined
	case inv.RevokedAt != nil:
		return StatusRevoked
	case !now.Before(inv.ExpiresAt):
		return StatusExpired
	default:
		return StatusPending
	}
}
