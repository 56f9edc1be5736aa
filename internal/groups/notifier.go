package groups

import (
	"context"

	"github.com/caregrid/caregrid/internal/models"
	log "github.com/sirupsen/logrus"
)

// Notifier is told about invitations that need delivering. Email transport
// lives outside this service; the token is handed over exactly once, at
// creation time.
type Notifier interface {
	InvitationCreated(ctx context.Context, inv models.GroupInvitation, token string)
}

// LogNotifier records invitation events in the log. It stands in wherever no
// delivery channel is wired.
type LogNotifier struct{}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// InvitationCreated logs the invitation without leaking the token.
func (n *LogNotifier) InvitationCreated(_ context.Context, inv models.GroupInvitation, _ string) {
	log.WithFields(log.Fields{
		"group_id": inv.GroupID,
		"email":    inv.Email,
		"role":     inv.Role,
	}).Info("invitation created")
}
