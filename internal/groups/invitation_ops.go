package groups

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/caregrid/caregrid/internal/invite"
	"github.com/caregrid/caregrid/internal/models"
	"github.com/caregrid/caregrid/internal/permission"
)

// InvitationView is an invitation with its derived status.
type InvitationView struct {
	Invitation models.GroupInvitation
	Status     invite.Status
}

// InviteMember issues an invitation to join a group at a role. Only admins
// may invite. A group already at max_members fails early with
// ErrCapacityExceeded; the authoritative capacity check still happens at
// acceptance time. The returned token is shown exactly once and only its
// hash is stored.
func (s *Service) InviteMember(ctx context.Context, groupID uint64, email string, role models.Role, callerUserID uint64) (*models.GroupInvitation, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, errAddr := mail.ParseAddress(email); errAddr != nil {
		return nil, "", fmt.Errorf("invalid email %q: %w", email, models.ErrValidation)
	}
	if !models.ValidRole(role) {
		return nil, "", fmt.Errorf("unknown role %q: %w", role, models.ErrValidation)
	}

	token, errToken := invite.NewToken()
	if errToken != nil {
		return nil, "", errToken
	}

	now := s.now()
	invitation := models.GroupInvitation{
		GroupID:         groupID,
		Email:           email,
		Role:            role,
		InvitedByUserID: callerUserID,
		TokenHash:       invite.HashToken(token),
		ExpiresAt:       now.Add(s.inviteTTL),
	}

	errTx := s.inTx(ctx, func(tx *txStores) error {
		callerMemberships, errList := tx.memberships.ListByUser(ctx, callerUserID)
		if errList != nil {
			return errList
		}
		if !permission.CanInviteMembers(callerMemberships, groupID) {
			return models.ErrForbidden
		}

		group, errGet := tx.groups.GetLocked(ctx, groupID)
		if errGet != nil {
			return errGet
		}
		if group.MaxMembers != nil {
			memberCount, errCount := tx.groups.CountActiveMembers(ctx, groupID)
			if errCount != nil {
				return errCount
			}
			if memberCount >= int64(*group.MaxMembers) {
				return fmt.Errorf("group %d at max_members %d: %w", groupID, *group.MaxMembers, models.ErrCapacityExceeded)
			}
		}

		if errCreate := tx.invitations.Create(ctx, &invitation); errCreate != nil {
			return errCreate
		}
		return tx.audits.Record(ctx, groupID, callerUserID, "invitation.create", map[string]any{
			"email": email,
			"role":  string(role),
		})
	})
	if errTx != nil {
		return nil, "", errTx
	}

	s.notifier.InvitationCreated(ctx, invitation, token)
	return &invitation, token, nil
}

// AcceptInvitation redeems a pending invitation and creates the membership.
// The capacity re-check runs inside the same transaction as the membership
// insert; when the group filled up in the interim, the operation fails with
// ErrCapacityExceeded and the invitation stays pending, so it can still be
// retried or revoked.
func (s *Service) AcceptInvitation(ctx context.Context, token string, acceptingUserID uint64) (*models.GroupMembership, error) {
	var created *models.GroupMembership
	errTx := s.inTx(ctx, func(tx *txStores) error {
		invitation, errGet := tx.invitations.GetByTokenHash(ctx, invite.HashToken(token))
		if errGet != nil {
			return errGet
		}
		now := s.now()
		switch invite.StatusOf(*invitation, now) {
		case invite.StatusPending:
		case invite.StatusExpired:
			return models.ErrInvitationExpired
		default:
			return models.ErrInvitationAlreadyResolved
		}

		group, errGroup := tx.groups.GetLocked(ctx, invitation.GroupID)
		if errGroup != nil {
			return errGroup
		}
		if group.MaxMembers != nil {
			memberCount, errCount := tx.groups.CountActiveMembers(ctx, group.ID)
			if errCount != nil {
				return errCount
			}
			if memberCount >= int64(*group.MaxMembers) {
				return fmt.Errorf("group %d at max_members %d: %w", group.ID, *group.MaxMembers, models.ErrCapacityExceeded)
			}
		}

		invitedBy := invitation.InvitedByUserID
		membership, errAdd := tx.memberships.Add(ctx, group.ID, acceptingUserID, invitation.Role, &invitedBy, now)
		if errAdd != nil {
			return errAdd
		}
		if errMark := tx.invitations.MarkAccepted(ctx, invitation.ID, now, acceptingUserID); errMark != nil {
			return errMark
		}
		created = membership
		return tx.audits.Record(ctx, group.ID, acceptingUserID, "invitation.accept", map[string]any{
			"invitation_id": invitation.ID,
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return created, nil
}

// DeclineInvitation marks a pending invitation declined.
func (s *Service) DeclineInvitation(ctx context.Context, token string) error {
	return s.inTx(ctx, func(tx *txStores) error {
		invitation, errGet := tx.invitations.GetByTokenHash(ctx, invite.HashToken(token))
		if errGet != nil {
			return errGet
		}
		now := s.now()
		switch invite.StatusOf(*invitation, now) {
		case invite.StatusPending:
		case invite.StatusExpired:
			return models.ErrInvitationExpired
		default:
			return models.ErrInvitationAlreadyResolved
		}
		if errMark := tx.invitations.MarkDeclined(ctx, invitation.ID, now); errMark != nil {
			return errMark
		}
		return tx.audits.Record(ctx, invitation.GroupID, invitation.InvitedByUserID, "invitation.decline", map[string]any{
			"invitation_id": invitation.ID,
		})
	})
}

// RevokeInvitation withdraws a pending invitation. Only group admins may
// revoke.
func (s *Service) RevokeInvitation(ctx context.Context, invitationID, callerUserID uint64) error {
	return s.inTx(ctx, func(tx *txStores) error {
		invitation, errGet := tx.invitations.GetByID(ctx, invitationID)
		if errGet != nil {
			return errGet
		}
		callerMemberships, errList := tx.memberships.ListByUser(ctx, callerUserID)
		if errList != nil {
			return errList
		}
		if !permission.CanInviteMembers(callerMemberships, invitation.GroupID) {
			return models.ErrForbidden
		}
		now := s.now()
		switch invite.StatusOf(*invitation, now) {
		case invite.StatusPending:
		case invite.StatusExpired:
			return models.ErrInvitationExpired
		default:
			return models.ErrInvitationAlreadyResolved
		}
		if errMark := tx.invitations.MarkRevoked(ctx, invitation.ID, now); errMark != nil {
			return errMark
		}
		return tx.audits.Record(ctx, invitation.GroupID, callerUserID, "invitation.revoke", map[string]any{
			"invitation_id": invitation.ID,
		})
	})
}

// ListInvitations returns a group's invitations with derived statuses. Only
// admins may list them.
func (s *Service) ListInvitations(ctx context.Context, groupID, callerUserID uint64) ([]InvitationView, error) {
	callerMemberships, errList := s.memberships.ListByUser(ctx, callerUserID)
	if errList != nil {
		return nil, errList
	}
	if !permission.CanInviteMembers(callerMemberships, groupID) {
		return nil, models.ErrForbidden
	}
	rows, errRows := s.invitations.ListByGroup(ctx, groupID)
	if errRows != nil {
		return nil, errRows
	}
	now := s.now()
	out := make([]InvitationView, 0, len(rows))
	for _, row := range rows {
		out = append(out, InvitationView{Invitation: row, Status: invite.StatusOf(row, now)})
	}
	return out, nil
}
