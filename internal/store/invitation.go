package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caregrid/caregrid/internal/models"
	"gorm.io/gorm"
)

// InvitationStore persists GroupInvitation records. Terminal transitions are
// guarded single-row UPDATEs: the WHERE clause requires all three terminal
// markers to be unset, so at most one of them can ever win, even under
// concurrent redemption attempts.
type InvitationStore struct {
	db *gorm.DB
}

// NewInvitationStore constructs an InvitationStore.
func NewInvitationStore(conn *gorm.DB) *InvitationStore {
	return &InvitationStore{db: conn}
}

// WithConn returns a copy of the store bound to the given connection.
func (s *InvitationStore) WithConn(conn *gorm.DB) *InvitationStore {
	return &InvitationStore{db: conn}
}

// Create inserts an invitation.
func (s *InvitationStore) Create(ctx context.Context, inv *models.GroupInvitation) error {
	if errCreate := s.db.WithContext(ctx).Create(inv).Error; errCreate != nil {
		return fmt.Errorf("invitation store: create: %w", errCreate)
	}
	return nil
}

// GetByTokenHash returns the invitation whose stored hash matches.
func (s *InvitationStore) GetByTokenHash(ctx context.Context, tokenHash string) (*models.GroupInvitation, error) {
	var inv models.GroupInvitation
	if errFind := s.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&inv).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, models.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("invitation store: get by token: %w", errFind)
	}
	return &inv, nil
}

// GetByID returns an invitation by primary key.
func (s *InvitationStore) GetByID(ctx context.Context, id uint64) (*models.GroupInvitation, error) {
	var inv models.GroupInvitation
	if errFind := s.db.WithContext(ctx).First(&inv, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, models.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("invitation store: get by id: %w", errFind)
	}
	return &inv, nil
}

// MarkAccepted records acceptance. Fails with ErrInvitationAlreadyResolved
// when another terminal transition won first.
func (s *InvitationStore) MarkAccepted(ctx context.Context, id uint64, at time.Time, byUserID uint64) error {
	return s.markTerminal(ctx, id, map[string]any{
		"accepted_at":         at,
		"accepted_by_user_id": byUserID,
		"updated_at":          at,
	})
}

// MarkDeclined records a decline.
func (s *InvitationStore) MarkDeclined(ctx context.Context, id uint64, at time.Time) error {
	return s.markTerminal(ctx, id, map[string]any{
		"declined_at": at,
		"updated_at":  at,
	})
}

// MarkRevoked records a revocation.
func (s *InvitationStore) MarkRevoked(ctx context.Context, id uint64, at time.Time) error {
	return s.markTerminal(ctx, id, map[string]any{
		"revoked_at": at,
		"updated_at": at,
	})
}

// markTerminal applies a terminal marker iff no marker is set yet.
func (s *InvitationStore) markTerminal(ctx context.Context, id uint64, updates map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.GroupInvitation{}).
		Where("id = ? AND accepted_at IS NULL AND declined_at IS NULL AND revoked_at IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("invitation store: mark terminal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrInvitationAlreadyResolved
	}
	return nil
}

// ListByGroup returns the group's invitations, newest first.
func (s *InvitationStore) ListByGroup(ctx context.Context, groupID uint64) ([]models.GroupInvitation, error) {
	var rows []models.GroupInvitation
	if errFind := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("invitation store: list by group: %w", errFind)
	}
	return rows, nil
}

// DeleteByGroup removes all invitations of a group.
func (s *InvitationStore) DeleteByGroup(ctx context.Context, groupID uint64) error {
	if errDelete := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Delete(&models.GroupInvitation{}).Error; errDelete != nil {
		return fmt.Errorf("invitation store: delete by group: %w", errDelete)
	}
	return nil
}

// DeleteExpiredBefore prunes long-expired, never-resolved invitations.
// Correctness never depends on this; it is storage hygiene only.
func (s *InvitationStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("accepted_at IS NULL AND declined_at IS NULL AND revoked_at IS NULL AND expires_at < ?", cutoff).
		Delete(&models.GroupInvitation{})
	if res.Error != nil {
		return 0, fmt.Errorf("invitation store: delete expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}
