// Package groups is the single entry point for the group collaboration
// domain. The Service orchestrates the stores and the permission engine and
// is the transaction boundary: every mutating operation runs its
// check-then-write sequence inside one database transaction, so capacity and
// uniqueness invariants hold under concurrent callers.
package groups

import (
	"context"
	"time"

	"github.com/caregrid/caregrid/internal/invite"
	"github.com/caregrid/caregrid/internal/store"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service coordinates group, membership, patient, and invitation state.
type Service struct {
	db          *gorm.DB
	groups      *store.GroupStore
	memberships *store.MembershipStore
	patients    *store.PatientStore
	invitations *store.InvitationStore
	audits      *store.AuditStore

	notifier  Notifier
	inviteTTL time.Duration
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier sets the invitation notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithInviteTTL overrides the invitation lifetime.
func WithInviteTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.inviteTTL = ttl
		}
	}
}

// WithClock overrides the time source. Tests use this to exercise expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service over the given connection.
func NewService(conn *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:          conn,
		groups:      store.NewGroupStore(conn),
		memberships: store.NewMembershipStore(conn),
		patients:    store.NewPatientStore(conn),
		invitations: store.NewInvitationStore(conn),
		audits:      store.NewAuditStore(conn),
		notifier:    NewLogNotifier(),
		inviteTTL:   invite.DefaultTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// txStores bundles the stores bound to one transaction.
type txStores struct {
	groups      *store.GroupStore
	memberships *store.MembershipStore
	patients    *store.PatientStore
	invitations *store.InvitationStore
	audits      *store.AuditStore
}

// inTx runs fn inside a single transaction with transaction-bound stores.
// Any error aborts the whole unit, so partial writes are never observable.
func (s *Service) inTx(ctx context.Context, fn func(tx *txStores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStores{
			groups:      s.groups.WithConn(tx),
			memberships: s.memberships.WithConn(tx),
			patients:    s.patients.WithConn(tx),
			invitations: s.invitations.WithConn(tx),
			audits:      s.audits.WithConn(tx),
		})
	})
}

// PruneExpiredInvitations removes never-resolved invitations whose expiry is
// older than the retention window. Hygiene only; expiry itself is always
// derived lazily.
func (s *Service) PruneExpiredInvitations(ctx context.Context, retention time.Duration) (int64, error) {
	pruned, errPrune := s.invitations.DeleteExpiredBefore(ctx, s.now().Add(-retention))
	if errPrune != nil {
		return 0, errPrune
	}
	if pruned > 0 {
		log.Infof("pruned %d expired invitations", pruned)
	}
	return pruned, nil
}
