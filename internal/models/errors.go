package models

import "errors"

// Domain error kinds. Every rejected group operation maps to exactly one of
// these so callers can render a specific message. They are returned as values
// (wrapped where useful) and matched with errors.Is.
var (
	// ErrForbidden means the caller lacks permission for the action.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the group, membership, or invitation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the request payload is malformed or incomplete.
	ErrValidation = errors.New("validation failed")

	// ErrCapacityExceeded means the mutation would exceed max_members or max_patients.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrCapacityViolation means a capacity reduction would fall below current counts.
	ErrCapacityViolation = errors.New("capacity below current count")

	// ErrDuplicateMembership means the user already has an active membership in the group.
	ErrDuplicateMembership = errors.New("duplicate membership")
	// ErrDuplicateAssignment means the patient is already assigned to the group.
	ErrDuplicateAssignment = errors.New("duplicate assignment")

	// ErrLastAdminViolation means the action would leave a non-empty group without admins.
	ErrLastAdminViolation = errors.New("group must keep at least one admin")

	// ErrInvitationNotFound means no invitation matches the token or ID.
	ErrInvitationNotFound = errors.New("invitation not found")
	// ErrInvitationExpired means the invitation is past its expiry.
	ErrInvitationExpired = errors.New("invitation expired")
	// ErrInvitationAlreadyResolved means the invitation already reached a terminal state.
	ErrInvitationAlreadyResolved = errors.New("invitation already resolved")
)
