package handlers

import (
	"errors"
	"net/http"

	"github.com/caregrid/caregrid/internal/models"
	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses. Conflicting state
// (capacity, duplicates, last-admin, already-resolved invitations) is 409,
// expiry is 410, everything unrecognized is a 500 with a generic message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrInvitationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
	case errors.Is(err, models.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "group capacity exceeded"})
	case errors.Is(err, models.ErrCapacityViolation):
		c.JSON(http.StatusConflict, gin.H{"error": "capacity below current usage"})
	case errors.Is(err, models.ErrDuplicateMembership):
		c.JSON(http.StatusConflict, gin.H{"error": "already a member"})
	case errors.Is(err, models.ErrDuplicateAssignment):
		c.JSON(http.StatusConflict, gin.H{"error": "patient already assigned"})
	case errors.Is(err, models.ErrLastAdminViolation):
		c.JSON(http.StatusConflict, gin.H{"error": "group must keep at least one admin"})
	case errors.Is(err, models.ErrInvitationAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "invitation already resolved"})
	case errors.Is(err, models.ErrInvitationExpired):
		c.JSON(http.StatusGone, gin.H{"error": "invitation expired"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// CallerID returns the authenticated user ID set by the auth middleware.
func CallerID(c *gin.Context) uint64 {
	v, ok := c.Get("userID")
	if !ok {
		return 0
	}
	id, _ := v.(uint64)
	return id
}
