package handlers

import (
	"net/http"
	"strings"

	"github.com/caregrid/caregrid/internal/groups"
	"github.com/caregrid/caregrid/internal/models"
	"github.com/gin-gonic/gin"
)

// InvitationHandler manages invitation lifecycle endpoints.
type InvitationHandler struct {
	svc *groups.Service
}

// NewInvitationHandler constructs an InvitationHandler.
func NewInvitationHandler(svc *groups.Service) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

func invitationJSON(view groups.InvitationView) gin.H {
	return gin.H{
		"id":         view.Invitation.ID,
		"group_id":   view.Invitation.GroupID,
		"email":      view.Invitation.Email,
		"role":       view.Invitation.Role,
		"invited_by": view.Invitation.InvitedByUserID,
		"status":     view.Status,
		"expires_at": view.Invitation.ExpiresAt,
		"created_at": view.Invitation.CreatedAt,
	}
}

// createInvitationRequest defines the request body for issuing invitations.
type createInvitationRequest struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// Create issues an invitation into the group. Admins only. The response is
// the only place the redemption token ever appears.
func (h *InvitationHandler) Create(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body createInvitationRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	invitation, token, errInvite := h.svc.InviteMember(c.Request.Context(), groupID, body.Email, body.Role, CallerID(c))
	if errInvite != nil {
		respondError(c, errInvite)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         invitation.ID,
		"group_id":   invitation.GroupID,
		"email":      invitation.Email,
		"role":       invitation.Role,
		"token":      token,
		"expires_at": invitation.ExpiresAt,
	})
}

// List returns the group's invitations with derived statuses. Admins only.
func (h *InvitationHandler) List(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	views, errList := h.svc.ListInvitations(c.Request.Context(), groupID, CallerID(c))
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]gin.H, 0, len(views))
	for _, view := range views {
		out = append(out, invitationJSON(view))
	}
	c.JSON(http.StatusOK, gin.H{"invitations": out})
}

// redeemRequest defines the request body for accept and decline.
type redeemRequest struct {
	Token string `json:"token"`
}

func bindToken(c *gin.Context) (string, bool) {
	var body redeemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return "", false
	}
	token := strings.TrimSpace(body.Token)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return "", false
	}
	return token, true
}

// Accept redeems an invitation token for the caller, joining the group.
func (h *InvitationHandler) Accept(c *gin.Context) {
	token, ok := bindToken(c)
	if !ok {
		return
	}
	membership, errAccept := h.svc.AcceptInvitation(c.Request.Context(), token, CallerID(c))
	if errAccept != nil {
		respondError(c, errAccept)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"group_id":  membership.GroupID,
		"user_id":   membership.UserID,
		"role":      membership.Role,
		"joined_at": membership.JoinedAt,
	})
}

// Decline marks an invitation declined. No membership is required; the
// invitee may not have an account yet.
func (h *InvitationHandler) Decline(c *gin.Context) {
	token, ok := bindToken(c)
	if !ok {
		return
	}
	if errDecline := h.svc.DeclineInvitation(c.Request.Context(), token); errDecline != nil {
		respondError(c, errDecline)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Revoke withdraws a pending invitation. Admins only.
func (h *InvitationHandler) Revoke(c *gin.Context) {
	if _, ok := parseID(c, "id"); !ok {
		return
	}
	invitationID, ok := parseID(c, "invitation_id")
	if !ok {
		return
	}
	if errRevoke := h.svc.RevokeInvitation(c.Request.Context(), invitationID, CallerID(c)); errRevoke != nil {
		respondError(c, errRevoke)
		return
	}
	c.Status(http.StatusNoContent)
}
