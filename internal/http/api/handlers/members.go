package handlers

import (
	"net/http"

	"github.com/caregrid/caregrid/internal/groups"
	"github.com/caregrid/caregrid/internal/models"
	"github.com/gin-gonic/gin"
)

// MemberHandler manages group roster endpoints.
type MemberHandler struct {
	svc *groups.Service
}

// NewMemberHandler constructs a MemberHandler.
func NewMemberHandler(svc *groups.Service) *MemberHandler {
	return &MemberHandler{svc: svc}
}

// List returns the group's members. Members only.
func (h *MemberHandler) List(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	members, errList := h.svc.ListMembers(c.Request.Context(), groupID, CallerID(c))
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]gin.H, 0, len(members))
	for _, m := range members {
		out = append(out, membershipJSON(m))
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

// changeRoleRequest defines the request body for role changes.
type changeRoleRequest struct {
	Role models.Role `json:"role"`
}

// ChangeRole updates a member's role. Admins only; the change may not leave
// the group without an admin.
func (h *MemberHandler) ChangeRole(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	var body changeRoleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	membership, errChange := h.svc.ChangeMemberRole(c.Request.Context(), groupID, userID, body.Role, CallerID(c))
	if errChange != nil {
		respondError(c, errChange)
		return
	}
	c.JSON(http.StatusOK, membershipJSON(*membership))
}

// Remove deletes a membership. Admins may remove anyone removable; a member
// may remove themselves.
func (h *MemberHandler) Remove(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	if errRemove := h.svc.RemoveMember(c.Request.Context(), groupID, userID, CallerID(c)); errRemove != nil {
		respondError(c, errRemove)
		return
	}
	c.Status(http.StatusNoContent)
}
