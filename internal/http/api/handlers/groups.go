package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/caregrid/caregrid/internal/groups"
	"github.com/caregrid/caregrid/internal/models"
	"github.com/caregrid/caregrid/internal/store"
	"github.com/gin-gonic/gin"
)

// GroupHandler manages group CRUD endpoints.
type GroupHandler struct {
	svc *groups.Service
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(svc *groups.Service) *GroupHandler {
	return &GroupHandler{svc: svc}
}

func parseID(c *gin.Context, param string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(param)), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return id, true
}

func groupJSON(g models.Group) gin.H {
	return gin.H{
		"id":                                g.ID,
		"name":                              g.Name,
		"description":                       g.Description,
		"max_members":                       g.MaxMembers,
		"max_patients":                      g.MaxPatients,
		"patient_management_requires_admin": g.PatientManagementRequiresAdmin,
		"created_at":                        g.CreatedAt,
		"updated_at":                        g.UpdatedAt,
	}
}

func membershipJSON(m models.GroupMembership) gin.H {
	return gin.H{
		"user_id":    m.UserID,
		"role":       m.Role,
		"invited_by": m.InvitedBy,
		"joined_at":  m.JoinedAt,
	}
}

func patientJSON(p models.GroupPatient) gin.H {
	return gin.H{
		"patient_id":  p.PatientID,
		"assigned_by": p.AssignedBy,
		"assigned_at": p.AssignedAt,
	}
}

// createGroupRequest defines the request body for group creation.
type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxMembers  *int   `json:"max_members"`
	MaxPatients *int   `json:"max_patients"`

	PatientManagementRequiresAdmin bool `json:"patient_management_requires_admin"`
}

// Create creates a group with the caller as its first admin.
func (h *GroupHandler) Create(c *gin.Context) {
	var body createGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	group, errCreate := h.svc.CreateGroup(c.Request.Context(), groups.CreateGroupParams{
		Name:                           body.Name,
		Description:                    body.Description,
		MaxMembers:                     body.MaxMembers,
		MaxPatients:                    body.MaxPatients,
		PatientManagementRequiresAdmin: body.PatientManagementRequiresAdmin,
	}, CallerID(c))
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, groupJSON(*group))
}

// List returns the caller's groups with counts.
func (h *GroupHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	search := strings.TrimSpace(c.Query("search"))

	summaries, total, errList := h.svc.ListGroups(c.Request.Context(), CallerID(c), search, page, limit)
	if errList != nil {
		respondError(c, errList)
		return
	}

	out := make([]gin.H, 0, len(summaries))
	for _, summary := range summaries {
		item := groupJSON(summary.Group)
		item["member_count"] = summary.MemberCount
		item["patient_count"] = summary.PatientCount
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"groups": out, "total": total})
}

// Get returns one group with its member and patient rosters.
func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, errGet := h.svc.GetGroup(c.Request.Context(), id)
	if errGet != nil {
		respondError(c, errGet)
		return
	}

	members := make([]gin.H, 0, len(detail.Members))
	for _, m := range detail.Members {
		members = append(members, membershipJSON(m))
	}
	patients := make([]gin.H, 0, len(detail.Patients))
	for _, p := range detail.Patients {
		patients = append(patients, patientJSON(p))
	}

	out := groupJSON(detail.Group)
	out["members"] = members
	out["patients"] = patients
	c.JSON(http.StatusOK, out)
}

// Update modifies a group's attributes. Absent fields stay unchanged;
// capacity fields sent as null clear the cap.
func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	// Raw map first so "max_members": null (clear the cap) can be told
	// apart from the field being absent (leave unchanged).
	var raw map[string]any
	if errBind := c.ShouldBindJSON(&raw); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var patch store.GroupPatch
	if v, present := raw["name"]; present {
		name, isStr := v.(string)
		if !isStr {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid name"})
			return
		}
		patch.Name = &name
	}
	if v, present := raw["description"]; present {
		desc, isStr := v.(string)
		if !isStr {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid description"})
			return
		}
		patch.Description = &desc
	}
	var okCap bool
	if patch.MaxMembers, okCap = capField(raw, "max_members"); !okCap {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_members"})
		return
	}
	if patch.MaxPatients, okCap = capField(raw, "max_patients"); !okCap {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_patients"})
		return
	}
	if v, present := raw["patient_management_requires_admin"]; present {
		flag, isBool := v.(bool)
		if !isBool {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient_management_requires_admin"})
			return
		}
		patch.PatientManagementRequiresAdmin = &flag
	}

	group, errUpdate := h.svc.UpdateGroup(c.Request.Context(), id, patch, CallerID(c))
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, groupJSON(*group))
}

// capField extracts an optional capacity field from the raw body. The outer
// pointer reports presence, the inner one carries null-means-unlimited.
func capField(raw map[string]any, key string) (**int, bool) {
	v, present := raw[key]
	if !present {
		return nil, true
	}
	if v == nil {
		var cleared *int
		return &cleared, true
	}
	num, isNum := v.(float64)
	if !isNum || num != float64(int(num)) {
		return nil, false
	}
	val := int(num)
	ptr := &val
	return &ptr, true
}

// Audit returns the group's recent audit entries. Admins only.
func (h *GroupHandler) Audit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, errList := h.svc.ListAuditLog(c.Request.Context(), id, CallerID(c), limit)
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, gin.H{
			"id":         entry.ID,
			"actor_id":   entry.ActorUserID,
			"action":     entry.Action,
			"detail":     entry.Detail,
			"created_at": entry.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"audit": out})
}

// Delete removes a group and everything attached to it.
func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if errDelete := h.svc.DeleteGroup(c.Request.Context(), id, CallerID(c)); errDelete != nil {
		respondError(c, errDelete)
		return
	}
	c.Status(http.StatusNoContent)
}
