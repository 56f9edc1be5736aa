package handlers

import (
	"net/http"

	"github.com/caregrid/caregrid/internal/groups"
	"github.com/gin-gonic/gin"
)

// PatientHandler manages group patient roster endpoints.
type PatientHandler struct {
	svc *groups.Service
}

// NewPatientHandler constructs a PatientHandler.
func NewPatientHandler(svc *groups.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

// assignPatientRequest defines the request body for patient assignment.
type assignPatientRequest struct {
	PatientID uint64 `json:"patient_id"`
}

// Assign adds a patient to the group roster.
func (h *PatientHandler) Assign(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body assignPatientRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.PatientID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing patient_id"})
		return
	}

	assignment, errAssign := h.svc.AssignPatient(c.Request.Context(), groupID, body.PatientID, CallerID(c))
	if errAssign != nil {
		respondError(c, errAssign)
		return
	}
	c.JSON(http.StatusCreated, patientJSON(*assignment))
}

// List returns the group's patient roster. Members only.
func (h *PatientHandler) List(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	patients, errList := h.svc.ListPatients(c.Request.Context(), groupID, CallerID(c))
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]gin.H, 0, len(patients))
	for _, p := range patients {
		out = append(out, patientJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"patients": out})
}

// Unassign removes a patient from the group roster.
func (h *PatientHandler) Unassign(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	patientID, ok := parseID(c, "patient_id")
	if !ok {
		return
	}
	if errUnassign := h.svc.UnassignPatient(c.Request.Context(), groupID, patientID, CallerID(c)); errUnassign != nil {
		respondError(c, errUnassign)
		return
	}
	c.Status(http.StatusNoContent)
}
