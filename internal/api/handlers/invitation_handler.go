package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cliniqa/intake/internal/services"
	"github.com/cliniqa/intake/internal/utils"
	"github.com/gin-gonic/gin"
)

type InvitationHandler struct {
	svc services.InvitationService
}

func NewInvitationHandler(svc services.InvitationService) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

type CreateInvitationRequest struct {
	PatientEmail       string          `json:"patientEmail" binding:"required,email"`
	ExpiresAt          *time.Time      `json:"expiresAt"`
	FormSummary        string          `json:"formSummary"`
	RequiredFormFields []string        `json:"requiredFormFields"`
	InterviewGuidance  string          `json:"interviewGuidance"`
	Metadata           json.RawMessage `json:"metadata"`
}

func (h *InvitationHandler) Create(c *gin.Context) {
	physicianID, ok := requirePhysicianID(c)
	if !ok {
		return
	}

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InvitationHandler.Create", "invalid request body", err))
		return
	}

	inv, err := h.svc.Create(c.Request.Context(), physicianID, services.CreateInvitationInput{
		PatientEmail:       req.PatientEmail,
		ExpiresAt:          req.ExpiresAt,
		FormSummary:        req.FormSummary,
		RequiredFormFields: req.RequiredFormFields,
		InterviewGuidance:  req.InterviewGuidance,
		Metadata:           req.Metadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

func (h *InvitationHandler) Get(c *gin.Context) {
	physicianID, ok := requirePhysicianID(c)
	if !ok {
		return
	}

	inv, err := h.svc.Get(c.Request.Context(), c.Param("invitation_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if inv.PhysicianID != physicianID {
		writeError(c, utils.E(utils.CodeForbidden, "InvitationHandler.Get", "forbidden", nil))
		return
	}

	c.JSON(http.StatusOK, inv)
}

// Audit returns the invitation's audit trail (lifecycle events and identity
// mismatches) to its owning physician.
func (h *InvitationHandler) Audit(c *gin.Context) {
	physicianID, ok := requirePhysicianID(c)
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)

	entries, err := h.svc.ListAudit(c.Request.Context(), c.Param("invitation_id"), physicianID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *InvitationHandler) Revoke(c *gin.Context) {
	physicianID, ok := requirePhysicianID(c)
	if !ok {
		return
	}

	inv, err := h.svc.Revoke(c.Request.Context(), c.Param("invitation_id"), physicianID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}
