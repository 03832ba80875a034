package handlers

import (
	"net/http"
	"os"

	"github.com/cliniqa/intake/internal/api/middleware"
	"github.com/cliniqa/intake/internal/interview"
	"github.com/cliniqa/intake/internal/models"
	"github.com/cliniqa/intake/internal/services"
	"github.com/cliniqa/intake/internal/utils"
	"github.com/gin-gonic/gin"
)

type InterviewHandler struct {
	interviews  services.InterviewService
	invitations services.InvitationService
}

func NewInterviewHandler(interviews services.InterviewService, invitations services.InvitationService) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, invitations: invitations}
}

type OpenInterviewRequest struct {
	InvitationID string `json:"invitationId" binding:"required"`
	PatientEmail string `json:"patientEmail"`
}

type OpenInterviewResponse struct {
	SessionToken string `json:"sessionToken"`
	Greeting     string `json:"greeting"`
}

// Open validates the invitation and issues the interview session token. The
// invitation is not marked used here; that happens on the first turn.
func (h *InterviewHandler) Open(c *gin.Context) {
	const op = "InterviewHandler.Open"

	if disabled() {
		writeError(c, utils.E(utils.CodeUnavailable, op, "interviews are temporarily disabled", nil))
		return
	}

	var req OpenInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	// A caller re-opening with a still-valid session token continues the
	// bound session instead of being rejected as already-used.
	boundID := ""
	if v, ok := c.Get("invitation_id"); ok {
		boundID, _ = v.(string)
	}

	inv, err := h.invitations.ResolveForSession(c.Request.Context(), req.InvitationID, boundID)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := middleware.MintInviteSession(inv.ID, inv.PatientEmail)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to issue session token", err))
		return
	}

	c.JSON(http.StatusOK, OpenInterviewResponse{
		SessionToken: token,
		Greeting:     interview.Greeting,
	})
}

// Turn runs one interview turn. Requires the invite-session middleware.
func (h *InterviewHandler) Turn(c *gin.Context) {
	const op = "InterviewHandler.Turn"

	if disabled() {
		writeError(c, utils.E(utils.CodeUnavailable, op, "interviews are temporarily disabled", nil))
		return
	}

	invitationID, ok := requireInvitationID(c)
	if !ok {
		return
	}

	var req models.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	inv, err := h.invitations.ResolveForSession(c.Request.Context(), invitationID, invitationID)
	if err != nil {
		writeError(c, err)
		return
	}

	turn, err := h.interviews.NextTurn(c.Request.Context(), inv, req, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, turn)
}

func disabled() bool {
	return os.Getenv("INTERVIEW_DISABLED") == "true"
}
