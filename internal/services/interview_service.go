package services

import (
	"context"
	"errors"

	"github.com/cliniqa/intake/internal/interview"
	"github.com/cliniqa/intake/internal/models"
	"github.com/cliniqa/intake/internal/providers/llm"
	"github.com/cliniqa/intake/internal/repair"
	"github.com/cliniqa/intake/internal/utils"

	"github.com/sirupsen/logrus"
)

// InterviewService drives one turn of the structured interview. It holds no
// conversation state: the transcript travels with every request, and
// everything derived from it is recomputed per call.
type InterviewService interface {
	NextTurn(ctx context.Context, inv *models.Invitation, req models.TurnRequest, clientIP string) (*models.InterviewTurn, error)
}

type interviewService struct {
	invitations InvitationService
	completer   llm.Completer
	tuning      interview.Tuning
	log         *logrus.Logger
}

func NewInterviewService(invitations InvitationService, completer llm.Completer, tuning interview.Tuning, log *logrus.Logger) InterviewService {
	return &interviewService{invitations: invitations, completer: completer, tuning: tuning, log: log}
}

func (s *interviewService) NextTurn(ctx context.Context, inv *models.Invitation, req models.TurnRequest, clientIP string) (*models.InterviewTurn, error) {
	const op = "InterviewService.NextTurn"

	if err := validateTranscript(req); err != nil {
		return nil, err
	}

	// Soft telemetry only; enforcement is the invitation/session binding.
	s.invitations.RecordIdentityMismatch(ctx, inv, clientIP, req.PatientEmail, req.PhysicianID)

	// First turn of a fresh transcript consumes the invitation. Losing the
	// race to a concurrent duplicate is fine: the invitation was openable
	// when this session was authorized, so the turn still proceeds.
	if len(req.Transcript) == 0 {
		if _, err := s.invitations.ConsumeOnce(ctx, inv.ID, clientIP); err != nil {
			return nil, err
		}
	}

	merged := mergeInvitation(req, inv)
	complaints := interview.ParseComplaints(merged.ChiefComplaint)
	analysis := interview.AnalyzeTranscript(merged.Transcript, s.tuning.RecentWindow)

	formAttached := merged.FormSummary != ""
	phase := s.tuning.ComputePhase(complaints, merged.Transcript, formAttached, merged.FormSummary, inv.RequiredFormFields, merged.ForceSummary)
	current := s.tuning.CurrentComplaintIndex(complaints, merged.Transcript, phase.QuestionCount)

	prompts := interview.BuildPrompts(merged, complaints, current, analysis, phase)

	s.log.WithFields(logrus.Fields{
		"invitation_id":  inv.ID,
		"phase":          phase.Phase,
		"escalated":      phase.Escalated,
		"budget":         phase.Budget,
		"unlimited":      phase.Unlimited,
		"question_count": phase.QuestionCount,
		"summarize":      phase.ReadyToSummarize,
		"complaints":     len(complaints),
	}).Debug("interview turn")

	raw, err := s.completer.Complete(ctx, prompts.System, prompts.User)
	if err != nil {
		if llm.IsQuotaError(err) {
			return nil, utils.E(utils.CodeResourceExhausted, op, "model quota exhausted, retry later", err)
		}
		return nil, utils.E(utils.CodeUnavailable, op, "model call failed", err)
	}

	turn, err := repair.Recover(raw)
	if err != nil {
		var ufe *repair.UpstreamFormatError
		if errors.As(err, &ufe) {
			s.log.WithFields(logrus.Fields{
				"invitation_id": inv.ID,
				"stage":         ufe.Stage,
				"input_len":     ufe.InputLen,
			}).Error("model output unrecoverable")
		}
		// Generic message outward; the raw model text is never exposed.
		return nil, utils.E(utils.CodeBadGateway, op, "model returned an unusable response", err)
	}
	return &turn, nil
}

// validateTranscript enforces turn order: a non-empty transcript must end on
// a patient message unless the caller is forcing an early summary.
func validateTranscript(req models.TurnRequest) error {
	const op = "InterviewService.NextTurn"

	for _, m := range req.Transcript {
		if m.Role != models.RoleAssistant && m.Role != models.RolePatient {
			return utils.E(utils.CodeInvalidArgument, op, "transcript role must be assistant or patient", nil)
		}
		if m.Content == "" {
			return utils.E(utils.CodeInvalidArgument, op, "transcript message content must not be empty", nil)
		}
	}
	if !req.ForceSummary && !interview.EndsOnPatient(req.Transcript) {
		return utils.E(utils.CodeUnprocessable, op, "transcript must end on a patient turn", nil)
	}
	return nil
}

// mergeInvitation folds physician-configured context from the invitation row
// into the request; caller-supplied values win when both are present.
func mergeInvitation(req models.TurnRequest, inv *models.Invitation) models.TurnRequest {
	if req.FormSummary == "" {
		req.FormSummary = inv.FormSummary
	}
	if req.InterviewGuidance == "" {
		req.InterviewGuidance = inv.InterviewGuidance
	}
	return req
}
