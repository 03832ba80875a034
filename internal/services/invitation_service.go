package services

import (
	"context"
	"errors"
	"time"

	"github.com/cliniqa/intake/internal/cache"
	"github.com/cliniqa/intake/internal/models"
	mongorepo "github.com/cliniqa/intake/internal/repositories/mongo"
	pgrepo "github.com/cliniqa/intake/internal/repositories/postgres"
	"github.com/cliniqa/intake/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const invitationCacheTTL = 30 * time.Second

type CreateInvitationInput struct {
	PatientEmail       string
	ExpiresAt          *time.Time
	FormSummary        string
	RequiredFormFields []string
	InterviewGuidance  string
	Metadata           []byte
}

type InvitationService interface {
	Create(ctx context.Context, physicianID string, in CreateInvitationInput) (*models.Invitation, error)
	Get(ctx context.Context, id string) (*models.Invitation, error)
	Revoke(ctx context.Context, id, physicianID string) (*models.Invitation, error)
	// ResolveForSession authorizes an interview call: boundID is the
	// invitation id carried by the caller's session token, or empty for a
	// fresh open.
	ResolveForSession(ctx context.Context, id, boundID string) (*models.Invitation, error)
	// ConsumeOnce marks the invitation used; at most one caller wins.
	ConsumeOnce(ctx context.Context, id, clientIP string) (bool, error)
	// RecordIdentityMismatch is soft telemetry; it never fails the request.
	RecordIdentityMismatch(ctx context.Context, inv *models.Invitation, clientIP, patientEmail, physicianID string)
	// ListAudit returns the invitation's audit trail, newest first, to its
	// owning physician.
	ListAudit(ctx context.Context, id, physicianID string, limit int64) ([]models.AuditEntry, error)
}

type invitationService struct {
	invitations pgrepo.InvitationRepository
	audit       mongorepo.AuditRepository
	cache       cache.Cache
	log         *logrus.Logger
}

func NewInvitationService(invitations pgrepo.InvitationRepository, audit mongorepo.AuditRepository, c cache.Cache, log *logrus.Logger) InvitationService {
	return &invitationService{invitations: invitations, audit: audit, cache: c, log: log}
}

func (s *invitationService) Create(ctx context.Context, physicianID string, in CreateInvitationInput) (*models.Invitation, error) {
	const op = "InvitationService.Create"

	if physicianID == "" || in.PatientEmail == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "physician_id and patient_email are required", nil)
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(time.Now().UTC()) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "expires_at must be in the future", nil)
	}

	inv := &models.Invitation{
		ID:                 uuid.NewString(),
		PatientEmail:       in.PatientEmail,
		PhysicianID:        physicianID,
		FormSummary:        in.FormSummary,
		RequiredFormFields: in.RequiredFormFields,
		InterviewGuidance:  in.InterviewGuidance,
		CreatedAt:          time.Now().UTC(),
		ExpiresAt:          in.ExpiresAt,
	}
	if len(in.Metadata) > 0 {
		inv.Metadata = datatypes.JSON(in.Metadata)
	}

	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create invitation", err)
	}

	s.appendAudit(ctx, &models.AuditEntry{
		EventType:    models.AuditInvitationCreated,
		InvitationID: inv.ID,
		PhysicianID:  physicianID,
	})
	return inv, nil
}

func (s *invitationService) Get(ctx context.Context, id string) (*models.Invitation, error) {
	const op = "InvitationService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invitation id is required", nil)
	}

	if s.cache != nil {
		var cached models.Invitation
		if hit, err := s.cache.GetJSON(ctx, cacheKey(id), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "invitation not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get invitation", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey(id), inv, invitationCacheTTL)
	}
	return inv, nil
}

func (s *invitationService) Revoke(ctx context.Context, id, physicianID string) (*models.Invitation, error) {
	const op = "InvitationService.Revoke"

	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.PhysicianID != physicianID {
		return nil, utils.E(utils.CodeForbidden, op, "invitation belongs to another physician", nil)
	}

	now := time.Now().UTC()
	if err := s.invitations.Revoke(ctx, id, now); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeConflict, op, "invitation already revoked", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to revoke invitation", err)
	}
	s.invalidate(ctx, id)

	s.appendAudit(ctx, &models.AuditEntry{
		EventType:    models.AuditInvitationRevoked,
		InvitationID: id,
		PhysicianID:  physicianID,
	})

	inv.RevokedAt = &now
	return inv, nil
}

func (s *invitationService) ResolveForSession(ctx context.Context, id, boundID string) (*models.Invitation, error) {
	const op = "InvitationService.ResolveForSession"

	inv, err := s.Get(ctx, id)
	if err != nil {
		if utils.IsCode(err, utils.CodeNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "invalid invitation", err)
		}
		return nil, err
	}

	now := time.Now().UTC()
	if boundID != "" {
		if !inv.Continuable(boundID, now) {
			return nil, utils.E(utils.CodeForbidden, op, "invitation not valid for this session", nil)
		}
		return inv, nil
	}
	if !inv.Openable(now) {
		return nil, utils.E(utils.CodeForbidden, op, "invitation is used, expired, or revoked", nil)
	}
	return inv, nil
}

func (s *invitationService) ConsumeOnce(ctx context.Context, id, clientIP string) (bool, error) {
	const op = "InvitationService.ConsumeOnce"

	won, err := s.invitations.ConsumeOnce(ctx, id, time.Now().UTC())
	if err != nil {
		return false, utils.E(utils.CodeInternal, op, "failed to mark invitation used", err)
	}
	if won {
		s.invalidate(ctx, id)
		s.appendAudit(ctx, &models.AuditEntry{
			EventType:    models.AuditInvitationUsed,
			InvitationID: id,
			ClientIP:     clientIP,
		})
	}
	return won, nil
}

func (s *invitationService) RecordIdentityMismatch(ctx context.Context, inv *models.Invitation, clientIP, patientEmail, physicianID string) {
	detail := map[string]any{}
	if patientEmail != "" && patientEmail != inv.PatientEmail {
		detail["claimed_patient_email"] = patientEmail
	}
	if physicianID != "" && physicianID != inv.PhysicianID {
		detail["claimed_physician_id"] = physicianID
	}
	if len(detail) == 0 {
		return
	}

	s.log.WithFields(logrus.Fields{
		"invitation_id": inv.ID,
		"client_ip":     clientIP,
	}).Warn("identity hint mismatch")

	s.appendAudit(ctx, &models.AuditEntry{
		EventType:    models.AuditIdentityMismatch,
		InvitationID: inv.ID,
		PhysicianID:  inv.PhysicianID,
		ClientIP:     clientIP,
		Detail:       detail,
	})
}

func (s *invitationService) ListAudit(ctx context.Context, id, physicianID string, limit int64) ([]models.AuditEntry, error) {
	const op = "InvitationService.ListAudit"

	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.PhysicianID != physicianID {
		return nil, utils.E(utils.CodeForbidden, op, "invitation belongs to another physician", nil)
	}

	if s.audit == nil {
		return []models.AuditEntry{}, nil
	}
	entries, err := s.audit.ListByInvitation(ctx, id, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read audit log", err)
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return entries, nil
}

// appendAudit is best-effort: a failed audit write is logged and skipped, it
// never fails the request.
func (s *invitationService) appendAudit(ctx context.Context, e *models.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, e); err != nil {
		s.log.WithError(err).WithField("event_type", e.EventType).Warn("audit append failed")
	}
}

func (s *invitationService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey(id))
	}
}

func cacheKey(id string) string { return "invitation:" + id }
