package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit event types.
const (
	AuditInvitationCreated = "invitation_created"
	AuditInvitationRevoked = "invitation_revoked"
	AuditInvitationUsed    = "invitation_used"
	AuditIdentityMismatch  = "identity_mismatch"
)

// AuditEntry is an append-only record. Identity-mismatch entries are soft
// telemetry: they are written when client-supplied identity hints disagree
// with the invitation row, without blocking the request.
type AuditEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EntryID      string             `bson:"entry_id" json:"entry_id"` // uuid v4
	EventType    string             `bson:"event_type" json:"event_type"`
	InvitationID string             `bson:"invitation_id" json:"invitation_id"`
	PhysicianID  string             `bson:"physician_id,omitempty" json:"physician_id,omitempty"`
	ClientIP     string             `bson:"client_ip,omitempty" json:"client_ip,omitempty"`

	Detail map[string]any `bson:"detail,omitempty" json:"detail,omitempty"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
