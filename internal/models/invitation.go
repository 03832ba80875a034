package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Invitation is a single-use, expirable grant letting one patient open one
// interview. usedAt, revokedAt and expiresAt are independent flags; any of
// them blocks *new* sessions, while a session already bound to the invitation
// id may continue.
type Invitation struct {
	ID           string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PatientEmail string `gorm:"column:patient_email;type:text;index" json:"patient_email"`
	PhysicianID  string `gorm:"column:physician_id;type:uuid;index" json:"physician_id"`

	// Optional structured form attached by the physician. When FormSummary is
	// non-empty the interview question budget is uncapped until every field in
	// RequiredFormFields has been covered.
	FormSummary        string         `gorm:"column:form_summary;type:text" json:"form_summary,omitempty"`
	RequiredFormFields pq.StringArray `gorm:"column:required_form_fields;type:text[]" json:"required_form_fields,omitempty"`
	InterviewGuidance  string         `gorm:"column:interview_guidance;type:text" json:"interview_guidance,omitempty"`

	// JSONB, schema left to the clinic integration
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	ExpiresAt *time.Time `gorm:"column:expires_at;type:timestamptz" json:"expires_at,omitempty"`
	RevokedAt *time.Time `gorm:"column:revoked_at;type:timestamptz" json:"revoked_at,omitempty"`
	UsedAt    *time.Time `gorm:"column:used_at;type:timestamptz" json:"used_at,omitempty"`
}

func (Invitation) TableName() string { return "invitations" }

// Openable reports whether a fresh session may be started on this invitation.
func (inv *Invitation) Openable(now time.Time) bool {
	if inv.RevokedAt != nil {
		return false
	}
	if inv.ExpiresAt != nil && !inv.ExpiresAt.After(now) {
		return false
	}
	return inv.UsedAt == nil
}

// Continuable reports whether an existing session bound to boundID may keep
// going. Revocation and expiry still apply; usedAt does not, because the
// binding itself proves this session consumed the invitation.
func (inv *Invitation) Continuable(boundID string, now time.Time) bool {
	if inv.ID != boundID {
		return false
	}
	if inv.RevokedAt != nil {
		return false
	}
	if inv.ExpiresAt != nil && !inv.ExpiresAt.After(now) {
		return false
	}
	return true
}
