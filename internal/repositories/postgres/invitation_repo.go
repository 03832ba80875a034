package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cliniqa/intake/internal/models"
	"github.com/cliniqa/intake/internal/utils"
	"gorm.io/gorm"
)

type InvitationRepository interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id string) (*models.Invitation, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	// ConsumeOnce marks the invitation used. At most one caller ever gets
	// true; concurrent duplicates see false with no error.
	ConsumeOnce(ctx context.Context, id string, at time.Time) (bool, error)
}

type invitationRepo struct {
	db *gorm.DB
}

func NewInvitationRepo(db *gorm.DB) InvitationRepository {
	return &invitationRepo{db: db}
}

func (r *invitationRepo) Create(ctx context.Context, inv *models.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invitationRepo) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	var row models.Invitation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *invitationRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// Single conditional UPDATE, not check-then-set: the WHERE clause closes the
// race window between concurrent first-turn requests.
func (r *invitationRepo) ConsumeOnce(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	return res.RowsAffected == 1, res.Error
}
