package services

import (
	"context"
	"testing"
	"time"

	"github.com/cliniqa/intake/internal/models"
	"github.com/cliniqa/intake/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveForSessionFreshInvitation(t *testing.T) {
	repo, _, invitations, _ := newTestStack(&scriptedCompleter{})
	inv := seedInvitation(t, repo)

	got, err := invitations.ResolveForSession(context.Background(), inv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
}

func TestResolveForSessionUsedInvitation(t *testing.T) {
	repo, _, invitations, _ := newTestStack(&scriptedCompleter{})
	inv := seedInvitation(t, repo)
	ctx := context.Background()

	won, err := invitations.ConsumeOnce(ctx, inv.ID, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, won)

	// A fresh open is rejected once the invitation is used.
	_, err = invitations.ResolveForSession(ctx, inv.ID, "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	// The session that consumed it keeps going.
	got, err := invitations.ResolveForSession(ctx, inv.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	// A session bound to a different invitation does not.
	_, err = invitations.ResolveForSession(ctx, inv.ID, "22222222-2222-4222-8222-222222222222")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestResolveForSessionRevokedInvitation(t *testing.T) {
	repo, _, invitations, _ := newTestStack(&scriptedCompleter{})
	inv := seedInvitation(t, repo)
	ctx := context.Background()

	_, err := invitations.Revoke(ctx, inv.ID, inv.PhysicianID)
	require.NoError(t, err)

	_, err = invitations.ResolveForSession(ctx, inv.ID, "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	// Revocation cuts off even the bound session.
	_, err = invitations.ResolveForSession(ctx, inv.ID, inv.ID)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestResolveForSessionExpiredInvitation(t *testing.T) {
	repo, _, invitations, _ := newTestStack(&scriptedCompleter{})
	ctx := context.Background()

	expired := time.Now().UTC().Add(-time.Minute)
	inv := &models.Invitation{
		ID:           "33333333-3333-4333-8333-333333333333",
		PatientEmail: "pat@example.com",
		PhysicianID:  "phys-1",
		CreatedAt:    time.Now().UTC().Add(-time.Hour),
		ExpiresAt:    &expired,
	}
	require.NoError(t, repo.Create(ctx, inv))

	_, err := invitations.ResolveForSession(ctx, inv.ID, "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	// Expiry also ends the bound session.
	_, err = invitations.ResolveForSession(ctx, inv.ID, inv.ID)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestOpenableExpiryBoundary(t *testing.T) {
	now := time.Now().UTC()
	inv := models.Invitation{ID: "x", ExpiresAt: &now}

	// expiresAt == now already blocks; only a strictly later expiry opens.
	assert.False(t, inv.Openable(now))
	assert.False(t, inv.Continuable("x", now))

	later := now.Add(time.Second)
	inv.ExpiresAt = &later
	assert.True(t, inv.Openable(now))
	assert.True(t, inv.Continuable("x", now))
}

func TestResolveForSessionUnknownInvitation(t *testing.T) {
	_, _, invitations, _ := newTestStack(&scriptedCompleter{})

	// Unknown id maps to 401, not 404, so callers cannot probe for ids.
	_, err := invitations.ResolveForSession(context.Background(), "44444444-4444-4444-8444-444444444444", "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
}

func TestListAudit(t *testing.T) {
	_, _, invitations, _ := newTestStack(&scriptedCompleter{})
	ctx := context.Background()

	inv, err := invitations.Create(ctx, "phys-1", CreateInvitationInput{PatientEmail: "pat@example.com"})
	require.NoError(t, err)
	_, err = invitations.ConsumeOnce(ctx, inv.ID, "10.0.0.1")
	require.NoError(t, err)

	entries, err := invitations.ListAudit(ctx, inv.ID, "phys-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	types := []string{entries[0].EventType, entries[1].EventType}
	assert.Contains(t, types, models.AuditInvitationCreated)
	assert.Contains(t, types, models.AuditInvitationUsed)

	// Another physician cannot read the trail.
	_, err = invitations.ListAudit(ctx, inv.ID, "phys-2", 0)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}
