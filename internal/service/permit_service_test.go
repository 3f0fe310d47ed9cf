package service

import (
	"context"
	"testing"

	"fs25hub/internal/apperr"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPermitService(env *testEnv) PermitService {
	return NewPermitService(env.permitRepo, env.vehicleRepo, env.auditRepo, env.txManager, nil)
}

func TestPermitWorkflow(t *testing.T) {
	env := setupEnv(t)
	svc := newPermitService(env)
	vehicles := newVehicleService(env)
	ctx := context.Background()

	player := env.createUser(t, "applicant", policy.RolePlayer, "0.00")
	other := env.createUser(t, "other", policy.RolePlayer, "0.00")
	supervisor := env.createUser(t, "reviewer", policy.RoleSupervisor, "0.00")

	vehicle, err := vehicles.Register(ctx, env.actorFor(player), RegisterVehicleRequest{Plate: "WIDE-1"})
	require.NoError(t, err)

	t.Run("owner requests a permit for their vehicle", func(t *testing.T) {
		permit, err := svc.Request(ctx, env.actorFor(player), RequestPermitRequest{
			Type:      "oversize_load",
			VehicleID: vehicle.ID.String(),
		})
		require.NoError(t, err)
		assert.Equal(t, model.PermitStatusPending, permit.Status)
		assert.Nil(t, permit.IssueDate)
	})

	t.Run("cannot request for someone else's vehicle", func(t *testing.T) {
		_, err := svc.Request(ctx, env.actorFor(other), RequestPermitRequest{
			Type:      "oversize_load",
			VehicleID: vehicle.ID.String(),
		})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("players cannot see the pending queue", func(t *testing.T) {
		_, err := svc.ListPending(ctx, env.actorFor(player))
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("approval stamps the issue date", func(t *testing.T) {
		pending, err := svc.ListPending(ctx, env.actorFor(supervisor))
		require.NoError(t, err)
		require.Len(t, pending, 1)

		approved, err := svc.Review(ctx, env.actorFor(supervisor), pending[0].ID, ReviewPermitRequest{Approve: true})
		require.NoError(t, err)
		assert.Equal(t, model.PermitStatusApproved, approved.Status)
		assert.NotNil(t, approved.IssueDate)
	})

	t.Run("a decided permit cannot be re-reviewed", func(t *testing.T) {
		mine, err := svc.ListMine(ctx, env.actorFor(player))
		require.NoError(t, err)
		require.Len(t, mine, 1)

		_, err = svc.Review(ctx, env.actorFor(supervisor), mine[0].ID, ReviewPermitRequest{Approve: false})
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})
}
