package service

import (
	"context"
	"testing"

	"fs25hub/internal/apperr"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newVehicleService(env *testEnv) VehicleService {
	return NewVehicleService(env.vehicleRepo, env.inspectionRepo, env.auditRepo, env.txManager)
}

func TestVehicleRegister(t *testing.T) {
	env := setupEnv(t)
	svc := newVehicleService(env)
	ctx := context.Background()

	owner := env.createUser(t, "trucker", policy.RolePlayer, "0.00")

	t.Run("plate is normalized to uppercase", func(t *testing.T) {
		vehicle, err := svc.Register(ctx, env.actorFor(owner), RegisterVehicleRequest{
			Plate: "  abc-123 ",
			Make:  "Fendt",
		})
		require.NoError(t, err)
		assert.Equal(t, "ABC-123", vehicle.Plate)
	})

	t.Run("plate uniqueness ignores case", func(t *testing.T) {
		_, err := svc.Register(ctx, env.actorFor(owner), RegisterVehicleRequest{Plate: "abc-123"})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("invalid characters are rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, env.actorFor(owner), RegisterVehicleRequest{Plate: "ABC_123!"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestVehicleUpdate(t *testing.T) {
	env := setupEnv(t)
	svc := newVehicleService(env)
	ctx := context.Background()

	owner := env.createUser(t, "owner", policy.RolePlayer, "0.00")
	other := env.createUser(t, "other", policy.RolePlayer, "0.00")

	vehicle, err := svc.Register(ctx, env.actorFor(owner), RegisterVehicleRequest{Plate: "FARM-1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, env.actorFor(other), RegisterVehicleRequest{Plate: "FARM-2"})
	require.NoError(t, err)

	t.Run("keeping your own plate is not a collision", func(t *testing.T) {
		updated, err := svc.Update(ctx, env.actorFor(owner), vehicle.ID, RegisterVehicleRequest{
			Plate: "farm-1",
			Color: "Green",
		})
		require.NoError(t, err)
		assert.Equal(t, "FARM-1", updated.Plate)
		assert.Equal(t, "Green", updated.Color)
	})

	t.Run("taking another vehicle's plate is a conflict", func(t *testing.T) {
		_, err := svc.Update(ctx, env.actorFor(owner), vehicle.ID, RegisterVehicleRequest{Plate: "FARM-2"})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("non-owners cannot edit", func(t *testing.T) {
		_, err := svc.Update(ctx, env.actorFor(other), vehicle.ID, RegisterVehicleRequest{Plate: "STOLEN"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestVehicleDeleteCascades(t *testing.T) {
	env := setupEnv(t)
	svc := newVehicleService(env)
	ctx := context.Background()

	owner := env.createUser(t, "owner", policy.RolePlayer, "0.00")
	officer := env.createUser(t, "inspector", policy.RoleDOTOfficer, "0.00")

	vehicle, err := svc.Register(ctx, env.actorFor(owner), RegisterVehicleRequest{Plate: "GONE-1"})
	require.NoError(t, err)

	_, err = svc.LogInspection(ctx, env.actorFor(officer), vehicle.ID, LogInspectionRequest{Passed: true, Notes: "All clear"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, env.actorFor(owner), vehicle.ID))

	_, err = env.vehicleRepo.FindByID(ctx, vehicle.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, env.db.Model(&model.Inspection{}).Where("vehicle_id = ?", vehicle.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestVehicleInspections(t *testing.T) {
	env := setupEnv(t)
	svc := newVehicleService(env)
	ctx := context.Background()

	owner := env.createUser(t, "owner", policy.RolePlayer, "0.00")
	officer := env.createUser(t, "inspector", policy.RoleDOTOfficer, "0.00")
	stranger := env.createUser(t, "nosy", policy.RolePlayer, "0.00")

	vehicle, err := svc.Register(ctx, env.actorFor(owner), RegisterVehicleRequest{Plate: "CHECK-1"})
	require.NoError(t, err)

	t.Run("players cannot log inspections", func(t *testing.T) {
		_, err := svc.LogInspection(ctx, env.actorFor(owner), vehicle.ID, LogInspectionRequest{Passed: true})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("officer logs and owner can read", func(t *testing.T) {
		inspection, err := svc.LogInspection(ctx, env.actorFor(officer), vehicle.ID, LogInspectionRequest{
			Passed: false,
			Notes:  "Brake light out",
		})
		require.NoError(t, err)
		require.NotNil(t, inspection.InspectorID)
		assert.Equal(t, officer.ID, *inspection.InspectorID)

		list, err := svc.ListInspections(ctx, env.actorFor(owner), vehicle.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("strangers cannot read inspections", func(t *testing.T) {
		_, err := svc.ListInspections(ctx, env.actorFor(stranger), vehicle.ID)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}
