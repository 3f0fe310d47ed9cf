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

func newAdminService(env *testEnv) AdminService {
	return NewAdminService(env.userRepo, env.companyRepo, env.auditRepo, env.txManager)
}

func TestAdminPromote(t *testing.T) {
	env := setupEnv(t)
	svc := newAdminService(env)
	ctx := context.Background()

	admin := env.createUser(t, "root", policy.RoleAdmin, "0.00")
	supervisor := env.createUser(t, "super", policy.RoleSupervisor, "0.00")
	player := env.createUser(t, "rookie", policy.RolePlayer, "0.00")

	t.Run("admin promotes a player to dot_officer", func(t *testing.T) {
		promoted, err := svc.Promote(ctx, env.actorFor(admin), player.ID, PromoteUserRequest{Role: "dot_officer"})
		require.NoError(t, err)
		assert.Equal(t, policy.RoleDOTOfficer, promoted.Role)

		logs, _, err := svc.AuditTrail(ctx, env.actorFor(admin), 1, 10)
		require.NoError(t, err)
		require.NotEmpty(t, logs)
		assert.Equal(t, model.ActionPromoteUser, logs[0].Action)
	})

	t.Run("supervisors cannot promote", func(t *testing.T) {
		_, err := svc.Promote(ctx, env.actorFor(supervisor), player.ID, PromoteUserRequest{Role: "supervisor"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := svc.Promote(ctx, env.actorFor(admin), player.ID, PromoteUserRequest{Role: "emperor"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("admins cannot demote themselves", func(t *testing.T) {
		_, err := svc.Promote(ctx, env.actorFor(admin), admin.ID, PromoteUserRequest{Role: "player"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestAdminCompanies(t *testing.T) {
	env := setupEnv(t)
	svc := newAdminService(env)
	ctx := context.Background()

	admin := env.createUser(t, "root", policy.RoleAdmin, "0.00")
	player := env.createUser(t, "worker", policy.RolePlayer, "0.00")

	t.Run("company names are unique", func(t *testing.T) {
		company, err := svc.CreateCompany(ctx, env.actorFor(admin), CreateCompanyRequest{Name: "Green Valley Logistics"})
		require.NoError(t, err)
		assert.Equal(t, "Green Valley Logistics", company.Name)

		_, err = svc.CreateCompany(ctx, env.actorFor(admin), CreateCompanyRequest{Name: "Green Valley Logistics"})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("players cannot create companies", func(t *testing.T) {
		_, err := svc.CreateCompany(ctx, env.actorFor(player), CreateCompanyRequest{Name: "Shadow Corp"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("players cannot list companies", func(t *testing.T) {
		_, err := svc.ListCompanies(ctx, env.actorFor(player))
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("assign and clear company membership", func(t *testing.T) {
		companies, err := svc.ListCompanies(ctx, env.actorFor(admin))
		require.NoError(t, err)
		require.Len(t, companies, 1)

		assigned, err := svc.AssignCompany(ctx, env.actorFor(admin), player.ID, AssignCompanyRequest{CompanyID: companies[0].ID.String()})
		require.NoError(t, err)
		require.NotNil(t, assigned.CompanyID)
		assert.Equal(t, companies[0].ID, *assigned.CompanyID)

		cleared, err := svc.AssignCompany(ctx, env.actorFor(admin), player.ID, AssignCompanyRequest{})
		require.NoError(t, err)
		assert.Nil(t, cleared.CompanyID)
	})
}
