package service

import (
	"context"
	"testing"

	"fs25hub/internal/apperr"
	"fs25hub/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(env *testEnv) AuthService {
	return NewAuthService(env.userRepo, env.txManager, nil, []byte("test_secret"))
}

func TestAuthRegister(t *testing.T) {
	env := setupEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	t.Run("creates a player with lowercased email", func(t *testing.T) {
		user, err := svc.Register(ctx, RegisterRequest{
			Username: "Farmer_Joe",
			Email:    "Farmer.Joe@Example.COM",
			Password: "plant-corn-2026",
		})
		require.NoError(t, err)
		assert.Equal(t, policy.RolePlayer, user.Role)
		assert.Equal(t, "farmer.joe@example.com", user.Email)
		assert.NotEqual(t, "plant-corn-2026", user.Password, "password must be hashed")
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{
			Username: "Farmer_Joe",
			Email:    "different@example.com",
			Password: "plant-corn-2026",
		})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("duplicate email conflicts case-insensitively", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{
			Username: "someone_else",
			Email:    "FARMER.JOE@example.com",
			Password: "plant-corn-2026",
		})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestAuthLoginLogout(t *testing.T) {
	env := setupEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "driver",
		Email:    "driver@example.com",
		Password: "haul-it-all",
	})
	require.NoError(t, err)

	t.Run("login by username stamps login time and issues tokens", func(t *testing.T) {
		user, tokens, err := svc.Login(ctx, LoginRequest{Identifier: "driver", Password: "haul-it-all"})
		require.NoError(t, err)
		assert.NotNil(t, user.LoginTime)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
	})

	t.Run("login by case-insensitive email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, LoginRequest{Identifier: "DRIVER@example.com", Password: "haul-it-all"})
		require.NoError(t, err)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, _, err := svc.Login(ctx, LoginRequest{Identifier: "driver", Password: "wrong"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("logout accumulates logged hours and revokes the refresh token", func(t *testing.T) {
		user, tokens, err := svc.Login(ctx, LoginRequest{Identifier: "driver", Password: "haul-it-all"})
		require.NoError(t, err)

		actor := policy.Actor{ID: user.ID, Role: user.Role}
		require.NoError(t, svc.Logout(ctx, actor, tokens.RefreshToken))

		fresh, err := env.userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, fresh.LoginTime)
		assert.NotNil(t, fresh.LogoutTime)
		assert.GreaterOrEqual(t, fresh.TotalLoggedHours, 0.0)

		_, err = svc.Refresh(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("refresh rotates the token", func(t *testing.T) {
		_, tokens, err := svc.Login(ctx, LoginRequest{Identifier: "driver", Password: "haul-it-all"})
		require.NoError(t, err)

		rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

		// The old refresh token is dead after rotation.
		_, err = svc.Refresh(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestAuthPasswordlessAccount(t *testing.T) {
	env := setupEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	// Discord-created accounts have no password hash.
	user := env.createUser(t, "discord_only", policy.RolePlayer, "0.00")
	require.Empty(t, user.Password)

	_, _, err := svc.Login(ctx, LoginRequest{Identifier: "discord_only", Password: "anything"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Discord")
}
