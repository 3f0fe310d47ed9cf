package service

import (
	"context"
	"testing"

	"fs25hub/internal/apperr"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerCredit(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("credits balance and appends a transaction", func(t *testing.T) {
		user := env.createUser(t, "alice", policy.RolePlayer, "100.00")

		err := env.ledger.Credit(ctx, user.ID, decimal.RequireFromString("25.50"), model.TxTypeSaleCredit, "Sold: wheat", nil)
		require.NoError(t, err)

		assert.True(t, env.balanceOf(t, user).Equal(decimal.RequireFromString("125.50")))

		txs, total, err := env.ledger.Statement(ctx, user.ID, 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("25.50")))
		assert.Equal(t, model.TxTypeSaleCredit, txs[0].Type)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		user := env.createUser(t, "bob", policy.RolePlayer, "0.00")

		err := env.ledger.Credit(ctx, user.ID, decimal.Zero, model.TxTypeSaleCredit, "nothing", nil)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		err := env.ledger.Credit(ctx, uuid.New(), decimal.NewFromInt(10), model.TxTypeSaleCredit, "ghost", nil)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestLedgerDebit(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("debits balance and records a negative amount", func(t *testing.T) {
		user := env.createUser(t, "carol", policy.RolePlayer, "50.00")

		err := env.ledger.Debit(ctx, user.ID, decimal.RequireFromString("20.00"), model.TxTypePurchaseDebit, "Purchased: seeds", nil)
		require.NoError(t, err)

		assert.True(t, env.balanceOf(t, user).Equal(decimal.RequireFromString("30.00")))

		txs, _, err := env.ledger.Statement(ctx, user.ID, 1, 10)
		require.NoError(t, err)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-20.00")))
	})

	t.Run("insufficient funds leaves balance and ledger untouched", func(t *testing.T) {
		user := env.createUser(t, "dave", policy.RolePlayer, "5.00")

		err := env.ledger.Debit(ctx, user.ID, decimal.RequireFromString("10.00"), model.TxTypePurchaseDebit, "too much", nil)
		assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
		assert.Contains(t, err.Error(), "you need $10.00, but you only have $5.00")

		assert.True(t, env.balanceOf(t, user).Equal(decimal.RequireFromString("5.00")))

		_, total, err := env.ledger.Statement(ctx, user.ID, 1, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("exact balance can be spent to zero", func(t *testing.T) {
		user := env.createUser(t, "erin", policy.RolePlayer, "10.00")

		err := env.ledger.Debit(ctx, user.ID, decimal.RequireFromString("10.00"), model.TxTypePurchaseDebit, "all in", nil)
		require.NoError(t, err)
		assert.True(t, env.balanceOf(t, user).IsZero())
	})
}

func TestLedgerStatementOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "frank", policy.RolePlayer, "0.00")

	for _, desc := range []string{"first", "second", "third"} {
		require.NoError(t, env.ledger.Credit(ctx, user.ID, decimal.NewFromInt(1), model.TxTypeAdjustmentCredit, desc, nil))
	}

	txs, total, err := env.ledger.Statement(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, txs, 3)
	// Newest first.
	assert.Equal(t, "third", txs[0].Description)
	assert.Equal(t, "first", txs[2].Description)
}
