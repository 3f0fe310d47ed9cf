package service

import (
	"context"
	"testing"

	"fs25hub/internal/apperr"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketService(env *testEnv) TicketService {
	return NewTicketService(
		env.ticketRepo, env.userRepo, env.vehicleRepo, env.auditRepo,
		env.ledger, env.txManager, nil,
	)
}

func issueTicket(t *testing.T, env *testEnv, svc TicketService, officer, target *model.User, fine string) *model.Ticket {
	t.Helper()
	ticket, err := svc.Issue(context.Background(), env.actorFor(officer), IssueTicketRequest{
		UserID:     target.ID.String(),
		Reason:     "Speeding on Route 7",
		FineAmount: decimal.RequireFromString(fine),
	})
	require.NoError(t, err)
	return ticket
}

func TestTicketIssue(t *testing.T) {
	env := setupEnv(t)
	svc := newTicketService(env)
	ctx := context.Background()

	officer := env.createUser(t, "officer", policy.RoleDOTOfficer, "0.00")
	player := env.createUser(t, "driver", policy.RolePlayer, "0.00")

	t.Run("positive fine starts unpaid", func(t *testing.T) {
		ticket := issueTicket(t, env, svc, officer, player, "50.00")
		assert.Equal(t, model.TicketStatusUnpaid, ticket.Status)
		assert.Equal(t, model.DisputeStatusNone, ticket.DisputeStatus)
		require.NotNil(t, ticket.IssuerID)
		assert.Equal(t, officer.ID, *ticket.IssuerID)
	})

	t.Run("zero fine is a warning", func(t *testing.T) {
		ticket := issueTicket(t, env, svc, officer, player, "0.00")
		assert.Equal(t, model.TicketStatusWarning, ticket.Status)
	})

	t.Run("players cannot issue tickets", func(t *testing.T) {
		_, err := svc.Issue(ctx, env.actorFor(player), IssueTicketRequest{
			UserID: officer.ID.String(),
			Reason: "Revenge",
		})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("negative fine is rejected", func(t *testing.T) {
		_, err := svc.Issue(ctx, env.actorFor(officer), IssueTicketRequest{
			UserID:     player.ID.String(),
			Reason:     "Oops",
			FineAmount: decimal.NewFromInt(-5),
		})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("unknown recipient is rejected", func(t *testing.T) {
		_, err := svc.Issue(ctx, env.actorFor(officer), IssueTicketRequest{
			UserID: "6a2f0a34-0000-0000-0000-000000000000",
			Reason: "Ghost driver",
		})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestTicketPay(t *testing.T) {
	env := setupEnv(t)
	svc := newTicketService(env)
	ctx := context.Background()

	officer := env.createUser(t, "officer", policy.RoleDOTOfficer, "0.00")

	t.Run("payment debits the recipient and marks paid", func(t *testing.T) {
		player := env.createUser(t, "payer", policy.RolePlayer, "80.00")
		ticket := issueTicket(t, env, svc, officer, player, "50.00")

		paid, err := svc.Pay(ctx, env.actorFor(player), ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusPaid, paid.Status)
		assert.True(t, env.balanceOf(t, player).Equal(decimal.RequireFromString("30.00")))

		txs, _, err := env.ledger.Statement(ctx, player.ID, 1, 10)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, model.TxTypeTicketPaymentDebit, txs[0].Type)
	})

	t.Run("double payment is rejected without a second debit", func(t *testing.T) {
		player := env.createUser(t, "doublepay", policy.RolePlayer, "200.00")
		ticket := issueTicket(t, env, svc, officer, player, "50.00")

		_, err := svc.Pay(ctx, env.actorFor(player), ticket.ID)
		require.NoError(t, err)

		_, err = svc.Pay(ctx, env.actorFor(player), ticket.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
		assert.Contains(t, err.Error(), "paid")

		assert.True(t, env.balanceOf(t, player).Equal(decimal.RequireFromString("150.00")))
	})

	t.Run("insufficient funds leaves the ticket unpaid", func(t *testing.T) {
		player := env.createUser(t, "brokepayer", policy.RolePlayer, "10.00")
		ticket := issueTicket(t, env, svc, officer, player, "50.00")

		_, err := svc.Pay(ctx, env.actorFor(player), ticket.ID)
		assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

		fresh, err := svc.Get(ctx, env.actorFor(player), ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusUnpaid, fresh.Status)
		assert.True(t, env.balanceOf(t, player).Equal(decimal.RequireFromString("10.00")))
	})

	t.Run("a stranger cannot pay someone else's ticket", func(t *testing.T) {
		player := env.createUser(t, "victim", policy.RolePlayer, "100.00")
		stranger := env.createUser(t, "meddler", policy.RolePlayer, "100.00")
		ticket := issueTicket(t, env, svc, officer, player, "50.00")

		_, err := svc.Pay(ctx, env.actorFor(stranger), ticket.ID)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestTicketDisputeRoundTrip(t *testing.T) {
	env := setupEnv(t)
	svc := newTicketService(env)
	ctx := context.Background()

	officer := env.createUser(t, "officer", policy.RoleDOTOfficer, "0.00")
	supervisor := env.createUser(t, "chief", policy.RoleSupervisor, "0.00")

	t.Run("approved dispute zeroes the fine and resolves", func(t *testing.T) {
		player := env.createUser(t, "disputant", policy.RolePlayer, "0.00")
		ticket := issueTicket(t, env, svc, officer, player, "75.00")

		disputed, err := svc.Dispute(ctx, env.actorFor(player), ticket.ID, DisputeTicketRequest{
			DisputeReason: "I was parked the entire time",
		})
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusDisputed, disputed.Status)
		assert.Equal(t, model.DisputeStatusPending, disputed.DisputeStatus)

		reviewed, err := svc.ReviewDispute(ctx, env.actorFor(supervisor), ticket.ID, true, ReviewDisputeRequest{Note: "Camera footage confirms"})
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusResolved, reviewed.Status)
		assert.Equal(t, model.DisputeStatusApproved, reviewed.DisputeStatus)
		assert.True(t, reviewed.FineAmount.IsZero())
		assert.Contains(t, reviewed.Notes, "Dispute approved by chief")
		assert.Contains(t, reviewed.Notes, "Camera footage confirms")
	})

	t.Run("rejected dispute reopens the ticket for payment", func(t *testing.T) {
		player := env.createUser(t, "rejected", policy.RolePlayer, "100.00")
		ticket := issueTicket(t, env, svc, officer, player, "75.00")

		_, err := svc.Dispute(ctx, env.actorFor(player), ticket.ID, DisputeTicketRequest{
			DisputeReason: "That was not my truck",
		})
		require.NoError(t, err)

		reviewed, err := svc.ReviewDispute(ctx, env.actorFor(officer), ticket.ID, false, ReviewDisputeRequest{})
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusUnpaid, reviewed.Status)
		assert.Equal(t, model.DisputeStatusRejected, reviewed.DisputeStatus)
		assert.True(t, reviewed.FineAmount.Equal(decimal.RequireFromString("75.00")))

		paid, err := svc.Pay(ctx, env.actorFor(player), ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TicketStatusPaid, paid.Status)
	})

	t.Run("players cannot review disputes", func(t *testing.T) {
		player := env.createUser(t, "sneaky", policy.RolePlayer, "0.00")
		ticket := issueTicket(t, env, svc, officer, player, "20.00")
		_, err := svc.Dispute(ctx, env.actorFor(player), ticket.ID, DisputeTicketRequest{
			DisputeReason: "Reviewing my own dispute",
		})
		require.NoError(t, err)

		_, err = svc.ReviewDispute(ctx, env.actorFor(player), ticket.ID, true, ReviewDisputeRequest{})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("review without a pending dispute is rejected", func(t *testing.T) {
		player := env.createUser(t, "calm", policy.RolePlayer, "0.00")
		ticket := issueTicket(t, env, svc, officer, player, "20.00")

		_, err := svc.ReviewDispute(ctx, env.actorFor(supervisor), ticket.ID, true, ReviewDisputeRequest{})
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("a paid ticket cannot be disputed", func(t *testing.T) {
		player := env.createUser(t, "latecomer", policy.RolePlayer, "100.00")
		ticket := issueTicket(t, env, svc, officer, player, "20.00")
		_, err := svc.Pay(ctx, env.actorFor(player), ticket.ID)
		require.NoError(t, err)

		_, err = svc.Dispute(ctx, env.actorFor(player), ticket.ID, DisputeTicketRequest{
			DisputeReason: "Wait, I changed my mind",
		})
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})
}

func TestTicketItems(t *testing.T) {
	env := setupEnv(t)
	svc := newTicketService(env)
	ctx := context.Background()

	officer := env.createUser(t, "officer", policy.RoleDOTOfficer, "0.00")
	player := env.createUser(t, "hauler", policy.RolePlayer, "0.00")
	ticket := issueTicket(t, env, svc, officer, player, "25.00")

	withItems, err := svc.AddItem(ctx, env.actorFor(officer), ticket.ID, AddTicketItemRequest{
		MaterialName: "Spilled grain cleanup",
		Quantity:     3,
		PricePerUnit: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	require.Len(t, withItems.Items, 1)

	// Fine plus 3 x 10.
	assert.True(t, withItems.TotalPrice().Equal(decimal.RequireFromString("55.00")))

	_, err = svc.AddItem(ctx, env.actorFor(player), ticket.ID, AddTicketItemRequest{
		MaterialName: "Free stuff", Quantity: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
