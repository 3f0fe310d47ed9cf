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

func newMarketService(env *testEnv) MarketService {
	return NewMarketService(
		env.productRepo, env.orderRepo, env.userRepo, env.auditRepo,
		env.ledger, env.txManager, nil, nil,
	)
}

func (e *testEnv) createProduct(t *testing.T, svc MarketService, seller *model.User, name, price string, qty int) *model.Product {
	t.Helper()
	product, err := svc.CreateListing(context.Background(), e.actorFor(seller), CreateProductRequest{
		Name:              name,
		Price:             decimal.RequireFromString(price),
		QuantityAvailable: qty,
	})
	require.NoError(t, err)
	return product
}

func TestMarketPurchase(t *testing.T) {
	env := setupEnv(t)
	svc := newMarketService(env)
	ctx := context.Background()

	t.Run("successful purchase settles everything atomically", func(t *testing.T) {
		seller := env.createUser(t, "seller1", policy.RolePlayer, "0.00")
		buyer := env.createUser(t, "buyer1", policy.RolePlayer, "100.00")
		product := env.createProduct(t, svc, seller, "Wheat Bale", "30.00", 5)

		order, err := svc.Purchase(ctx, env.actorFor(buyer), product.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCompleted, order.Status)
		assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("30.00")))

		// Balances moved in both directions.
		assert.True(t, env.balanceOf(t, buyer).Equal(decimal.RequireFromString("70.00")))
		assert.True(t, env.balanceOf(t, seller).Equal(decimal.RequireFromString("30.00")))

		// Stock decremented once.
		fresh, err := env.productRepo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, fresh.QuantityAvailable)

		// One debit for the buyer, one credit for the seller, same order.
		buyerTxs, _, err := env.ledger.Statement(ctx, buyer.ID, 1, 10)
		require.NoError(t, err)
		require.Len(t, buyerTxs, 1)
		assert.Equal(t, model.TxTypePurchaseDebit, buyerTxs[0].Type)
		assert.Contains(t, buyerTxs[0].Description, "Purchased: Wheat Bale")
		require.NotNil(t, buyerTxs[0].RelatedProductOrderID)
		assert.Equal(t, order.ID, *buyerTxs[0].RelatedProductOrderID)

		sellerTxs, _, err := env.ledger.Statement(ctx, seller.ID, 1, 10)
		require.NoError(t, err)
		require.Len(t, sellerTxs, 1)
		assert.Equal(t, model.TxTypeSaleCredit, sellerTxs[0].Type)
		assert.Equal(t, order.ID, *sellerTxs[0].RelatedProductOrderID)

		// Order item snapshots the price at purchase time.
		loaded, err := env.orderRepo.FindByIDWithItems(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Items, 1)
		assert.True(t, loaded.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("30.00")))
	})

	t.Run("insufficient funds changes nothing", func(t *testing.T) {
		seller := env.createUser(t, "seller2", policy.RolePlayer, "0.00")
		buyer := env.createUser(t, "broke", policy.RolePlayer, "5.00")
		product := env.createProduct(t, svc, seller, "Tractor", "5000.00", 1)

		_, err := svc.Purchase(ctx, env.actorFor(buyer), product.ID)
		assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
		assert.Contains(t, err.Error(), "you need $5000.00, but you only have $5.00")

		assert.True(t, env.balanceOf(t, buyer).Equal(decimal.RequireFromString("5.00")))
		assert.True(t, env.balanceOf(t, seller).IsZero())

		fresh, err := env.productRepo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, fresh.QuantityAvailable)

		_, total, err := svc.ListOrders(ctx, env.actorFor(buyer), 1, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("cannot purchase own product", func(t *testing.T) {
		seller := env.createUser(t, "selfbuy", policy.RolePlayer, "100.00")
		product := env.createProduct(t, svc, seller, "Hay", "10.00", 3)

		_, err := svc.Purchase(ctx, env.actorFor(seller), product.ID)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("out of stock is rejected before any writes", func(t *testing.T) {
		seller := env.createUser(t, "seller3", policy.RolePlayer, "0.00")
		buyer := env.createUser(t, "buyer3", policy.RolePlayer, "100.00")
		product := env.createProduct(t, svc, seller, "Diesel", "10.00", 0)

		// A listing created with zero stock must persist zero stock.
		stored, err := env.productRepo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.QuantityAvailable)

		_, err = svc.Purchase(ctx, env.actorFor(buyer), product.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)

		assert.True(t, env.balanceOf(t, buyer).Equal(decimal.RequireFromString("100.00")))
	})

	t.Run("deactivated listing cannot be purchased", func(t *testing.T) {
		seller := env.createUser(t, "seller4", policy.RolePlayer, "0.00")
		buyer := env.createUser(t, "buyer4", policy.RolePlayer, "100.00")
		product := env.createProduct(t, svc, seller, "Seeds", "10.00", 5)

		_, err := svc.SetListingActive(ctx, env.actorFor(seller), product.ID, false)
		require.NoError(t, err)

		_, err = svc.Purchase(ctx, env.actorFor(buyer), product.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})
}

func TestMarketListingOwnership(t *testing.T) {
	env := setupEnv(t)
	svc := newMarketService(env)
	ctx := context.Background()

	seller := env.createUser(t, "owner", policy.RolePlayer, "0.00")
	other := env.createUser(t, "stranger", policy.RolePlayer, "0.00")
	supervisor := env.createUser(t, "super", policy.RoleSupervisor, "0.00")
	product := env.createProduct(t, svc, seller, "Fertilizer", "15.00", 10)

	t.Run("stranger cannot edit a listing", func(t *testing.T) {
		_, err := svc.UpdateListing(ctx, env.actorFor(other), product.ID, UpdateProductRequest{
			Name: "Hijacked", Price: decimal.NewFromInt(1), IsActive: true,
		})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("supervisor can moderate any listing", func(t *testing.T) {
		updated, err := svc.SetListingActive(ctx, env.actorFor(supervisor), product.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
	})

	t.Run("inactive listings are hidden from the marketplace", func(t *testing.T) {
		products, total, err := svc.ListMarketplace(ctx, 1, 20, "")
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, products)

		mine, err := svc.ListMine(ctx, env.actorFor(seller))
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})

	t.Run("price must be positive", func(t *testing.T) {
		_, err := svc.CreateListing(ctx, env.actorFor(seller), CreateProductRequest{
			Name: "Free stuff", Price: decimal.Zero,
		})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}
