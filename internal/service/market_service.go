package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fs25hub/internal/apperr"
	"fs25hub/internal/discord"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"
	"fs25hub/internal/repository"
	ws "fs25hub/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	Name              string          `json:"name" binding:"required,max=100"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price" binding:"required"`
	QuantityAvailable int             `json:"quantity_available" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name              string          `json:"name" binding:"required,max=100"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price" binding:"required"`
	QuantityAvailable int             `json:"quantity_available" binding:"min=0"`
	IsActive          bool            `json:"is_active"`
}

// MarketService owns marketplace listings and the purchase workflow. A
// purchase mutates stock, both balances and the ledger inside one database
// transaction; the Discord and websocket notifications ride outside it.
type MarketService interface {
	ListMarketplace(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	ListMine(ctx context.Context, actor policy.Actor) ([]model.Product, error)
	CreateListing(ctx context.Context, actor policy.Actor, req CreateProductRequest) (*model.Product, error)
	UpdateListing(ctx context.Context, actor policy.Actor, id uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	SetListingActive(ctx context.Context, actor policy.Actor, id uuid.UUID, active bool) (*model.Product, error)
	Purchase(ctx context.Context, actor policy.Actor, productID uuid.UUID) (*model.ProductOrder, error)
	ListOrders(ctx context.Context, actor policy.Actor, page, limit int) ([]model.ProductOrder, int64, error)
}

type marketService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	ledger      LedgerService
	txManager   repository.TransactionManager
	notifier    *discord.Notifier
	hub         *ws.Hub
}

func NewMarketService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	ledger LedgerService,
	txManager repository.TransactionManager,
	notifier *discord.Notifier,
	hub *ws.Hub,
) MarketService {
	return &marketService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		ledger:      ledger,
		txManager:   txManager,
		notifier:    notifier,
		hub:         hub,
	}
}

func (s *marketService) ListMarketplace(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.ListActive(ctx, page, limit, search)
}

func (s *marketService) ListMine(ctx context.Context, actor policy.Actor) ([]model.Product, error) {
	return s.productRepo.ListBySeller(ctx, actor.ID)
}

func (s *marketService) CreateListing(ctx context.Context, actor policy.Actor, req CreateProductRequest) (*model.Product, error) {
	if !req.Price.IsPositive() {
		return nil, apperr.Validationf("price must be greater than zero")
	}

	product := &model.Product{
		SellerID:          actor.ID,
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		QuantityAvailable: req.QuantityAvailable,
		IsActive:          true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.notifyProduct(ctx, product, "New Product Listed: ")
	return product, nil
}

func (s *marketService) UpdateListing(ctx context.Context, actor policy.Actor, id uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanManage(actor, product.SellerID, policy.ActionModerateMarket) {
		return nil, apperr.Unauthorizedf("you are not authorized to edit this product")
	}
	if !req.Price.IsPositive() {
		return nil, apperr.Validationf("price must be greater than zero")
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.QuantityAvailable = req.QuantityAvailable
	product.IsActive = req.IsActive

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.notifyProduct(ctx, product, "Product Updated: ")
	return product, nil
}

func (s *marketService) SetListingActive(ctx context.Context, actor policy.Actor, id uuid.UUID, active bool) (*model.Product, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanManage(actor, product.SellerID, policy.ActionModerateMarket) {
		return nil, apperr.Unauthorizedf("you are not authorized to modify this product")
	}

	product.IsActive = active
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// Purchase buys one unit of the product for the actor. Preconditions are
// checked in a fixed order and the first failure wins with no state change:
// listing active, stock available, not the actor's own listing, sufficient
// funds.
func (s *marketService) Purchase(ctx context.Context, actor policy.Actor, productID uuid.UUID) (*model.ProductOrder, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !product.IsActive {
		return nil, apperr.InvalidStatef("this product is no longer available")
	}
	if product.QuantityAvailable <= 0 {
		return nil, apperr.InvalidStatef("this product is out of stock")
	}
	if product.SellerID == actor.ID {
		return nil, apperr.Validationf("you cannot purchase your own product")
	}

	buyer, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer: %w", err)
	}
	if buyer.Balance.LessThan(product.Price) {
		return nil, apperr.InsufficientFundsf("you need $%s, but you only have $%s",
			product.Price.StringFixed(2), buyer.Balance.StringFixed(2))
	}

	order := &model.ProductOrder{
		BuyerUserID: actor.ID,
		TotalAmount: product.Price,
		Status:      model.OrderStatusCompleted,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		item := &model.ProductOrderItem{
			ProductOrderID:  order.ID,
			ProductID:       product.ID,
			QuantityOrdered: 1,
			PriceAtPurchase: product.Price, // snapshot, never recomputed later
		}
		if err := s.orderRepo.CreateItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}

		taken, err := s.productRepo.DecrementStock(txCtx, product.ID, 1)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		if !taken {
			return apperr.InvalidStatef("this product is out of stock")
		}

		desc := fmt.Sprintf("Purchased: %s (Order: %s)", product.Name, order.ID)
		if err := s.ledger.Debit(txCtx, actor.ID, product.Price, model.TxTypePurchaseDebit, desc, &order.ID); err != nil {
			return err
		}

		desc = fmt.Sprintf("Sold: %s (Order: %s)", product.Name, order.ID)
		if err := s.ledger.Credit(txCtx, product.SellerID, product.Price, model.TxTypeSaleCredit, desc, &order.ID); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"product_id": product.ID.String(),
			"order_id":   order.ID.String(),
			"price":      product.Price,
		})
		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionPurchase,
			EntityID:   order.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	product.QuantityAvailable--
	s.notifySale(product, buyer.Username, order)

	return order, nil
}

func (s *marketService) ListOrders(ctx context.Context, actor policy.Actor, page, limit int) ([]model.ProductOrder, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.orderRepo.ListByBuyer(ctx, actor.ID, page, limit)
}

func (s *marketService) loadProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("product %s", id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

// notifyProduct sends a best-effort product embed. Failures are logged and
// swallowed; the listing change has already been committed.
func (s *marketService) notifyProduct(ctx context.Context, product *model.Product, titlePrefix string) {
	if !s.notifier.Configured() {
		log.Println("discord webhook not configured, skipping product notification")
		return
	}
	seller, err := s.userRepo.GetByID(ctx, product.SellerID)
	sellerName := "N/A"
	if err == nil {
		sellerName = seller.Username
	}
	embed := discord.ProductEmbed(product, sellerName, titlePrefix)
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.Send(sendCtx, "", []discord.Embed{embed}); err != nil {
			log.Println("failed to send product notification:", err)
		}
	}()
}

// notifySale broadcasts the completed sale to Discord and the websocket hub.
func (s *marketService) notifySale(product *model.Product, buyerName string, order *model.ProductOrder) {
	seller, err := s.userRepo.GetByID(context.Background(), product.SellerID)
	sellerName := "N/A"
	if err == nil {
		sellerName = seller.Username
	}

	s.hub.Publish("product_sold", map[string]interface{}{
		"product_id":      product.ID.String(),
		"product_name":    product.Name,
		"order_id":        order.ID.String(),
		"buyer":           buyerName,
		"seller":          sellerName,
		"total_amount":    order.TotalAmount,
		"stock_remaining": product.QuantityAvailable,
	})

	if !s.notifier.Configured() {
		log.Println("discord webhook not configured, skipping sale notification")
		return
	}
	embed := discord.SaleEmbed(product, buyerName, sellerName, order, 1)
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.Send(sendCtx, "", []discord.Embed{embed}); err != nil {
			log.Println("failed to send sale notification:", err)
		}
	}()
}
