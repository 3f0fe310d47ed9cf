package repository

import (
	"context"

	"fs25hub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.ProductOrder) error
	CreateItem(ctx context.Context, item *model.ProductOrderItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.ProductOrder, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, page, limit int) ([]model.ProductOrder, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.ProductOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) CreateItem(ctx context.Context, item *model.ProductOrderItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.ProductOrder, error) {
	var order model.ProductOrder
	if err := GetDB(ctx, r.db).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, page, limit int) ([]model.ProductOrder, int64, error) {
	var orders []model.ProductOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ProductOrder{}).Where("buyer_user_id = ?", buyerID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Where("buyer_user_id = ?", buyerID).
		Order("order_date DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
