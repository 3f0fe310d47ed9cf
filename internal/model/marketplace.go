package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a marketplace listing owned by its seller. Listings are
// deactivated rather than deleted so past orders keep a valid reference.
type Product struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"seller_id"`
	Seller            User            `gorm:"foreignKey:SellerID" json:"-"`
	Name              string          `gorm:"type:varchar(100);not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	// No column default: gorm would skip zero values on insert and a
	// zero-stock listing would silently gain stock.
	QuantityAvailable int             `gorm:"not null" json:"quantity_available"`
	IsActive          bool            `gorm:"not null;default:true" json:"is_active"`
	DatePosted        time.Time       `gorm:"autoCreateTime" json:"date_posted"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductOrder status constants
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusCompleted      = "completed"
)

// ProductOrder is created atomically with its items and both ledger
// transactions during a purchase, and is immutable afterwards.
type ProductOrder struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	BuyerUserID uuid.UUID          `gorm:"type:uuid;not null;index" json:"buyer_user_id"`
	Buyer       User               `gorm:"foreignKey:BuyerUserID" json:"-"`
	TotalAmount decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status      string             `gorm:"type:varchar(50);not null;default:'pending_payment'" json:"status"`
	OrderDate   time.Time          `gorm:"autoCreateTime" json:"order_date"`
	Items       []ProductOrderItem `gorm:"foreignKey:ProductOrderID" json:"items"`
}

func (o *ProductOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ProductOrderItem snapshots the price at purchase time. Historical totals
// must never be recomputed from the product's current price.
type ProductOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductOrderID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         Product         `gorm:"foreignKey:ProductID" json:"-"`
	QuantityOrdered int             `gorm:"not null" json:"quantity_ordered"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_at_purchase"`
}

func (i *ProductOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
