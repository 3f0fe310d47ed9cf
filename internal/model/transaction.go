package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction type tags
const (
	TxTypePurchaseDebit      = "product_purchase_debit"
	TxTypeSaleCredit         = "product_sale_credit"
	TxTypeTicketPaymentDebit = "ticket_payment_debit"
	TxTypeAdjustmentCredit   = "balance_adjustment_credit"
)

// Transaction is one append-only ledger row. Debits carry negative amounts,
// credits positive; rows are never mutated or deleted.
type Transaction struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User                  User            `gorm:"foreignKey:UserID" json:"-"`
	Type                  string          `gorm:"type:varchar(50);not null" json:"type"`
	Amount                decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description           string          `gorm:"type:varchar(255)" json:"description"`
	RelatedProductOrderID *uuid.UUID      `gorm:"type:uuid;index" json:"related_product_order_id,omitempty"`
	Timestamp             time.Time       `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
