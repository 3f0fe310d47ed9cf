package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ticket status constants
const (
	TicketStatusUnpaid            = "unpaid"
	TicketStatusPaid              = "paid"
	TicketStatusDisputed          = "disputed"
	TicketStatusWarning           = "warning_issued"
	TicketStatusCompliancePending = "compliance_pending" // reserved, no transition targets it
	TicketStatusResolved          = "resolved"
)

// Dispute review sub-states, meaningful while a ticket is disputed
const (
	DisputeStatusNone     = "none"
	DisputeStatusPending  = "pending_review"
	DisputeStatusApproved = "review_approved"
	DisputeStatusRejected = "review_rejected"
)

// Ticket is a DOT citation. A zero fine is issued as a warning; otherwise it
// starts unpaid and moves through the pay/dispute lifecycle.
type Ticket struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Reason        string          `gorm:"type:varchar(200);not null" json:"reason"`
	Notes         string          `gorm:"type:text" json:"notes"`
	FineAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"fine_amount"`
	Status        string          `gorm:"type:varchar(50);not null;default:'unpaid'" json:"status"`
	DisputeReason string          `gorm:"type:text" json:"dispute_reason"`
	DisputeStatus string          `gorm:"type:varchar(50);not null;default:'none'" json:"dispute_status"`
	IssuedTo      uuid.UUID       `gorm:"type:uuid;not null;index" json:"issued_to"`
	Recipient     User            `gorm:"foreignKey:IssuedTo" json:"-"`
	IssuerID      *uuid.UUID      `gorm:"type:uuid" json:"issuer_id,omitempty"`
	Issuer        *User           `gorm:"foreignKey:IssuerID" json:"-"`
	VehicleID     *uuid.UUID      `gorm:"type:uuid;index" json:"vehicle_id,omitempty"`
	Vehicle       *Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	CompanyID     *uuid.UUID      `gorm:"type:uuid;index" json:"company_id,omitempty"`
	Items         []TicketItem    `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TotalPrice is the fine plus the sum of all billable line items.
func (t *Ticket) TotalPrice() decimal.Decimal {
	total := t.FineAmount
	for _, item := range t.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// TicketItem is a billable material line attached to a ticket.
type TicketItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"ticket_id"`
	MaterialName string          `gorm:"type:varchar(100);not null" json:"material_name"`
	Quantity     int             `gorm:"not null;default:1" json:"quantity"`
	PricePerUnit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price_per_unit"`
}

func (i *TicketItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *TicketItem) TotalPrice() decimal.Decimal {
	return i.PricePerUnit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
