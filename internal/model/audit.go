package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionIssueTicket    = "ISSUE_TICKET"
	ActionPayTicket      = "PAY_TICKET"
	ActionDisputeTicket  = "DISPUTE_TICKET"
	ActionReviewDispute  = "REVIEW_DISPUTE"
	ActionPurchase       = "PURCHASE_PRODUCT"
	ActionPromoteUser    = "PROMOTE_USER"
	ActionCreateCompany  = "CREATE_COMPANY"
	ActionReviewPermit   = "REVIEW_PERMIT"
	ActionLogInspection  = "LOG_INSPECTION"
	ActionDeleteVehicle  = "DELETE_VEHICLE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
