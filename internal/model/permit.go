package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permit status constants
const (
	PermitStatusPending  = "pending"
	PermitStatusApproved = "approved"
	PermitStatusRejected = "rejected"
)

// Permit is a user-requested authorization reviewed by a supervisor or admin.
type Permit struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Type       string     `gorm:"type:varchar(50);not null" json:"type"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	OwnerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner      User       `gorm:"foreignKey:OwnerID" json:"-"`
	VehicleID  *uuid.UUID `gorm:"type:uuid" json:"vehicle_id,omitempty"`
	Vehicle    *Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	IssueDate  *time.Time `json:"issue_date,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	Notes      string     `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Permit) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
