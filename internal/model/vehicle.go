package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle is a registered vehicle. Plate uniqueness is case-insensitive and
// enforced by the vehicle service, not by the column index.
type Vehicle struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Plate       string       `gorm:"type:varchar(20);uniqueIndex;not null" json:"plate"`
	Make        string       `gorm:"type:varchar(50)" json:"make"`
	Model       string       `gorm:"type:varchar(50)" json:"model"`
	Year        int          `json:"year"`
	Color       string       `gorm:"type:varchar(30)" json:"color"`
	OwnerID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       User         `gorm:"foreignKey:OwnerID" json:"-"`
	Inspections []Inspection `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"inspections,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Inspection records a DOT inspection result for a vehicle.
type Inspection struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Passed      bool       `gorm:"not null;default:false" json:"passed"`
	Notes       string     `gorm:"type:text" json:"notes"`
	InspectorID *uuid.UUID `gorm:"type:uuid" json:"inspector_id,omitempty"`
	Inspector   *User      `gorm:"foreignKey:InspectorID" json:"-"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (i *Inspection) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
