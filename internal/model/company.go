package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company groups employee accounts. Company-issued tickets are modeled but no
// lifecycle transition targets them yet.
type Company struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Employees   []User    `gorm:"foreignKey:CompanyID" json:"employees,omitempty"`
	Tickets     []Ticket  `gorm:"foreignKey:CompanyID" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
