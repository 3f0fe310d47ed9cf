package database

import (
	"log"

	"fs25hub/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for all core models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Company{},
		&model.Vehicle{},
		&model.Inspection{},
		&model.Ticket{},
		&model.TicketItem{},
		&model.Permit{},
		&model.Product{},
		&model.ProductOrder{},
		&model.ProductOrderItem{},
		&model.Transaction{},
		&model.AuditLog{},
	)
}
