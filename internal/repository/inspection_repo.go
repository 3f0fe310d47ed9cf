package repository

import (
	"context"

	"fs25hub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InspectionRepository interface {
	Create(ctx context.Context, inspection *model.Inspection) error
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Inspection, error)
}

type inspectionRepository struct {
	db *gorm.DB
}

func NewInspectionRepository(db *gorm.DB) InspectionRepository {
	return &inspectionRepository{db: db}
}

func (r *inspectionRepository) Create(ctx context.Context, inspection *model.Inspection) error {
	return GetDB(ctx, r.db).Create(inspection).Error
}

func (r *inspectionRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Inspection, error) {
	var inspections []model.Inspection
	if err := GetDB(ctx, r.db).
		Where("vehicle_id = ?", vehicleID).
		Order("created_at desc").
		Find(&inspections).Error; err != nil {
		return nil, err
	}
	return inspections, nil
}
