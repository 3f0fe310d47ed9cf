package repository

import (
	"context"

	"fs25hub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PermitRepository interface {
	Create(ctx context.Context, permit *model.Permit) error
	Update(ctx context.Context, permit *model.Permit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Permit, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Permit, error)
	ListByStatus(ctx context.Context, status string) ([]model.Permit, error)
}

type permitRepository struct {
	db *gorm.DB
}

func NewPermitRepository(db *gorm.DB) PermitRepository {
	return &permitRepository{db: db}
}

func (r *permitRepository) Create(ctx context.Context, permit *model.Permit) error {
	return GetDB(ctx, r.db).Create(permit).Error
}

func (r *permitRepository) Update(ctx context.Context, permit *model.Permit) error {
	return GetDB(ctx, r.db).Save(permit).Error
}

func (r *permitRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Permit, error) {
	var permit model.Permit
	if err := GetDB(ctx, r.db).Preload("Vehicle").First(&permit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &permit, nil
}

func (r *permitRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Permit, error) {
	var permits []model.Permit
	if err := GetDB(ctx, r.db).
		Preload("Vehicle").
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&permits).Error; err != nil {
		return nil, err
	}
	return permits, nil
}

func (r *permitRepository) ListByStatus(ctx context.Context, status string) ([]model.Permit, error) {
	var permits []model.Permit
	if err := GetDB(ctx, r.db).
		Preload("Vehicle").
		Where("status = ?", status).
		Order("created_at asc").
		Find(&permits).Error; err != nil {
		return nil, err
	}
	return permits, nil
}
