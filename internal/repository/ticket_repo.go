package repository

import (
	"context"

	"fs25hub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketFilter narrows the privileged all-tickets listing.
type TicketFilter struct {
	IssuedTo *uuid.UUID
	Status   string
	Search   string // matches against reason
	Page     int
	Limit    int
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) error
	Update(ctx context.Context, ticket *model.Ticket) error
	CreateItem(ctx context.Context, item *model.TicketItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error)
	ListByRecipient(ctx context.Context, userID uuid.UUID) ([]model.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]model.Ticket, int64, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *model.Ticket) error {
	return GetDB(ctx, r.db).Create(ticket).Error
}

func (r *ticketRepository) Update(ctx context.Context, ticket *model.Ticket) error {
	return GetDB(ctx, r.db).Save(ticket).Error
}

func (r *ticketRepository) CreateItem(ctx context.Context, item *model.TicketItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Vehicle").
		First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByRecipient(ctx context.Context, userID uuid.UUID) ([]model.Ticket, error) {
	var tickets []model.Ticket
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Where("issued_to = ?", userID).
		Order("created_at desc").
		Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]model.Ticket, int64, error) {
	var tickets []model.Ticket
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Ticket{})
	if filter.IssuedTo != nil {
		db = db.Where("issued_to = ?", *filter.IssuedTo)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		db = db.Where("reason LIKE ?", "%"+filter.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("Items").
		Order("created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}
