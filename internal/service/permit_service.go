package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fs25hub/internal/apperr"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"
	"fs25hub/internal/repository"
	ws "fs25hub/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type RequestPermitRequest struct {
	Type      string `json:"type" binding:"required,max=50"`
	VehicleID string `json:"vehicle_id" binding:"omitempty,uuid"`
	Notes     string `json:"notes" binding:"max=1000"`
}

type ReviewPermitRequest struct {
	Approve    bool       `json:"approve"`
	ExpiryDate *time.Time `json:"expiry_date"`
	Notes      string     `json:"notes" binding:"max=1000"`
}

// PermitService handles permit requests and their supervisor review.
type PermitService interface {
	Request(ctx context.Context, actor policy.Actor, req RequestPermitRequest) (*model.Permit, error)
	ListMine(ctx context.Context, actor policy.Actor) ([]model.Permit, error)
	ListPending(ctx context.Context, actor policy.Actor) ([]model.Permit, error)
	Review(ctx context.Context, actor policy.Actor, permitID uuid.UUID, req ReviewPermitRequest) (*model.Permit, error)
}

type permitService struct {
	permitRepo  repository.PermitRepository
	vehicleRepo repository.VehicleRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewPermitService(
	permitRepo repository.PermitRepository,
	vehicleRepo repository.VehicleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) PermitService {
	return &permitService{
		permitRepo:  permitRepo,
		vehicleRepo: vehicleRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

func (s *permitService) Request(ctx context.Context, actor policy.Actor, req RequestPermitRequest) (*model.Permit, error) {
	permit := &model.Permit{
		Type:    req.Type,
		Status:  model.PermitStatusPending,
		OwnerID: actor.ID,
		Notes:   req.Notes,
	}

	if req.VehicleID != "" {
		vid, err := uuid.Parse(req.VehicleID)
		if err != nil {
			return nil, apperr.Validationf("invalid vehicle id")
		}
		vehicle, err := s.vehicleRepo.FindByID(ctx, vid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validationf("vehicle with ID %s not found", req.VehicleID)
			}
			return nil, fmt.Errorf("failed to load vehicle: %w", err)
		}
		// Permits are requested for your own vehicles.
		if vehicle.OwnerID != actor.ID {
			return nil, apperr.Unauthorizedf("you can only request permits for your own vehicles")
		}
		permit.VehicleID = &vid
	}

	if err := s.permitRepo.Create(ctx, permit); err != nil {
		return nil, fmt.Errorf("failed to create permit request: %w", err)
	}
	return permit, nil
}

func (s *permitService) ListMine(ctx context.Context, actor policy.Actor) ([]model.Permit, error) {
	return s.permitRepo.ListByOwner(ctx, actor.ID)
}

func (s *permitService) ListPending(ctx context.Context, actor policy.Actor) ([]model.Permit, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionReviewPermit) {
		return nil, apperr.Unauthorizedf("access denied")
	}
	return s.permitRepo.ListByStatus(ctx, model.PermitStatusPending)
}

func (s *permitService) Review(ctx context.Context, actor policy.Actor, permitID uuid.UUID, req ReviewPermitRequest) (*model.Permit, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionReviewPermit) {
		return nil, apperr.Unauthorizedf("only supervisors can review permits")
	}

	permit, err := s.permitRepo.FindByID(ctx, permitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("permit %s", permitID)
		}
		return nil, fmt.Errorf("failed to load permit: %w", err)
	}
	if permit.Status != model.PermitStatusPending {
		return nil, apperr.InvalidStatef("permit has already been %s", permit.Status)
	}

	decision := model.PermitStatusRejected
	if req.Approve {
		decision = model.PermitStatusApproved
		now := time.Now().UTC()
		permit.IssueDate = &now
		permit.ExpiryDate = req.ExpiryDate
	}
	permit.Status = decision
	if req.Notes != "" {
		permit.Notes = req.Notes
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.permitRepo.Update(txCtx, permit); err != nil {
			return fmt.Errorf("failed to update permit: %w", err)
		}
		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionReviewPermit,
			EntityID:   permit.ID.String(),
			EntityName: permit.Type,
			Details:    fmt.Sprintf(`{"decision": %q}`, decision),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish("permit_reviewed", map[string]interface{}{
		"permit_id": permit.ID.String(),
		"owner_id":  permit.OwnerID.String(),
		"type":      permit.Type,
		"decision":  decision,
	})

	return permit, nil
}
