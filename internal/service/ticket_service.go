package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fs25hub/internal/apperr"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"
	"fs25hub/internal/repository"
	ws "fs25hub/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type IssueTicketRequest struct {
	UserID     string          `json:"user_id" binding:"required,uuid"`
	VehicleID  string          `json:"vehicle_id" binding:"omitempty,uuid"`
	Reason     string          `json:"reason" binding:"required,max=200"`
	Notes      string          `json:"notes" binding:"max=1000"`
	FineAmount decimal.Decimal `json:"fine_amount"`
}

type DisputeTicketRequest struct {
	DisputeReason string `json:"dispute_reason" binding:"required,min=10,max=2000"`
}

type ReviewDisputeRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

type AddTicketItemRequest struct {
	MaterialName string          `json:"material_name" binding:"required,max=100"`
	Quantity     int             `json:"quantity" binding:"required,gt=0"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// TicketService drives the DOT ticket lifecycle: issue, pay, dispute and
// dispute review. Transitions that touch the ledger run inside one
// transaction unit with the status change.
type TicketService interface {
	Issue(ctx context.Context, actor policy.Actor, req IssueTicketRequest) (*model.Ticket, error)
	Pay(ctx context.Context, actor policy.Actor, ticketID uuid.UUID) (*model.Ticket, error)
	Dispute(ctx context.Context, actor policy.Actor, ticketID uuid.UUID, req DisputeTicketRequest) (*model.Ticket, error)
	ReviewDispute(ctx context.Context, actor policy.Actor, ticketID uuid.UUID, approve bool, req ReviewDisputeRequest) (*model.Ticket, error)
	AddItem(ctx context.Context, actor policy.Actor, ticketID uuid.UUID, req AddTicketItemRequest) (*model.Ticket, error)
	Get(ctx context.Context, actor policy.Actor, ticketID uuid.UUID) (*model.Ticket, error)
	ListMine(ctx context.Context, actor policy.Actor) ([]model.Ticket, error)
	ListAll(ctx context.Context, actor policy.Actor, filter repository.TicketFilter) ([]model.Ticket, int64, error)
}

type ticketService struct {
	ticketRepo  repository.TicketRepository
	userRepo    repository.UserRepository
	vehicleRepo repository.VehicleRepository
	auditRepo   repository.AuditRepository
	ledger      LedgerService
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewTicketService(
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	vehicleRepo repository.VehicleRepository,
	auditRepo repository.AuditRepository,
	ledger LedgerService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) TicketService {
	return &ticketService{
		ticketRepo:  ticketRepo,
		userRepo:    userRepo,
		vehicleRepo: vehicleRepo,
		auditRepo:   auditRepo,
		ledger:      ledger,
		txManager:   txManager,
		hub:         hub,
	}
}

func (s *ticketService) Issue(ctx context.Context, actor policy.Actor, req IssueTicketRequest) (*model.Ticket, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionIssueTicket) {
		return nil, apperr.Unauthorizedf("only DOT staff can issue tickets")
	}
	if req.FineAmount.IsNegative() {
		return nil, apperr.Validationf("fine amount cannot be negative")
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, apperr.Validationf("invalid user id")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validationf("user with ID %s not found", req.UserID)
		}
		return nil, fmt.Errorf("failed to load target user: %w", err)
	}

	var vehicleID *uuid.UUID
	if req.VehicleID != "" {
		vid, err := uuid.Parse(req.VehicleID)
		if err != nil {
			return nil, apperr.Validationf("invalid vehicle id")
		}
		if _, err := s.vehicleRepo.FindByID(ctx, vid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validationf("vehicle with ID %s not found", req.VehicleID)
			}
			return nil, fmt.Errorf("failed to load vehicle: %w", err)
		}
		vehicleID = &vid
	}

	status := model.TicketStatusUnpaid
	if req.FineAmount.IsZero() {
		status = model.TicketStatusWarning
	}

	issuerID := actor.ID
	ticket := &model.Ticket{
		Reason:        req.Reason,
		Notes:         req.Notes,
		FineAmount:    req.FineAmount,
		Status:        status,
		DisputeStatus: model.DisputeStatusNone,
		IssuedTo:      targetID,
		IssuerID:      &issuerID,
		VehicleID:     vehicleID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ticketRepo.Create(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"issued_to":   targetID.String(),
			"reason":      req.Reason,
			"fine_amount": req.FineAmount,
			"status":      status,
		})
		audit := &model.AuditLog{
			UserID:     &issuerID,
			Action:     model.ActionIssueTicket,
			EntityID:   ticket.ID.String(),
			EntityName: req.Reason,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish("ticket_issued", map[string]interface{}{
		"ticket_id":   ticket.ID.String(),
		"issued_to":   targetID.String(),
		"reason":      req.Reason,
		"fine_amount": req.FineAmount,
		"status":      status,
	})

	return ticket, nil
}

func (s *ticketService) Pay(ctx context.Context, actor policy.Actor, ticketID uuid.UUID) (*model.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.canPay(actor, ticket) {
		return nil, apperr.Unauthorizedf("not authorized to pay this ticket")
	}
	if ticket.Status != model.TicketStatusUnpaid {
		return nil, apperr.InvalidStatef("ticket is %s, only unpaid tickets can be paid", ticket.Status)
	}

	// A zero fine should have been a warning; resolve it without touching
	// the ledger.
	if !ticket.FineAmount.IsPositive() {
		ticket.Status = model.TicketStatusResolved
		if err := s.ticketRepo.Update(ctx, ticket); err != nil {
			return nil, fmt.Errorf("failed to resolve zero-fine ticket: %w", err)
		}
		return ticket, nil
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		desc := fmt.Sprintf("DOT ticket fine: %s (Ticket: %s)", ticket.Reason, ticket.ID)
		if err := s.ledger.Debit(txCtx, actor.ID, ticket.FineAmount, model.TxTypeTicketPaymentDebit, desc, nil); err != nil {
			return err
		}

		ticket.Status = model.TicketStatusPaid
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}

		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionPayTicket,
			EntityID:   ticket.ID.String(),
			EntityName: ticket.Reason,
			Details:    fmt.Sprintf(`{"fine_amount": "%s"}`, ticket.FineAmount.StringFixed(2)),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

func (s *ticketService) Dispute(ctx context.Context, actor policy.Actor, ticketID uuid.UUID, req DisputeTicketRequest) (*model.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.canPay(actor, ticket) && !policy.IsPrivileged(actor.Role, policy.ActionReviewDispute) {
		return nil, apperr.Unauthorizedf("not authorized to dispute this ticket")
	}

	// A ticket already under dispute may be re-disputed; the new reason
	// replaces the old one.
	if ticket.Status != model.TicketStatusUnpaid && ticket.Status != model.TicketStatusDisputed {
		return nil, apperr.InvalidStatef("a %s ticket cannot be disputed", ticket.Status)
	}

	ticket.DisputeReason = req.DisputeReason
	ticket.Status = model.TicketStatusDisputed
	ticket.DisputeStatus = model.DisputeStatusPending

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}

		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionDisputeTicket,
			EntityID:   ticket.ID.String(),
			EntityName: ticket.Reason,
			Details:    fmt.Sprintf(`{"dispute_reason": %q}`, req.DisputeReason),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

func (s *ticketService) ReviewDispute(ctx context.Context, actor policy.Actor, ticketID uuid.UUID, approve bool, req ReviewDisputeRequest) (*model.Ticket, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionReviewDispute) {
		return nil, apperr.Unauthorizedf("only DOT staff can review disputes")
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.DisputeStatus != model.DisputeStatusPending {
		return nil, apperr.InvalidStatef("no dispute is pending review on this ticket")
	}

	reviewer, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer: %w", err)
	}

	decision := "rejected"
	if approve {
		decision = "approved"
		ticket.DisputeStatus = model.DisputeStatusApproved
		ticket.FineAmount = decimal.Zero
		ticket.Status = model.TicketStatusResolved
	} else {
		ticket.DisputeStatus = model.DisputeStatusRejected
		if ticket.FineAmount.IsPositive() {
			ticket.Status = model.TicketStatusUnpaid
		} else {
			ticket.Status = model.TicketStatusResolved
		}
	}

	// Review notes are appended, never overwritten.
	auditNote := fmt.Sprintf("[Dispute %s by %s at %s]", decision, reviewer.Username, time.Now().UTC().Format(time.RFC3339))
	if req.Note != "" {
		auditNote += " " + req.Note
	}
	if ticket.Notes != "" {
		ticket.Notes += "\n"
	}
	ticket.Notes += auditNote

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}

		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionReviewDispute,
			EntityID:   ticket.ID.String(),
			EntityName: ticket.Reason,
			Details:    fmt.Sprintf(`{"decision": %q, "note": %q}`, decision, req.Note),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

func (s *ticketService) AddItem(ctx context.Context, actor policy.Actor, ticketID uuid.UUID, req AddTicketItemRequest) (*model.Ticket, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionAddTicketItem) {
		return nil, apperr.Unauthorizedf("only DOT staff can add ticket items")
	}
	if req.PricePerUnit.IsNegative() {
		return nil, apperr.Validationf("price per unit cannot be negative")
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	item := &model.TicketItem{
		TicketID:     ticket.ID,
		MaterialName: req.MaterialName,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ticketRepo.CreateItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to create ticket item: %w", err)
		}
		// Save touches updated_at so the ticket reflects the mutation.
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to touch ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadTicket(ctx, ticketID)
}

func (s *ticketService) Get(ctx context.Context, actor policy.Actor, ticketID uuid.UUID) (*model.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.canPay(actor, ticket) && !policy.IsPrivileged(actor.Role, policy.ActionViewAllTickets) {
		return nil, apperr.Unauthorizedf("not authorized to view this ticket")
	}
	return ticket, nil
}

func (s *ticketService) ListMine(ctx context.Context, actor policy.Actor) ([]model.Ticket, error) {
	return s.ticketRepo.ListByRecipient(ctx, actor.ID)
}

func (s *ticketService) ListAll(ctx context.Context, actor policy.Actor, filter repository.TicketFilter) ([]model.Ticket, int64, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionViewAllTickets) {
		return nil, 0, apperr.Unauthorizedf("access denied")
	}
	return s.ticketRepo.List(ctx, filter)
}

// canPay reports whether the actor is the ticket recipient or owns the
// ticket's linked vehicle.
func (s *ticketService) canPay(actor policy.Actor, ticket *model.Ticket) bool {
	if ticket.IssuedTo == actor.ID {
		return true
	}
	return ticket.Vehicle != nil && ticket.Vehicle.OwnerID == actor.ID
}

func (s *ticketService) loadTicket(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("ticket %s", id)
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	return ticket, nil
}
