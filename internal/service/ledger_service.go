package service

import (
	"context"
	"errors"
	"fmt"

	"fs25hub/internal/apperr"
	"fs25hub/internal/model"
	"fs25hub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService moves money. Every credit or debit changes the account
// balance and appends exactly one Transaction row; the two effects share
// whatever transaction unit the calling workflow opened via the
// TransactionManager, so they commit or roll back together.
type LedgerService interface {
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType, description string, relatedOrderID *uuid.UUID) error
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType, description string, relatedOrderID *uuid.UUID) error
	Statement(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Transaction, int64, error)
}

type ledgerService struct {
	userRepo repository.UserRepository
	txRepo   repository.TransactionRepository
}

func NewLedgerService(userRepo repository.UserRepository, txRepo repository.TransactionRepository) LedgerService {
	return &ledgerService{userRepo: userRepo, txRepo: txRepo}
}

func (s *ledgerService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType, description string, relatedOrderID *uuid.UUID) error {
	if !amount.IsPositive() {
		return apperr.Validationf("credit amount must be positive")
	}

	applied, err := s.userRepo.AddToBalance(ctx, userID, amount, nil)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}
	if !applied {
		return apperr.NotFoundf("user %s", userID)
	}

	entry := &model.Transaction{
		UserID:                userID,
		Type:                  txType,
		Amount:                amount,
		Description:           description,
		RelatedProductOrderID: relatedOrderID,
	}
	if err := s.txRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record credit transaction: %w", err)
	}
	return nil
}

func (s *ledgerService) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType, description string, relatedOrderID *uuid.UUID) error {
	if !amount.IsPositive() {
		return apperr.Validationf("debit amount must be positive")
	}

	// The balance >= amount guard on the UPDATE is what keeps two concurrent
	// debits from driving the balance negative.
	applied, err := s.userRepo.AddToBalance(ctx, userID, amount.Neg(), &amount)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}
	if !applied {
		user, lookupErr := s.userRepo.GetByID(ctx, userID)
		if lookupErr != nil {
			if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("user %s", userID)
			}
			return fmt.Errorf("failed to load user after debit guard: %w", lookupErr)
		}
		return apperr.InsufficientFundsf("you need $%s, but you only have $%s",
			amount.StringFixed(2), user.Balance.StringFixed(2))
	}

	entry := &model.Transaction{
		UserID:                userID,
		Type:                  txType,
		Amount:                amount.Neg(),
		Description:           description,
		RelatedProductOrderID: relatedOrderID,
	}
	if err := s.txRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record debit transaction: %w", err)
	}
	return nil
}

func (s *ledgerService) Statement(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Transaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.txRepo.ListByUser(ctx, userID, page, limit)
}
