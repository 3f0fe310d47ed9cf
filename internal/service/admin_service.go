package service

import (
	"context"
	"errors"
	"fmt"

	"fs25hub/internal/apperr"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"
	"fs25hub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type PromoteUserRequest struct {
	Role string `json:"role" binding:"required"`
}

type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"max=2000"`
}

type AssignCompanyRequest struct {
	CompanyID string `json:"company_id" binding:"omitempty,uuid"`
}

// AdminService covers the supervisor/admin surface: user listing, role
// promotion, company management and the audit trail.
type AdminService interface {
	ListUsers(ctx context.Context, actor policy.Actor, page, limit int) ([]model.User, int64, error)
	Promote(ctx context.Context, actor policy.Actor, userID uuid.UUID, req PromoteUserRequest) (*model.User, error)
	CreateCompany(ctx context.Context, actor policy.Actor, req CreateCompanyRequest) (*model.Company, error)
	ListCompanies(ctx context.Context, actor policy.Actor) ([]model.Company, error)
	AssignCompany(ctx context.Context, actor policy.Actor, userID uuid.UUID, req AssignCompanyRequest) (*model.User, error)
	AuditTrail(ctx context.Context, actor policy.Actor, page, limit int) ([]model.AuditLog, int64, error)
}

type adminService struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewAdminService(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) AdminService {
	return &adminService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func (s *adminService) ListUsers(ctx context.Context, actor policy.Actor, page, limit int) ([]model.User, int64, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionListUsers) {
		return nil, 0, apperr.Unauthorizedf("access denied")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.userRepo.List(ctx, page, limit)
}

func (s *adminService) Promote(ctx context.Context, actor policy.Actor, userID uuid.UUID, req PromoteUserRequest) (*model.User, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionPromoteUser) {
		return nil, apperr.Unauthorizedf("only admins can change user roles")
	}

	newRole := policy.Role(req.Role)
	if !newRole.Valid() {
		return nil, apperr.Validationf("unknown role %q", req.Role)
	}
	// Admins cannot demote themselves; that path locks everyone out.
	if userID == actor.ID && newRole != policy.RoleAdmin {
		return nil, apperr.Validationf("you cannot change your own role")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.Role
	user.Role = newRole

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update user role: %w", err)
		}
		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionPromoteUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
			Details:    fmt.Sprintf(`{"from": %q, "to": %q}`, previous, newRole),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *adminService) CreateCompany(ctx context.Context, actor policy.Actor, req CreateCompanyRequest) (*model.Company, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionManageCompany) {
		return nil, apperr.Unauthorizedf("only admins can create companies")
	}

	if _, err := s.companyRepo.FindByName(ctx, req.Name); err == nil {
		return nil, apperr.Conflictf("a company named %q already exists", req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check company name: %w", err)
	}

	company := &model.Company{
		Name:        req.Name,
		Description: req.Description,
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.companyRepo.Create(txCtx, company); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionCreateCompany,
			EntityID:   company.ID.String(),
			EntityName: company.Name,
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (s *adminService) ListCompanies(ctx context.Context, actor policy.Actor) ([]model.Company, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionManageCompany) {
		return nil, apperr.Unauthorizedf("access denied")
	}
	return s.companyRepo.List(ctx)
}

// AssignCompany sets or clears a user's company membership.
func (s *adminService) AssignCompany(ctx context.Context, actor policy.Actor, userID uuid.UUID, req AssignCompanyRequest) (*model.User, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionManageCompany) {
		return nil, apperr.Unauthorizedf("only admins can assign companies")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.CompanyID == "" {
		user.CompanyID = nil
	} else {
		cid, err := uuid.Parse(req.CompanyID)
		if err != nil {
			return nil, apperr.Validationf("invalid company id")
		}
		if _, err := s.companyRepo.FindByID(ctx, cid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validationf("company with ID %s not found", req.CompanyID)
			}
			return nil, fmt.Errorf("failed to load company: %w", err)
		}
		user.CompanyID = &cid
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user company: %w", err)
	}
	return user, nil
}

func (s *adminService) AuditTrail(ctx context.Context, actor policy.Actor, page, limit int) ([]model.AuditLog, int64, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionViewAuditLog) {
		return nil, 0, apperr.Unauthorizedf("access denied")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return s.auditRepo.List(ctx, page, limit)
}

func (s *adminService) loadUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user %s", id)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
