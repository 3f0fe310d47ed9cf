package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"fs25hub/internal/apperr"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"
	"fs25hub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plates are stored uppercase; letters, digits, dashes and spaces only.
var plateRe = regexp.MustCompile(`^[A-Z0-9\- ]+$`)

// DTOs
type RegisterVehicleRequest struct {
	Plate string `json:"plate" binding:"required,max=20"`
	Make  string `json:"make" binding:"max=50"`
	Model string `json:"model" binding:"max=50"`
	Year  int    `json:"year" binding:"omitempty,gte=1900,lte=2100"`
	Color string `json:"color" binding:"max=30"`
}

type LogInspectionRequest struct {
	Passed bool   `json:"passed"`
	Notes  string `json:"notes" binding:"max=2000"`
}

type VehicleService interface {
	Register(ctx context.Context, actor policy.Actor, req RegisterVehicleRequest) (*model.Vehicle, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req RegisterVehicleRequest) (*model.Vehicle, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	ListMine(ctx context.Context, actor policy.Actor) ([]model.Vehicle, error)
	List(ctx context.Context, actor policy.Actor, page, limit int) ([]model.Vehicle, int64, error)
	LogInspection(ctx context.Context, actor policy.Actor, vehicleID uuid.UUID, req LogInspectionRequest) (*model.Inspection, error)
	ListInspections(ctx context.Context, actor policy.Actor, vehicleID uuid.UUID) ([]model.Inspection, error)
}

type vehicleService struct {
	vehicleRepo    repository.VehicleRepository
	inspectionRepo repository.InspectionRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
}

func NewVehicleService(
	vehicleRepo repository.VehicleRepository,
	inspectionRepo repository.InspectionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) VehicleService {
	return &vehicleService{
		vehicleRepo:    vehicleRepo,
		inspectionRepo: inspectionRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
	}
}

// normalizePlate uppercases and trims; validation happens on the result so
// "abc123" and "ABC123" are the same plate.
func normalizePlate(plate string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(plate))
	if p == "" {
		return "", apperr.Validationf("plate is required")
	}
	if !plateRe.MatchString(p) {
		return "", apperr.Validationf("plate may only contain letters, numbers, dashes and spaces")
	}
	return p, nil
}

func (s *vehicleService) Register(ctx context.Context, actor policy.Actor, req RegisterVehicleRequest) (*model.Vehicle, error) {
	plate, err := normalizePlate(req.Plate)
	if err != nil {
		return nil, err
	}

	if _, err := s.vehicleRepo.FindByPlate(ctx, plate); err == nil {
		return nil, apperr.Conflictf("a vehicle with plate %s is already registered", plate)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check plate: %w", err)
	}

	vehicle := &model.Vehicle{
		Plate:   plate,
		Make:    req.Make,
		Model:   req.Model,
		Year:    req.Year,
		Color:   req.Color,
		OwnerID: actor.ID,
	}
	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to register vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *vehicleService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req RegisterVehicleRequest) (*model.Vehicle, error) {
	vehicle, err := s.loadVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanManage(actor, vehicle.OwnerID, policy.ActionManageVehicles) {
		return nil, apperr.Unauthorizedf("you are not authorized to edit this vehicle")
	}

	plate, err := normalizePlate(req.Plate)
	if err != nil {
		return nil, err
	}

	// Keeping your own plate is not a collision.
	if existing, err := s.vehicleRepo.FindByPlate(ctx, plate); err == nil {
		if existing.ID != vehicle.ID {
			return nil, apperr.Conflictf("a vehicle with plate %s is already registered", plate)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check plate: %w", err)
	}

	vehicle.Plate = plate
	vehicle.Make = req.Make
	vehicle.Model = req.Model
	vehicle.Year = req.Year
	vehicle.Color = req.Color

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *vehicleService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	vehicle, err := s.loadVehicle(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanManage(actor, vehicle.OwnerID, policy.ActionManageVehicles) {
		return apperr.Unauthorizedf("you are not authorized to delete this vehicle")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vehicleRepo.Delete(txCtx, vehicle.ID); err != nil {
			return fmt.Errorf("failed to delete vehicle: %w", err)
		}
		audit := &model.AuditLog{
			UserID:     &actor.ID,
			Action:     model.ActionDeleteVehicle,
			EntityID:   vehicle.ID.String(),
			EntityName: vehicle.Plate,
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

func (s *vehicleService) Get(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	return s.loadVehicle(ctx, id)
}

func (s *vehicleService) ListMine(ctx context.Context, actor policy.Actor) ([]model.Vehicle, error) {
	return s.vehicleRepo.ListByOwner(ctx, actor.ID)
}

func (s *vehicleService) List(ctx context.Context, actor policy.Actor, page, limit int) ([]model.Vehicle, int64, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionManageVehicles) {
		return nil, 0, apperr.Unauthorizedf("access denied")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.vehicleRepo.List(ctx, page, limit)
}

func (s *vehicleService) LogInspection(ctx context.Context, actor policy.Actor, vehicleID uuid.UUID, req LogInspectionRequest) (*model.Inspection, error) {
	if !policy.IsPrivileged(actor.Role, policy.ActionLogInspection) {
		return nil, apperr.Unauthorizedf("only DOT staff can log inspections")
	}
	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	inspectorID := actor.ID
	inspection := &model.Inspection{
		VehicleID:   vehicle.ID,
		Passed:      req.Passed,
		Notes:       req.Notes,
		InspectorID: &inspectorID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inspectionRepo.Create(txCtx, inspection); err != nil {
			return fmt.Errorf("failed to log inspection: %w", err)
		}
		audit := &model.AuditLog{
			UserID:     &inspectorID,
			Action:     model.ActionLogInspection,
			EntityID:   vehicle.ID.String(),
			EntityName: vehicle.Plate,
			Details:    fmt.Sprintf(`{"passed": %t}`, req.Passed),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inspection, nil
}

func (s *vehicleService) ListInspections(ctx context.Context, actor policy.Actor, vehicleID uuid.UUID) ([]model.Inspection, error) {
	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManage(actor, vehicle.OwnerID, policy.ActionLogInspection) {
		return nil, apperr.Unauthorizedf("you are not authorized to view this vehicle's inspections")
	}
	return s.inspectionRepo.ListByVehicle(ctx, vehicle.ID)
}

func (s *vehicleService) loadVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("vehicle %s", id)
		}
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	return vehicle, nil
}
