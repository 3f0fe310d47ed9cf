package service

import (
	"context"
	"testing"

	"fs25hub/internal/database"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"
	"fs25hub/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db             *gorm.DB
	txManager      repository.TransactionManager
	userRepo       repository.UserRepository
	productRepo    repository.ProductRepository
	orderRepo      repository.OrderRepository
	txRepo         repository.TransactionRepository
	vehicleRepo    repository.VehicleRepository
	inspectionRepo repository.InspectionRepository
	ticketRepo     repository.TicketRepository
	permitRepo     repository.PermitRepository
	companyRepo    repository.CompanyRepository
	auditRepo      repository.AuditRepository
	ledger         LedgerService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	return &testEnv{
		db:             db,
		txManager:      repository.NewTransactionManager(db),
		userRepo:       userRepo,
		productRepo:    repository.NewProductRepository(db),
		orderRepo:      repository.NewOrderRepository(db),
		txRepo:         txRepo,
		vehicleRepo:    repository.NewVehicleRepository(db),
		inspectionRepo: repository.NewInspectionRepository(db),
		ticketRepo:     repository.NewTicketRepository(db),
		permitRepo:     repository.NewPermitRepository(db),
		companyRepo:    repository.NewCompanyRepository(db),
		auditRepo:      repository.NewAuditRepository(db),
		ledger:         NewLedgerService(userRepo, txRepo),
	}
}

func (e *testEnv) createUser(t *testing.T, username string, role policy.Role, balance string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		Balance:  decimal.RequireFromString(balance),
	}
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

func (e *testEnv) actorFor(user *model.User) policy.Actor {
	return policy.Actor{ID: user.ID, Role: user.Role}
}

func (e *testEnv) balanceOf(t *testing.T, user *model.User) decimal.Decimal {
	t.Helper()
	fresh, err := e.userRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	return fresh.Balance
}
