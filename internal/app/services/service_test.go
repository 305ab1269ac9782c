package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	apperrors "github.com/smebase/inventory-core/internal/app/errors"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/infrastructures"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Item{},
		&models.Location{},
		&models.LedgerEntry{},
		&models.AuditRecord{},
	); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

// testServices bundles the engine wired against one test database.
type testServices struct {
	db       *gorm.DB
	config   *infrastructures.AppConfig
	audit    *AuditService
	item     *ItemService
	location *LocationService
	ledger   *LedgerService
	stock    *StockService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	return newTestServicesWithConfig(t, &infrastructures.AppConfig{
		ALLOW_NEGATIVE_STOCK: true,
	})
}

func newTestServicesWithConfig(t *testing.T, config *infrastructures.AppConfig) *testServices {
	t.Helper()

	db := newTestDB(t)
	validator := infrastructures.NewValidator()
	audit := NewAuditService(db)
	stock := NewStockService(db, nil)

	return &testServices{
		db:       db,
		config:   config,
		audit:    audit,
		item:     NewItemService(db, validator, audit),
		location: NewLocationService(db, validator, audit),
		ledger:   NewLedgerService(db, validator, audit, stock, config),
		stock:    stock,
	}
}

func requestCtx(role models.Role) *models.RequestContext {
	return &models.RequestContext{
		RequestID: uuid.NewString(),
		Principal: models.Principal{
			UserID: uuid.New(),
			Email:  fmt.Sprintf("%s@example.com", role),
			Role:   role,
		},
		Method:    "POST",
		Endpoint:  "/inventory/test",
		IPAddress: "127.0.0.1",
		UserAgent: "go-test",
	}
}

var seedCounter atomic.Int64

func seedItem(t *testing.T, s *testServices) *models.Item {
	t.Helper()
	n := seedCounter.Add(1)
	item, err := s.item.CreateItem(requestCtx(models.RoleAdmin), &models.ItemCreateRequest{
		SKU:  fmt.Sprintf("SKU-%03d", n),
		Name: fmt.Sprintf("Test Item %d", n),
	})
	if err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}
	return item
}

func seedLocation(t *testing.T, s *testServices) *models.Location {
	t.Helper()
	n := seedCounter.Add(1)
	location, err := s.location.CreateLocation(requestCtx(models.RoleAdmin), &models.LocationCreateRequest{
		Code: fmt.Sprintf("LOC-%03d", n),
		Name: fmt.Sprintf("Test Location %d", n),
	})
	if err != nil {
		t.Fatalf("failed to seed location: %v", err)
	}
	return location
}

func currentStock(t *testing.T, s *testServices, itemID, locationID uuid.UUID) int64 {
	t.Helper()
	qty, err := s.stock.CurrentStock(requestCtx(models.RoleViewer), itemID.String(), locationID.String())
	if err != nil {
		t.Fatalf("failed to read current stock: %v", err)
	}
	return qty
}

func countLedgerEntries(t *testing.T, s *testServices) int64 {
	t.Helper()
	var count int64
	if err := s.db.Model(&models.LedgerEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count ledger entries: %v", err)
	}
	return count
}

func wantAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected *AppError with code %s, got %T: %v", code, err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected error code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

// failingRecorder simulates a broken audit store.
type failingRecorder struct {
	calls int
}

func (r *failingRecorder) Record(*models.RequestContext, models.AuditAction, models.EntityRef, any, any) error {
	r.calls++
	return fmt.Errorf("audit store unavailable")
}
