package services

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/smebase/inventory-core/internal/app/errors"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/infrastructures"
)

func TestStockIn_AppendsAndProjects(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	entry, err := s.ledger.StockIn(requestCtx(models.RoleStaff), &models.StockInRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   100,
	})
	if err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}
	if entry.TransactionType != models.TransactionTypeIn || entry.Quantity != 100 {
		t.Errorf("entry = %s %d, want IN 100", entry.TransactionType, entry.Quantity)
	}
	if entry.TransactionID == "" {
		t.Error("server must assign a transaction id when the client omits one")
	}

	if qty := currentStock(t, s, item.ID, location.ID); qty != 100 {
		t.Errorf("current stock = %d, want 100", qty)
	}
}

func TestStockOut_StoresNegativeQuantity(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	mustStockIn(t, s, item, location, 40)

	entry, err := s.ledger.StockOut(requestCtx(models.RoleStaff), &models.StockOutRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   15,
	})
	if err != nil {
		t.Fatalf("StockOut failed: %v", err)
	}
	if entry.Quantity != -15 {
		t.Errorf("quantity = %d, want -15", entry.Quantity)
	}
	if qty := currentStock(t, s, item.ID, location.ID); qty != 25 {
		t.Errorf("current stock = %d, want 25", qty)
	}
}

func TestStockIn_IdempotentReplay(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	txID := "client-retry-001"
	req := &models.StockInRequest{
		ItemID:        item.ID.String(),
		LocationID:    location.ID.String(),
		Quantity:      10,
		TransactionID: &txID,
	}

	first, err := s.ledger.StockIn(requestCtx(models.RoleStaff), req)
	if err != nil {
		t.Fatalf("first StockIn failed: %v", err)
	}
	second, err := s.ledger.StockIn(requestCtx(models.RoleStaff), req)
	if err != nil {
		t.Fatalf("replay StockIn failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("replay returned a different entry: %s vs %s", first.ID, second.ID)
	}
	if count := countLedgerEntries(t, s); count != 1 {
		t.Errorf("ledger entries = %d, want 1", count)
	}
	if qty := currentStock(t, s, item.ID, location.ID); qty != 10 {
		t.Errorf("current stock = %d, want 10 (replay must not double-apply)", qty)
	}
}

func TestTransfer_IdempotentReplayReturnsBothLegs(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	from := seedLocation(t, s)
	to := seedLocation(t, s)

	mustStockIn(t, s, item, from, 50)

	txID := "transfer-retry-001"
	req := &models.StockTransferRequest{
		ItemID:         item.ID.String(),
		FromLocationID: from.ID.String(),
		ToLocationID:   to.ID.String(),
		Quantity:       20,
		TransactionID:  &txID,
	}

	first, err := s.ledger.Transfer(requestCtx(models.RoleStaff), req)
	if err != nil {
		t.Fatalf("first Transfer failed: %v", err)
	}
	second, err := s.ledger.Transfer(requestCtx(models.RoleStaff), req)
	if err != nil {
		t.Fatalf("replay Transfer failed: %v", err)
	}

	if first.TransferOut.ID != second.TransferOut.ID || first.TransferIn.ID != second.TransferIn.ID {
		t.Error("replay returned different legs")
	}
	// One IN seed plus exactly two transfer legs.
	if count := countLedgerEntries(t, s); count != 3 {
		t.Errorf("ledger entries = %d, want 3", count)
	}
}

func TestTransactionID_ReuseAcrossTypesConflicts(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	txID := "shared-token-001"
	if _, err := s.ledger.StockIn(requestCtx(models.RoleStaff), &models.StockInRequest{
		ItemID:        item.ID.String(),
		LocationID:    location.ID.String(),
		Quantity:      10,
		TransactionID: &txID,
	}); err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}

	_, err := s.ledger.StockOut(requestCtx(models.RoleStaff), &models.StockOutRequest{
		ItemID:        item.ID.String(),
		LocationID:    location.ID.String(),
		Quantity:      10,
		TransactionID: &txID,
	})
	wantAppErrorCode(t, err, apperrors.CodeDuplicateTransaction)

	other := seedLocation(t, s)
	_, err = s.ledger.Transfer(requestCtx(models.RoleStaff), &models.StockTransferRequest{
		ItemID:         item.ID.String(),
		FromLocationID: location.ID.String(),
		ToLocationID:   other.ID.String(),
		Quantity:       5,
		TransactionID:  &txID,
	})
	wantAppErrorCode(t, err, apperrors.CodeDuplicateTransaction)
}

func TestSubmitTransaction_RoleMatrix(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	_, err := s.ledger.StockIn(requestCtx(models.RoleViewer), &models.StockInRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   5,
	})
	wantAppErrorCode(t, err, apperrors.CodeForbidden)

	_, err = s.ledger.Adjust(requestCtx(models.RoleStaff), &models.StockAdjustmentRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   -1,
		Reason:     "not allowed for staff",
	})
	wantAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestAdjust_AuditsBeforeAndAfterQuantity(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	mustStockIn(t, s, item, location, 10)

	rctx := requestCtx(models.RoleAdmin)
	entry, err := s.ledger.Adjust(rctx, &models.StockAdjustmentRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   -5,
		Reason:     "cycle count correction",
	})
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if entry.Notes == nil || *entry.Notes != "cycle count correction" {
		t.Error("adjustment reason must be recorded on the entry")
	}

	if qty := currentStock(t, s, item.ID, location.ID); qty != 5 {
		t.Errorf("current stock = %d, want 5", qty)
	}

	var record models.AuditRecord
	if err := s.db.Where("entity_type = ? AND action = ?", "stock_ledger", models.AuditActionAdjustment).
		First(&record).Error; err != nil {
		t.Fatalf("adjustment audit record missing: %v", err)
	}
	if record.RequestID != rctx.RequestID {
		t.Errorf("audit request id = %s, want %s", record.RequestID, rctx.RequestID)
	}

	var oldValues, newValues map[string]any
	if err := json.Unmarshal([]byte(*record.OldValues), &oldValues); err != nil {
		t.Fatalf("old values not JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(*record.NewValues), &newValues); err != nil {
		t.Fatalf("new values not JSON: %v", err)
	}
	if oldValues["quantity"] != float64(10) {
		t.Errorf("old quantity = %v, want 10", oldValues["quantity"])
	}
	if newValues["quantity"] != float64(5) {
		t.Errorf("new quantity = %v, want 5", newValues["quantity"])
	}
}

func TestStaffTransactionsAreNotAudited(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	mustStockIn(t, s, item, location, 30)
	if _, err := s.ledger.StockOut(requestCtx(models.RoleStaff), &models.StockOutRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   10,
	}); err != nil {
		t.Fatalf("StockOut failed: %v", err)
	}

	var count int64
	if err := s.db.Model(&models.AuditRecord{}).
		Where("entity_type = ?", "stock_ledger").
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count audit records: %v", err)
	}
	if count != 0 {
		t.Errorf("IN/OUT must not produce audit records, got %d", count)
	}
}

func TestTransfer_ProducesBothLegs(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	from := seedLocation(t, s)
	to := seedLocation(t, s)

	mustStockIn(t, s, item, from, 100)

	transfer, err := s.ledger.Transfer(requestCtx(models.RoleStaff), &models.StockTransferRequest{
		ItemID:         item.ID.String(),
		FromLocationID: from.ID.String(),
		ToLocationID:   to.ID.String(),
		Quantity:       30,
	})
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	if transfer.TransferOut.Quantity != -30 || transfer.TransferIn.Quantity != 30 {
		t.Errorf("legs = %d/%d, want -30/30", transfer.TransferOut.Quantity, transfer.TransferIn.Quantity)
	}
	if transfer.TransferOut.TransactionID != transfer.TransferIn.TransactionID {
		t.Error("transfer legs must share one transaction id")
	}
	if qty := currentStock(t, s, item.ID, from.ID); qty != 70 {
		t.Errorf("source stock = %d, want 70", qty)
	}
	if qty := currentStock(t, s, item.ID, to.ID); qty != 30 {
		t.Errorf("destination stock = %d, want 30", qty)
	}
}

func TestTransfer_SameLocationRejected(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	_, err := s.ledger.Transfer(requestCtx(models.RoleStaff), &models.StockTransferRequest{
		ItemID:         item.ID.String(),
		FromLocationID: location.ID.String(),
		ToLocationID:   location.ID.String(),
		Quantity:       5,
	})
	wantAppErrorCode(t, err, apperrors.CodeValidation)
}

// A transfer against an invalid destination must leave no trace of either leg.
func TestTransfer_Atomicity(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	from := seedLocation(t, s)
	to := seedLocation(t, s)

	mustStockIn(t, s, item, from, 50)
	before := countLedgerEntries(t, s)

	if err := s.location.SoftDeleteLocation(requestCtx(models.RoleAdmin), to.ID.String()); err != nil {
		t.Fatalf("failed to delete destination: %v", err)
	}

	_, err := s.ledger.Transfer(requestCtx(models.RoleStaff), &models.StockTransferRequest{
		ItemID:         item.ID.String(),
		FromLocationID: from.ID.String(),
		ToLocationID:   to.ID.String(),
		Quantity:       10,
	})
	wantAppErrorCode(t, err, apperrors.CodeEntityDeleted)

	if after := countLedgerEntries(t, s); after != before {
		t.Errorf("ledger grew by %d entries on a failed transfer", after-before)
	}
	if qty := currentStock(t, s, item.ID, from.ID); qty != 50 {
		t.Errorf("source stock = %d, want 50 (no partial leg)", qty)
	}
}

func TestSoftDeletedItem_RejectedForNewTransactions(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	mustStockIn(t, s, item, location, 20)

	if err := s.item.SoftDeleteItem(requestCtx(models.RoleAdmin), item.ID.String()); err != nil {
		t.Fatalf("failed to delete item: %v", err)
	}

	_, err := s.ledger.StockIn(requestCtx(models.RoleStaff), &models.StockInRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   5,
	})
	wantAppErrorCode(t, err, apperrors.CodeEntityDeleted)

	// History still resolves the deleted item.
	itemID := item.ID
	history, err := s.ledger.History(requestCtx(models.RoleViewer), &models.LedgerFilter{ItemID: &itemID}, &models.PaginationRequest{})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if history.TotalItems != 1 {
		t.Errorf("history entries = %d, want 1", history.TotalItems)
	}
}

func TestAdjust_OnDeletedItem_Configurable(t *testing.T) {
	strict := newTestServices(t)
	item := seedItem(t, strict)
	location := seedLocation(t, strict)
	mustStockIn(t, strict, item, location, 10)
	if err := strict.item.SoftDeleteItem(requestCtx(models.RoleAdmin), item.ID.String()); err != nil {
		t.Fatalf("failed to delete item: %v", err)
	}

	// Default policy: no adjustments against deleted items.
	_, err := strict.ledger.Adjust(requestCtx(models.RoleAdmin), &models.StockAdjustmentRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   -10,
		Reason:     "write-off after delete",
	})
	wantAppErrorCode(t, err, apperrors.CodeEntityDeleted)

	// Opt-in policy: historical corrections allowed.
	relaxed := newTestServicesWithConfig(t, &infrastructures.AppConfig{
		ALLOW_NEGATIVE_STOCK:             true,
		ALLOW_ADJUSTMENT_ON_DELETED_ITEM: true,
	})
	item2 := seedItem(t, relaxed)
	location2 := seedLocation(t, relaxed)
	mustStockIn(t, relaxed, item2, location2, 10)
	if err := relaxed.item.SoftDeleteItem(requestCtx(models.RoleAdmin), item2.ID.String()); err != nil {
		t.Fatalf("failed to delete item: %v", err)
	}

	if _, err := relaxed.ledger.Adjust(requestCtx(models.RoleAdmin), &models.StockAdjustmentRequest{
		ItemID:     item2.ID.String(),
		LocationID: location2.ID.String(),
		Quantity:   -10,
		Reason:     "write-off after delete",
	}); err != nil {
		t.Fatalf("Adjust on deleted item should pass with the flag set: %v", err)
	}
}

func TestNegativeStockPolicy(t *testing.T) {
	permissive := newTestServices(t)
	item := seedItem(t, permissive)
	location := seedLocation(t, permissive)

	// Default: negative stock is a legitimate state.
	if _, err := permissive.ledger.StockOut(requestCtx(models.RoleStaff), &models.StockOutRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   8,
	}); err != nil {
		t.Fatalf("StockOut into negative failed: %v", err)
	}
	if qty := currentStock(t, permissive, item.ID, location.ID); qty != -8 {
		t.Errorf("current stock = %d, want -8", qty)
	}

	// Strict mode rejects the append that would go below zero.
	strict := newTestServicesWithConfig(t, &infrastructures.AppConfig{ALLOW_NEGATIVE_STOCK: false})
	item2 := seedItem(t, strict)
	location2 := seedLocation(t, strict)
	mustStockIn(t, strict, item2, location2, 5)

	_, err := strict.ledger.StockOut(requestCtx(models.RoleStaff), &models.StockOutRequest{
		ItemID:     item2.ID.String(),
		LocationID: location2.ID.String(),
		Quantity:   6,
	})
	wantAppErrorCode(t, err, apperrors.CodeValidation)
	if qty := currentStock(t, strict, item2.ID, location2.ID); qty != 5 {
		t.Errorf("current stock = %d, want 5 after rejected OUT", qty)
	}
}

// Derivability: whatever sequence of transactions is accepted, the projector
// equals an independent fold of the same sequence.
func TestCurrentStock_DerivabilityProperty(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	locations := []*models.Location{seedLocation(t, s), seedLocation(t, s), seedLocation(t, s)}

	rng := rand.New(rand.NewSource(42))
	expected := make(map[uuid.UUID]int64)
	staff := requestCtx(models.RoleStaff)
	admin := requestCtx(models.RoleAdmin)

	for i := 0; i < 80; i++ {
		qty := int64(rng.Intn(50) + 1)
		loc := locations[rng.Intn(len(locations))]

		switch rng.Intn(4) {
		case 0:
			if _, err := s.ledger.StockIn(staff, &models.StockInRequest{
				ItemID: item.ID.String(), LocationID: loc.ID.String(), Quantity: qty,
			}); err != nil {
				t.Fatalf("op %d IN failed: %v", i, err)
			}
			expected[loc.ID] += qty
		case 1:
			if _, err := s.ledger.StockOut(staff, &models.StockOutRequest{
				ItemID: item.ID.String(), LocationID: loc.ID.String(), Quantity: qty,
			}); err != nil {
				t.Fatalf("op %d OUT failed: %v", i, err)
			}
			expected[loc.ID] -= qty
		case 2:
			dest := locations[rng.Intn(len(locations))]
			if dest.ID == loc.ID {
				continue
			}
			if _, err := s.ledger.Transfer(staff, &models.StockTransferRequest{
				ItemID: item.ID.String(), FromLocationID: loc.ID.String(),
				ToLocationID: dest.ID.String(), Quantity: qty,
			}); err != nil {
				t.Fatalf("op %d TRANSFER failed: %v", i, err)
			}
			expected[loc.ID] -= qty
			expected[dest.ID] += qty
		case 3:
			delta := qty
			if rng.Intn(2) == 0 {
				delta = -delta
			}
			if _, err := s.ledger.Adjust(admin, &models.StockAdjustmentRequest{
				ItemID: item.ID.String(), LocationID: loc.ID.String(),
				Quantity: delta, Reason: "property test",
			}); err != nil {
				t.Fatalf("op %d ADJUSTMENT failed: %v", i, err)
			}
			expected[loc.ID] += delta
		}
	}

	for _, loc := range locations {
		if qty := currentStock(t, s, item.ID, loc.ID); qty != expected[loc.ID] {
			t.Errorf("location %s: projected %d, fold says %d", loc.Code, qty, expected[loc.ID])
		}
	}
}

// The end-to-end scenario: create item, IN 100 at A, TRANSFER 30 A->B,
// VIEWER reads A=70 B=30, ADMIN adjusts -5 at B, B=25 with one correlated
// audit record.
func TestEndToEndScenario(t *testing.T) {
	s := newTestServices(t)

	admin := requestCtx(models.RoleAdmin)
	staff := requestCtx(models.RoleStaff)

	item, err := s.item.CreateItem(admin, &models.ItemCreateRequest{SKU: "SKU-001", Name: "Widget"})
	if err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	locA, err := s.location.CreateLocation(admin, &models.LocationCreateRequest{Code: "A", Name: "Warehouse A"})
	if err != nil {
		t.Fatalf("create location A failed: %v", err)
	}
	locB, err := s.location.CreateLocation(admin, &models.LocationCreateRequest{Code: "B", Name: "Warehouse B"})
	if err != nil {
		t.Fatalf("create location B failed: %v", err)
	}

	if _, err := s.ledger.StockIn(staff, &models.StockInRequest{
		ItemID: item.ID.String(), LocationID: locA.ID.String(), Quantity: 100,
	}); err != nil {
		t.Fatalf("stock in failed: %v", err)
	}

	if _, err := s.ledger.Transfer(staff, &models.StockTransferRequest{
		ItemID: item.ID.String(), FromLocationID: locA.ID.String(),
		ToLocationID: locB.ID.String(), Quantity: 30,
	}); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if qty := currentStock(t, s, item.ID, locA.ID); qty != 70 {
		t.Errorf("A = %d, want 70", qty)
	}
	if qty := currentStock(t, s, item.ID, locB.ID); qty != 30 {
		t.Errorf("B = %d, want 30", qty)
	}

	adjustCtx := requestCtx(models.RoleAdmin)
	if _, err := s.ledger.Adjust(adjustCtx, &models.StockAdjustmentRequest{
		ItemID: item.ID.String(), LocationID: locB.ID.String(),
		Quantity: -5, Reason: "damaged in transit",
	}); err != nil {
		t.Fatalf("adjustment failed: %v", err)
	}

	if qty := currentStock(t, s, item.ID, locB.ID); qty != 25 {
		t.Errorf("B = %d, want 25", qty)
	}

	var records []models.AuditRecord
	if err := s.db.Where("request_id = ?", adjustCtx.RequestID).Find(&records).Error; err != nil {
		t.Fatalf("failed to load audit records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("adjustment audit records = %d, want 1", len(records))
	}
	if records[0].Action != models.AuditActionAdjustment {
		t.Errorf("action = %s, want ADJUSTMENT", records[0].Action)
	}
}

func TestLedgerEntriesRejectUpdatesAndDeletes(t *testing.T) {
	s := newTestServices(t)
	item := seedItem(t, s)
	location := seedLocation(t, s)

	entry, err := s.ledger.StockIn(requestCtx(models.RoleStaff), &models.StockInRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   10,
	})
	if err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}

	if err := s.db.Model(entry).Update("quantity", 999).Error; err == nil {
		t.Error("updating a ledger entry must fail")
	}
	if err := s.db.Delete(entry).Error; err == nil {
		t.Error("deleting a ledger entry must fail")
	}

	if qty := currentStock(t, s, item.ID, location.ID); qty != 10 {
		t.Errorf("current stock = %d, want 10 (history unchanged)", qty)
	}
}

func mustStockIn(t *testing.T, s *testServices, item *models.Item, location *models.Location, qty int64) {
	t.Helper()
	if _, err := s.ledger.StockIn(requestCtx(models.RoleStaff), &models.StockInRequest{
		ItemID:     item.ID.String(),
		LocationID: location.ID.String(),
		Quantity:   qty,
	}); err != nil {
		t.Fatalf("seed stock in failed: %v", err)
	}
}
