package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	apperrors "github.com/smebase/inventory-core/internal/app/errors"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/policy"
	"github.com/smebase/inventory-core/internal/infrastructures"
	"gorm.io/gorm"
)

const entityTypeStockLedger = "stock_ledger"

// LedgerService owns the append path of the stock ledger. Every append runs
// the full validation chain synchronously inside one database transaction:
// the ledger never contains a structurally invalid, unauthorized or
// double-applied entry, and a TRANSFER commits both legs or neither.
type LedgerService struct {
	db        *gorm.DB
	validator *infrastructures.Validator
	audit     AuditRecorder
	stock     *StockService
	config    *infrastructures.AppConfig
}

func NewLedgerService(db *gorm.DB, validator *infrastructures.Validator, audit AuditRecorder, stock *StockService, config *infrastructures.AppConfig) *LedgerService {
	return &LedgerService{
		db:        db,
		validator: validator,
		audit:     audit,
		stock:     stock,
		config:    config,
	}
}

func (s *LedgerService) StockIn(rctx *models.RequestContext, req *models.StockInRequest) (*models.LedgerEntry, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpStockIn) {
		return nil, apperrors.NewForbiddenError("Stock IN requires STAFF role or higher")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	itemID, err := parseUUID(req.ItemID, "item ID")
	if err != nil {
		return nil, err
	}
	locationID, err := parseUUID(req.LocationID, "location ID")
	if err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		TransactionID:   ensureTransactionID(req.TransactionID),
		TransactionType: models.TransactionTypeIn,
		ItemID:          itemID,
		LocationID:      locationID,
		Quantity:        req.Quantity,
		UnitCost:        req.UnitCost,
		ReferenceNo:     req.ReferenceNo,
		Notes:           req.Notes,
		RequestID:       rctx.RequestID,
		CreatedBy:       rctx.Principal.UserID,
	}

	return s.appendSingle(rctx, entry, false)
}

func (s *LedgerService) StockOut(rctx *models.RequestContext, req *models.StockOutRequest) (*models.LedgerEntry, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpStockOut) {
		return nil, apperrors.NewForbiddenError("Stock OUT requires STAFF role or higher")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	itemID, err := parseUUID(req.ItemID, "item ID")
	if err != nil {
		return nil, err
	}
	locationID, err := parseUUID(req.LocationID, "location ID")
	if err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		TransactionID:   ensureTransactionID(req.TransactionID),
		TransactionType: models.TransactionTypeOut,
		ItemID:          itemID,
		LocationID:      locationID,
		Quantity:        -req.Quantity,
		ReferenceNo:     req.ReferenceNo,
		Notes:           req.Notes,
		RequestID:       rctx.RequestID,
		CreatedBy:       rctx.Principal.UserID,
	}

	return s.appendSingle(rctx, entry, false)
}

// Adjust appends a signed correction entry. ADMIN+ only; the one transaction
// type that is always audited, with before/after quantity snapshots.
func (s *LedgerService) Adjust(rctx *models.RequestContext, req *models.StockAdjustmentRequest) (*models.LedgerEntry, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpStockAdjust) {
		return nil, apperrors.NewForbiddenError("Stock ADJUSTMENT requires ADMIN role or higher")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		return nil, apperrors.NewValidationError("Adjustment quantity must not be zero")
	}

	itemID, err := parseUUID(req.ItemID, "item ID")
	if err != nil {
		return nil, err
	}
	locationID, err := parseUUID(req.LocationID, "location ID")
	if err != nil {
		return nil, err
	}

	reason := req.Reason
	entry := &models.LedgerEntry{
		TransactionID:   ensureTransactionID(req.TransactionID),
		TransactionType: models.TransactionTypeAdjustment,
		ItemID:          itemID,
		LocationID:      locationID,
		Quantity:        req.Quantity,
		ReferenceNo:     req.ReferenceNo,
		Notes:           &reason,
		RequestID:       rctx.RequestID,
		CreatedBy:       rctx.Principal.UserID,
	}

	return s.appendSingle(rctx, entry, s.config.ALLOW_ADJUSTMENT_ON_DELETED_ITEM)
}

// Transfer appends the two linked legs of a stock move. Both legs share one
// transaction id and commit atomically.
func (s *LedgerService) Transfer(rctx *models.RequestContext, req *models.StockTransferRequest) (*models.TransferResponse, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpStockTransfer) {
		return nil, apperrors.NewForbiddenError("Stock TRANSFER requires STAFF role or higher")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	itemID, err := parseUUID(req.ItemID, "item ID")
	if err != nil {
		return nil, err
	}
	fromID, err := parseUUID(req.FromLocationID, "from location ID")
	if err != nil {
		return nil, err
	}
	toID, err := parseUUID(req.ToLocationID, "to location ID")
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, apperrors.NewValidationError("From and to locations must be different")
	}

	transactionID := ensureTransactionID(req.TransactionID)
	var outLeg, inLeg *models.LedgerEntry
	replay := false

	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findByTransactionID(tx, transactionID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			outLeg, inLeg = splitTransferLegs(existing)
			if outLeg == nil || inLeg == nil {
				return apperrors.NewDuplicateTransactionError("Transaction ID already used by a non-transfer entry")
			}
			replay = true
			return nil
		}

		if _, err := s.resolveItem(tx, itemID, false); err != nil {
			return err
		}
		if err := s.resolveLocation(tx, fromID); err != nil {
			return err
		}
		if err := s.resolveLocation(tx, toID); err != nil {
			return err
		}
		if err := s.guardNegativeStock(tx, itemID, fromID, -req.Quantity); err != nil {
			return err
		}

		outLeg = &models.LedgerEntry{
			TransactionID:   transactionID,
			TransactionType: models.TransactionTypeTransferOut,
			ItemID:          itemID,
			LocationID:      fromID,
			Quantity:        -req.Quantity,
			FromLocationID:  &fromID,
			ToLocationID:    &toID,
			ReferenceNo:     req.ReferenceNo,
			Notes:           req.Notes,
			RequestID:       rctx.RequestID,
			CreatedBy:       rctx.Principal.UserID,
		}
		inLeg = &models.LedgerEntry{
			TransactionID:   transactionID,
			TransactionType: models.TransactionTypeTransferIn,
			ItemID:          itemID,
			LocationID:      toID,
			Quantity:        req.Quantity,
			FromLocationID:  &fromID,
			ToLocationID:    &toID,
			ReferenceNo:     req.ReferenceNo,
			Notes:           req.Notes,
			RequestID:       rctx.RequestID,
			CreatedBy:       rctx.Principal.UserID,
		}

		for _, leg := range []*models.LedgerEntry{outLeg, inLeg} {
			if err := models.ValidateQuantitySign(leg.TransactionType, leg.Quantity); err != nil {
				return apperrors.NewValidationError(err.Error())
			}
			if err := tx.Create(leg).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errDuplicateRace
				}
				return apperrors.NewInternalServerError(err, "Failed to append transfer leg")
			}
		}
		return nil
	})

	if errors.Is(err, errDuplicateRace) {
		// Lost the race against a concurrent retry: the original won, serve it.
		return s.replayTransfer(transactionID)
	}
	if err != nil {
		return nil, asAppError(err)
	}

	if replay {
		infrastructures.DuplicateTransactionReplays.Inc()
	} else {
		infrastructures.LedgerAppends.WithLabelValues(string(models.TransactionTypeTransferOut)).Inc()
		infrastructures.LedgerAppends.WithLabelValues(string(models.TransactionTypeTransferIn)).Inc()
		s.stock.Invalidate(itemID, fromID, toID)
	}

	return &models.TransferResponse{TransferOut: outLeg, TransferIn: inLeg}, nil
}

// History returns ledger entries newest first. Soft-deleted master records
// stay resolvable here: history is read against the ledger alone.
func (s *LedgerService) History(rctx *models.RequestContext, filter *models.LedgerFilter, pagination *models.PaginationRequest) (*models.Pagination[[]models.LedgerEntry], error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpLedgerRead) {
		return nil, apperrors.NewForbiddenError("Ledger read requires VIEWER role or higher")
	}

	pagination.Normalize()

	query := s.db.Model(&models.LedgerEntry{})
	if filter != nil {
		if filter.ItemID != nil {
			query = query.Where("item_id = ?", *filter.ItemID)
		}
		if filter.LocationID != nil {
			query = query.Where("location_id = ?", *filter.LocationID)
		}
		if filter.Type != nil {
			query = query.Where("transaction_type = ?", *filter.Type)
		}
		if filter.From != nil {
			query = query.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("created_at <= ?", *filter.To)
		}
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.NewInternalServerError(err, "Failed to count ledger entries")
	}

	var entries []models.LedgerEntry
	if err := query.Order("created_at DESC").
		Limit(pagination.Limit).
		Offset(pagination.Offset()).
		Find(&entries).Error; err != nil {
		return nil, apperrors.NewInternalServerError(err, "Failed to get ledger entries")
	}

	return models.NewPagination(pagination, totalItems, entries), nil
}

// errDuplicateRace marks a unique-index conflict from a concurrent append of
// the same transaction id; the caller answers with the winner's entry.
var errDuplicateRace = errors.New("transaction id raced")

// appendSingle runs the validation chain and appends one entry inside a
// transaction. A previously seen transaction id short-circuits into an
// idempotent replay of the original entry. allowDeletedItem covers the
// historical-correction policy for adjustments.
func (s *LedgerService) appendSingle(rctx *models.RequestContext, entry *models.LedgerEntry, allowDeletedItem bool) (*models.LedgerEntry, error) {
	if err := models.ValidateQuantitySign(entry.TransactionType, entry.Quantity); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var result *models.LedgerEntry
	var item *models.Item
	replay := false
	oldQty := int64(0)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findByTransactionID(tx, entry.TransactionID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			if len(existing) > 1 || existing[0].TransactionType != entry.TransactionType {
				return apperrors.NewDuplicateTransactionError("Transaction ID already used by a different transaction")
			}
			result = &existing[0]
			replay = true
			return nil
		}

		item, err = s.resolveItem(tx, entry.ItemID, allowDeletedItem)
		if err != nil {
			return err
		}
		if err := s.resolveLocation(tx, entry.LocationID); err != nil {
			return err
		}
		if entry.Quantity < 0 {
			if err := s.guardNegativeStock(tx, entry.ItemID, entry.LocationID, entry.Quantity); err != nil {
				return err
			}
		}

		if entry.TransactionType == models.TransactionTypeAdjustment {
			oldQty, err = sumLedger(tx, entry.ItemID, entry.LocationID)
			if err != nil {
				return apperrors.NewInternalServerError(err, "Failed to compute current stock")
			}
		}

		if err := tx.Create(entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateRace
			}
			return apperrors.NewInternalServerError(err, "Failed to append ledger entry")
		}
		result = entry
		return nil
	})

	if errors.Is(err, errDuplicateRace) {
		return s.replaySingle(entry.TransactionID, entry.TransactionType)
	}
	if err != nil {
		return nil, asAppError(err)
	}

	if replay {
		infrastructures.DuplicateTransactionReplays.Inc()
		return result, nil
	}

	infrastructures.LedgerAppends.WithLabelValues(string(entry.TransactionType)).Inc()
	s.stock.Invalidate(entry.ItemID, entry.LocationID)

	if entry.TransactionType == models.TransactionTypeAdjustment {
		recordAudit(s.audit, rctx, models.AuditActionAdjustment,
			models.EntityRef{Type: entityTypeStockLedger, ID: result.ID.String(), Identifier: item.SKU},
			map[string]any{"quantity": oldQty},
			map[string]any{"quantity": oldQty + entry.Quantity})
	}

	return result, nil
}

// replaySingle serves the original entry after a lost idempotency race.
func (s *LedgerService) replaySingle(transactionID string, transactionType models.TransactionType) (*models.LedgerEntry, error) {
	existing, err := findByTransactionID(s.db, transactionID)
	if err != nil {
		return nil, asAppError(err)
	}
	for i := range existing {
		if existing[i].TransactionType == transactionType {
			infrastructures.DuplicateTransactionReplays.Inc()
			return &existing[i], nil
		}
	}
	return nil, apperrors.NewInternalServerError(
		fmt.Errorf("transaction %s vanished after duplicate conflict", transactionID),
		"Failed to resolve duplicate transaction")
}

func (s *LedgerService) replayTransfer(transactionID string) (*models.TransferResponse, error) {
	existing, err := findByTransactionID(s.db, transactionID)
	if err != nil {
		return nil, asAppError(err)
	}
	outLeg, inLeg := splitTransferLegs(existing)
	if outLeg == nil || inLeg == nil {
		return nil, apperrors.NewDuplicateTransactionError("Transaction ID already used by a non-transfer entry")
	}
	infrastructures.DuplicateTransactionReplays.Inc()
	return &models.TransferResponse{TransferOut: outLeg, TransferIn: inLeg}, nil
}

// resolveItem validates the item reference for a new append: it must exist
// and, unless allowDeleted, not be soft-deleted.
func (s *LedgerService) resolveItem(tx *gorm.DB, id uuid.UUID, allowDeleted bool) (*models.Item, error) {
	var item models.Item
	err := tx.Where("id = ?", id).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("Item not found")
		}
		return nil, apperrors.NewInternalServerError(err, "Failed to get item")
	}
	if item.IsDeleted && !allowDeleted {
		return nil, apperrors.NewEntityDeletedError("Item has been deleted")
	}
	return &item, nil
}

func (s *LedgerService) resolveLocation(tx *gorm.DB, id uuid.UUID) error {
	var location models.Location
	err := tx.Where("id = ?", id).First(&location).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.NewNotFoundError("Location not found")
		}
		return apperrors.NewInternalServerError(err, "Failed to get location")
	}
	if location.IsDeleted {
		return apperrors.NewEntityDeletedError("Location has been deleted")
	}
	return nil
}

// guardNegativeStock rejects an append that would take the key below zero
// when the strict negative-stock policy is configured.
func (s *LedgerService) guardNegativeStock(tx *gorm.DB, itemID, locationID uuid.UUID, delta int64) error {
	if s.config.ALLOW_NEGATIVE_STOCK {
		return nil
	}
	current, err := sumLedger(tx, itemID, locationID)
	if err != nil {
		return apperrors.NewInternalServerError(err, "Failed to compute current stock")
	}
	if current+delta < 0 {
		return apperrors.NewValidationError(
			fmt.Sprintf("Insufficient stock: %d on hand, change of %d not allowed", current, delta))
	}
	return nil
}

func findByTransactionID(tx *gorm.DB, transactionID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := tx.Where("transaction_id = ?", transactionID).
		Order("created_at").Find(&entries).Error; err != nil {
		return nil, apperrors.NewInternalServerError(err, "Failed to check transaction ID")
	}
	return entries, nil
}

func splitTransferLegs(entries []models.LedgerEntry) (outLeg, inLeg *models.LedgerEntry) {
	for i := range entries {
		switch entries[i].TransactionType {
		case models.TransactionTypeTransferOut:
			outLeg = &entries[i]
		case models.TransactionTypeTransferIn:
			inLeg = &entries[i]
		}
	}
	return outLeg, inLeg
}

func ensureTransactionID(id *string) string {
	if id != nil && *id != "" {
		return *id
	}
	return uuid.NewString()
}

// asAppError keeps AppError taxonomy intact through gorm's transaction
// wrapper and wraps anything else as internal.
func asAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.NewInternalServerError(err, "Ledger operation failed")
}
