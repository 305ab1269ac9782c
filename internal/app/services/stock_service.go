package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/smebase/inventory-core/internal/app/errors"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/policy"
	"github.com/smebase/inventory-core/internal/infrastructures"
	"gorm.io/gorm"
)

const stockCacheTTL = 5 * time.Minute

// StockService derives current stock by folding the ledger. The redis cache
// is a read-through optimization only: every accepted append invalidates the
// touched keys, so a cached value never outlives one append cycle.
type StockService struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewStockService(db *gorm.DB, redis *redis.Client) *StockService {
	return &StockService{
		db:    db,
		redis: redis,
	}
}

// CurrentStock returns the signed sum of ledger entries for one
// (item, location) key. Negative values are legitimate results.
func (s *StockService) CurrentStock(rctx *models.RequestContext, itemID, locationID string) (int64, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpStockRead) {
		return 0, errors.NewForbiddenError("Stock read requires VIEWER role or higher")
	}

	item, err := parseUUID(itemID, "item ID")
	if err != nil {
		return 0, err
	}
	location, err := parseUUID(locationID, "location ID")
	if err != nil {
		return 0, err
	}

	if qty, ok := s.cacheGet(item, location); ok {
		return qty, nil
	}

	qty, err := sumLedger(s.db, item, location)
	if err != nil {
		return 0, errors.NewInternalServerError(err, "Failed to compute current stock")
	}

	s.cacheSet(item, location, qty)
	return qty, nil
}

// Snapshot returns derived stock for every (item, location) key matching the
// filter, with item and location metadata joined in.
func (s *StockService) Snapshot(rctx *models.RequestContext, filter *models.StockFilter) ([]models.StockLevel, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpStockRead) {
		return nil, errors.NewForbiddenError("Stock read requires VIEWER role or higher")
	}

	query := s.db.Model(&models.LedgerEntry{}).
		Select("ledger_entries.item_id, items.sku AS item_sku, items.name AS item_name, " +
			"ledger_entries.location_id, locations.code AS location_code, " +
			"SUM(ledger_entries.quantity) AS quantity").
		Joins("JOIN items ON items.id = ledger_entries.item_id").
		Joins("JOIN locations ON locations.id = ledger_entries.location_id").
		Group("ledger_entries.item_id, items.sku, items.name, ledger_entries.location_id, locations.code")

	if filter != nil {
		if filter.ItemID != nil {
			query = query.Where("ledger_entries.item_id = ?", *filter.ItemID)
		}
		if filter.LocationID != nil {
			query = query.Where("ledger_entries.location_id = ?", *filter.LocationID)
		}
	}

	var levels []models.StockLevel
	if err := query.Order("items.sku, locations.code").Scan(&levels).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to compute stock snapshot")
	}

	return levels, nil
}

// Invalidate drops the cached projection for the given keys. Called by the
// ledger immediately after a commit that changed them; a redis error only
// shortens the cache's usefulness, never its correctness, so it is logged
// and swallowed.
func (s *StockService) Invalidate(itemID uuid.UUID, locationIDs ...uuid.UUID) {
	if s.redis == nil || len(locationIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(locationIDs))
	for _, locationID := range locationIDs {
		keys = append(keys, stockCacheKey(itemID, locationID))
	}
	if err := s.redis.Del(context.Background(), keys...).Err(); err != nil {
		infrastructures.GetLogger().Warnf("stock cache invalidation failed: %v", err)
	}
}

func (s *StockService) cacheGet(itemID, locationID uuid.UUID) (int64, bool) {
	if s.redis == nil {
		return 0, false
	}
	val, err := s.redis.Get(context.Background(), stockCacheKey(itemID, locationID)).Result()
	if err != nil {
		return 0, false
	}
	qty, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return qty, true
}

func (s *StockService) cacheSet(itemID, locationID uuid.UUID, qty int64) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(context.Background(), stockCacheKey(itemID, locationID),
		strconv.FormatInt(qty, 10), stockCacheTTL).Err(); err != nil {
		infrastructures.GetLogger().Warnf("stock cache write failed: %v", err)
	}
}

func stockCacheKey(itemID, locationID uuid.UUID) string {
	return fmt.Sprintf("stock:%s:%s", itemID, locationID)
}

// sumLedger is the ground-truth fold: SUM(quantity) over the ledger for one
// key. Runs against whatever handle it is given, including an open
// transaction.
func sumLedger(tx *gorm.DB, itemID, locationID uuid.UUID) (int64, error) {
	var qty int64
	err := tx.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		Scan(&qty).Error
	return qty, err
}
