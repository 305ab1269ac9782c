package models

import "github.com/google/uuid"

// StockLevel is the derived quantity for one (item, location) key. It is a
// projection of the ledger, never a source of truth.
type StockLevel struct {
	ItemID       uuid.UUID `json:"item_id"`
	ItemSKU      string    `json:"item_sku"`
	ItemName     string    `json:"item_name"`
	LocationID   uuid.UUID `json:"location_id"`
	LocationCode string    `json:"location_code"`
	Quantity     int64     `json:"quantity"`
}

type StockFilter struct {
	ItemID     *uuid.UUID
	LocationID *uuid.UUID
}
