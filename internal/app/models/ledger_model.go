package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionTypeIn          TransactionType = "IN"
	TransactionTypeOut         TransactionType = "OUT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeAdjustment  TransactionType = "ADJUSTMENT"
)

// KnownTransactionType reports whether t is one of the ledger's transaction
// kinds.
func KnownTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeIn, TransactionTypeOut, TransactionTypeTransferIn,
		TransactionTypeTransferOut, TransactionTypeAdjustment:
		return true
	}
	return false
}

// ValidateQuantitySign enforces the sign convention per transaction type:
// IN and TRANSFER_IN are positive, OUT and TRANSFER_OUT are negative,
// ADJUSTMENT takes either sign. Zero is never a valid quantity.
func ValidateQuantitySign(t TransactionType, quantity int64) error {
	if quantity == 0 {
		return errors.New("quantity must not be zero")
	}
	switch t {
	case TransactionTypeIn, TransactionTypeTransferIn:
		if quantity < 0 {
			return errors.New("quantity must be positive for " + string(t))
		}
	case TransactionTypeOut, TransactionTypeTransferOut:
		if quantity > 0 {
			return errors.New("quantity must be negative for " + string(t))
		}
	case TransactionTypeAdjustment:
		// either sign
	default:
		return errors.New("unknown transaction type " + string(t))
	}
	return nil
}

var ErrLedgerImmutable = errors.New("ledger entries are immutable")

// LedgerEntry is one immutable row of the stock ledger. Current stock is the
// signed sum of entries per (item, location); corrections are made by
// appending ADJUSTMENT entries, never by editing history.
//
// TransactionID is the idempotency token. The two legs of a TRANSFER share
// one token, so uniqueness is enforced on (transaction_id, transaction_type).
type LedgerEntry struct {
	ID              uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	TransactionID   string           `json:"transaction_id" gorm:"type:varchar(64);not null;uniqueIndex:uq_ledger_txid_type,priority:1"`
	TransactionType TransactionType  `json:"transaction_type" gorm:"type:varchar(20);not null;uniqueIndex:uq_ledger_txid_type,priority:2;index"`
	ItemID          uuid.UUID        `json:"item_id" gorm:"type:uuid;not null;index:idx_ledger_item_location_date,priority:1"`
	LocationID      uuid.UUID        `json:"location_id" gorm:"type:uuid;not null;index:idx_ledger_item_location_date,priority:2"`
	Quantity        int64            `json:"quantity" gorm:"not null"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty" gorm:"type:decimal(15,2)"`
	FromLocationID  *uuid.UUID       `json:"from_location_id,omitempty" gorm:"type:uuid"`
	ToLocationID    *uuid.UUID       `json:"to_location_id,omitempty" gorm:"type:uuid"`
	ReferenceNo     *string          `json:"reference_no,omitempty" gorm:"type:varchar(100)"`
	Notes           *string          `json:"notes,omitempty" gorm:"type:varchar(500)"`
	RequestID       string           `json:"request_id" gorm:"type:varchar(64);not null;index"`
	CreatedBy       uuid.UUID        `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt       time.Time        `json:"created_at" gorm:"autoCreateTime;index:idx_ledger_item_location_date,priority:3"`
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate fails closed: no code path may rewrite ledger history.
func (e *LedgerEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

// BeforeDelete fails closed: ledger history is never removed.
func (e *LedgerEntry) BeforeDelete(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

type StockInRequest struct {
	ItemID        string           `json:"item_id" validate:"required,uuid"`
	LocationID    string           `json:"location_id" validate:"required,uuid"`
	Quantity      int64            `json:"quantity" validate:"required,gt=0"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceNo   *string          `json:"reference_no,omitempty" validate:"omitempty,max=100"`
	Notes         *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
	TransactionID *string          `json:"transaction_id,omitempty" validate:"omitempty,max=64"`
}

type StockOutRequest struct {
	ItemID        string  `json:"item_id" validate:"required,uuid"`
	LocationID    string  `json:"location_id" validate:"required,uuid"`
	Quantity      int64   `json:"quantity" validate:"required,gt=0"`
	ReferenceNo   *string `json:"reference_no,omitempty" validate:"omitempty,max=100"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=500"`
	TransactionID *string `json:"transaction_id,omitempty" validate:"omitempty,max=64"`
}

type StockTransferRequest struct {
	ItemID         string  `json:"item_id" validate:"required,uuid"`
	FromLocationID string  `json:"from_location_id" validate:"required,uuid"`
	ToLocationID   string  `json:"to_location_id" validate:"required,uuid"`
	Quantity       int64   `json:"quantity" validate:"required,gt=0"`
	ReferenceNo    *string `json:"reference_no,omitempty" validate:"omitempty,max=100"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=500"`
	TransactionID  *string `json:"transaction_id,omitempty" validate:"omitempty,max=64"`
}

// StockAdjustmentRequest requires a reason: adjustments rewrite derived stock
// and are the only correction mechanism for past mistakes.
type StockAdjustmentRequest struct {
	ItemID        string  `json:"item_id" validate:"required,uuid"`
	LocationID    string  `json:"location_id" validate:"required,uuid"`
	Quantity      int64   `json:"quantity" validate:"required"`
	Reason        string  `json:"reason" validate:"required,max=500"`
	ReferenceNo   *string `json:"reference_no,omitempty" validate:"omitempty,max=100"`
	TransactionID *string `json:"transaction_id,omitempty" validate:"omitempty,max=64"`
}

// TransferResponse carries both legs of a completed transfer.
type TransferResponse struct {
	TransferOut *LedgerEntry `json:"transfer_out"`
	TransferIn  *LedgerEntry `json:"transfer_in"`
}

type LedgerFilter struct {
	ItemID     *uuid.UUID
	LocationID *uuid.UUID
	Type       *TransactionType
	From       *time.Time
	To         *time.Time
}
