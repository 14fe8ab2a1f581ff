package model

import (
	"time"
)

// TransactionType enumerates the kinds of inventory ledger events.
type TransactionType string

const (
	Restocking  TransactionType = "Restocking"
	Depleting   TransactionType = "Depleting"
	ItemDeleted TransactionType = "ItemDeleted"
	UnitChange  TransactionType = "UnitChange"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case Restocking, Depleting, ItemDeleted, UnitChange:
		return true
	}
	return false
}

// InventoryTransaction is an immutable inventory ledger event. The full
// per-tenant transaction list is the source of truth for inventory state;
// current quantities are derived by replaying it, never read back from
// the transactions themselves.
//
// Lists are stored newest-first in every backend.
type InventoryTransaction struct {
	ID              string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID        uint            `json:"tenant_id" gorm:"index;not null"`
	ItemType        string          `json:"itemType" gorm:"type:varchar(100);index;not null"`
	Quantity        float64         `json:"quantity"`
	TransactionType TransactionType `json:"transactionType" gorm:"type:varchar(20);not null"`
	Unit            string          `json:"unit" gorm:"type:varchar(20)"`
	Date            time.Time       `json:"date" gorm:"column:transaction_date;index"`
	User            string          `json:"user" gorm:"column:user_id;type:varchar(100)"`
	Notes           string          `json:"notes" gorm:"type:text"`
	Price           float64         `json:"price,omitempty"`
	TotalCost       float64         `json:"totalCost,omitempty" gorm:"column:total_cost"`
	CreatedAt       time.Time       `json:"created_at" gorm:"index"`
}

// TableName maps the canonical transaction struct onto the inventory schema.
func (InventoryTransaction) TableName() string { return "transaction_history" }

// InventoryItem is the derived per-item stock state. It is a materialized
// view of the transaction log, recomputed on read in the primary path.
type InventoryItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// CurrentInventory is the relational backend's materialized snapshot row.
// It is refreshed after writes and never consulted as truth by the reducer.
type CurrentInventory struct {
	TenantID  uint    `json:"tenant_id" gorm:"primaryKey;autoIncrement:false"`
	ItemType  string  `json:"item_type" gorm:"type:varchar(100);primaryKey"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit" gorm:"type:varchar(20)"`
	AvgPrice  float64 `json:"avg_price"`
	TotalCost float64 `json:"total_cost"`
}

func (CurrentInventory) TableName() string { return "current_inventory" }
