package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenridge/farmops/internal/model"
)

// txn builds a transaction for tests. Entries are appended newest-first
// by helpers below, matching how every backend stores the log.
func txn(item string, kind model.TransactionType, qty float64, unit string) model.InventoryTransaction {
	return model.InventoryTransaction{
		ItemType:        item,
		Quantity:        qty,
		TransactionType: kind,
		Unit:            unit,
		Date:            time.Now(),
	}
}

// log builds a newest-first list from oldest-first arguments, the order a
// human reads a history in.
func log(oldestFirst ...model.InventoryTransaction) []model.InventoryTransaction {
	out := make([]model.InventoryTransaction, len(oldestFirst))
	for i, t := range oldestFirst {
		out[len(oldestFirst)-1-i] = t
	}
	return out
}

func TestDerive_RestockAndDeplete(t *testing.T) {
	txns := log(
		txn("Urea", model.Restocking, 100, "kg"),
		txn("Urea", model.Depleting, 30, ""),
	)

	items := Derive(txns, true)
	require.Len(t, items, 1)
	assert.Equal(t, "Urea", items[0].Name)
	assert.Equal(t, 70.0, items[0].Quantity)
	assert.Equal(t, "kg", items[0].Unit)
}

func TestDerive_DepleteClampsAtZero(t *testing.T) {
	txns := log(
		txn("Urea", model.Restocking, 10, "kg"),
		txn("Urea", model.Depleting, 15, ""),
	)

	items := Derive(txns, true)
	require.Len(t, items, 1)
	assert.Equal(t, 0.0, items[0].Quantity, "quantity must clamp at zero, not go to -5")
}

func TestDerive_DepleteWithoutRestockStaysZero(t *testing.T) {
	txns := log(txn("Lime", model.Depleting, 5, ""))

	items := Derive(txns, true)
	require.Len(t, items, 1)
	assert.Equal(t, 0.0, items[0].Quantity)

	assert.Empty(t, Derive(txns, false), "zero-quantity items are filtered when includeZero is false")
}

func TestDerive_UnitChangeKeepsQuantity(t *testing.T) {
	txns := log(
		txn("Molasses", model.Restocking, 5, "kg"),
		txn("Molasses", model.UnitChange, 0, "L"),
	)

	items := Derive(txns, true)
	require.Len(t, items, 1)
	assert.Equal(t, 5.0, items[0].Quantity)
	assert.Equal(t, "L", items[0].Unit)
}

func TestDerive_ItemDeletedZeroesQuantity(t *testing.T) {
	txns := log(
		txn("Gypsum", model.Restocking, 40, "kg"),
		txn("Gypsum", model.ItemDeleted, 0, ""),
		txn("Gypsum", model.Restocking, 12, "kg"),
	)

	items := Derive(txns, true)
	require.Len(t, items, 1)
	assert.Equal(t, 12.0, items[0].Quantity, "restocking after deletion starts from zero")
}

func TestDerive_ReplayOrderIsOldestFirst(t *testing.T) {
	// Stored newest-first: the deplete happened after the restock. Replaying
	// in storage order would deplete an empty item and then restock to 100.
	txns := []model.InventoryTransaction{
		txn("Urea", model.Depleting, 30, ""),
		txn("Urea", model.Restocking, 100, "kg"),
	}

	items := Derive(txns, true)
	require.Len(t, items, 1)
	assert.Equal(t, 70.0, items[0].Quantity)
}

func TestDerive_PureAndIdempotent(t *testing.T) {
	txns := log(
		txn("Urea", model.Restocking, 100, "kg"),
		txn("Lime", model.Restocking, 20, "kg"),
		txn("Urea", model.Depleting, 45, ""),
	)
	snapshot := make([]model.InventoryTransaction, len(txns))
	copy(snapshot, txns)

	first := Derive(txns, true)
	second := Derive(txns, true)

	assert.Equal(t, first, second, "same input must yield identical output")
	assert.Equal(t, snapshot, txns, "input list must not be mutated")
}

func TestDerive_MultipleItemsSortedByName(t *testing.T) {
	txns := log(
		txn("Urea", model.Restocking, 100, "kg"),
		txn("Coffee Parchment", model.Restocking, 800, "kg"),
		txn("Lime", model.Restocking, 50, "kg"),
	)

	items := Derive(txns, true)
	require.Len(t, items, 3)
	assert.Equal(t, "Coffee Parchment", items[0].Name)
	assert.Equal(t, "Lime", items[1].Name)
	assert.Equal(t, "Urea", items[2].Name)
}

func TestDerive_EmptyLog(t *testing.T) {
	assert.Empty(t, Derive(nil, true))
	assert.Empty(t, Derive([]model.InventoryTransaction{}, false))
}

func TestDeriveItem(t *testing.T) {
	txns := log(
		txn("Urea", model.Restocking, 100, "kg"),
		txn("Urea", model.Depleting, 60, ""),
	)

	item, ok := DeriveItem(txns, "Urea")
	require.True(t, ok)
	assert.Equal(t, 40.0, item.Quantity)

	_, ok = DeriveItem(txns, "Lime")
	assert.False(t, ok)
}
