// Package ledger derives current inventory state from the append-only
// transaction log. The log is the single source of truth; quantities are
// never read back from a stored snapshot in the primary path.
package ledger

import (
	"sort"

	"github.com/greenridge/farmops/internal/model"
)

// itemState is the per-item accumulator while replaying the log.
type itemState struct {
	quantity float64
	unit     string
}

// Derive folds a transaction list into current per-item inventory.
//
// Lists are stored newest-first in every backend, so the replay walks the
// slice backwards to apply events oldest-first. Quantities clamp at zero:
// a Depleting event can never drive an item negative, and an item first
// seen in a Depleting event starts (and stays) at zero. The unit is
// whatever the most recent Restocking or UnitChange event carried; an item
// that never saw a unit-bearing event reports an empty unit.
//
// When includeZero is false, items whose derived quantity is zero are
// dropped from the result. The input is never mutated and the result is
// sorted by item name.
func Derive(transactions []model.InventoryTransaction, includeZero bool) []model.InventoryItem {
	states := make(map[string]*itemState)

	for i := len(transactions) - 1; i >= 0; i-- {
		txn := transactions[i]
		state, ok := states[txn.ItemType]
		if !ok {
			state = &itemState{}
			states[txn.ItemType] = state
		}

		switch txn.TransactionType {
		case model.Restocking:
			state.quantity += txn.Quantity
			if txn.Unit != "" {
				state.unit = txn.Unit
			}
		case model.Depleting:
			state.quantity -= txn.Quantity
			if state.quantity < 0 {
				state.quantity = 0
			}
		case model.ItemDeleted:
			state.quantity = 0
		case model.UnitChange:
			state.unit = txn.Unit
		}
	}

	items := make([]model.InventoryItem, 0, len(states))
	for name, state := range states {
		if !includeZero && state.quantity == 0 {
			continue
		}
		items = append(items, model.InventoryItem{
			Name:     name,
			Quantity: state.quantity,
			Unit:     state.unit,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// DeriveItem replays the log for a single item. Returns false when the
// item never appears in the log.
func DeriveItem(transactions []model.InventoryTransaction, name string) (model.InventoryItem, bool) {
	for _, item := range Derive(transactions, true) {
		if item.Name == name {
			return item, true
		}
	}
	return model.InventoryItem{}, false
}
