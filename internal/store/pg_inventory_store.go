package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/greenridge/farmops/internal/ledger"
	"github.com/greenridge/farmops/internal/model"
)

// PGInventoryStore implements the ledger port over the relational
// inventory schema: transaction_history rows plus a current_inventory
// snapshot refreshed after each write. The snapshot is a convenience for
// reporting queries; the transaction rows stay the source of truth.
type PGInventoryStore struct {
	db *gorm.DB
}

func NewPGInventoryStore(db *gorm.DB) *PGInventoryStore {
	return &PGInventoryStore{db: db}
}

func pgErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (s *PGInventoryStore) ListTransactions(ctx context.Context, tenantID uint) ([]model.InventoryTransaction, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}

	var txns []model.InventoryTransaction
	result := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Find(&txns)
	if result.Error != nil {
		return nil, pgErr(result.Error)
	}
	return txns, nil
}

func (s *PGInventoryStore) AppendTransaction(ctx context.Context, tenantID uint, txn model.InventoryTransaction) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	txn.TenantID = tenantID
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&txn); result.Error != nil {
			return pgErr(result.Error)
		}
		return s.refreshSnapshot(tx, tenantID)
	})
}

func (s *PGInventoryStore) UpdateTransaction(ctx context.Context, tenantID uint, txn model.InventoryTransaction) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.InventoryTransaction
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, txn.ID).First(&existing)
		if result.Error != nil {
			return pgErr(result.Error)
		}

		txn.TenantID = tenantID
		txn.CreatedAt = existing.CreatedAt
		if result := tx.Save(&txn); result.Error != nil {
			return pgErr(result.Error)
		}
		return s.refreshSnapshot(tx, tenantID)
	})
}

func (s *PGInventoryStore) DeleteTransaction(ctx context.Context, tenantID uint, id string) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).
			Delete(&model.InventoryTransaction{})
		if result.Error != nil {
			return pgErr(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.refreshSnapshot(tx, tenantID)
	})
}

func (s *PGInventoryStore) ReplaceAll(ctx context.Context, tenantID uint, txns []model.InventoryTransaction) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ?", tenantID).Delete(&model.InventoryTransaction{})
		if result.Error != nil {
			return pgErr(result.Error)
		}

		// Input is newest-first; stagger created_at so list order survives
		// the round trip through the created_at sort.
		now := time.Now()
		for i := range txns {
			txns[i].TenantID = tenantID
			txns[i].CreatedAt = now.Add(-time.Duration(i) * time.Millisecond)
		}
		if len(txns) > 0 {
			if result := tx.Create(&txns); result.Error != nil {
				return pgErr(result.Error)
			}
		}
		return s.refreshSnapshot(tx, tenantID)
	})
}

func (s *PGInventoryStore) LastUpdate(ctx context.Context, tenantID uint) (time.Time, error) {
	if tenantID == 0 {
		return time.Time{}, ErrNoTenant
	}

	var latest time.Time
	result := s.db.WithContext(ctx).
		Model(&model.InventoryTransaction{}).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(MAX(created_at), 'epoch'::timestamptz)").
		Scan(&latest)
	if result.Error != nil {
		return time.Time{}, pgErr(result.Error)
	}
	if latest.Unix() <= 0 {
		return time.Time{}, nil
	}
	return latest, nil
}

// refreshSnapshot rebuilds the tenant's current_inventory rows from the
// full transaction log inside the caller's transaction.
func (s *PGInventoryStore) refreshSnapshot(tx *gorm.DB, tenantID uint) error {
	var txns []model.InventoryTransaction
	result := tx.Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Find(&txns)
	if result.Error != nil {
		return pgErr(result.Error)
	}

	items := ledger.Derive(txns, true)
	costs := restockCosts(txns)

	if result := tx.Where("tenant_id = ?", tenantID).Delete(&model.CurrentInventory{}); result.Error != nil {
		return pgErr(result.Error)
	}

	rows := make([]model.CurrentInventory, 0, len(items))
	for _, item := range items {
		row := model.CurrentInventory{
			TenantID: tenantID,
			ItemType: item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
		}
		if c, ok := costs[item.Name]; ok && c.quantity > 0 {
			row.AvgPrice = c.cost / c.quantity
			row.TotalCost = row.AvgPrice * item.Quantity
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return pgErr(tx.Create(&rows).Error)
}

type restockCost struct {
	quantity float64
	cost     float64
}

// restockCosts accumulates priced restocking volume per item, the basis
// for the snapshot's weighted average price.
func restockCosts(txns []model.InventoryTransaction) map[string]restockCost {
	costs := make(map[string]restockCost)
	for _, txn := range txns {
		if txn.TransactionType != model.Restocking || txn.Price <= 0 {
			continue
		}
		c := costs[txn.ItemType]
		c.quantity += txn.Quantity
		c.cost += txn.Price * txn.Quantity
		costs[txn.ItemType] = c
	}
	return costs
}
