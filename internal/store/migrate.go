package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/greenridge/farmops/internal/model"
)

// AutoMigrate creates or updates every table the postgres backends use,
// including the auth and tenant tables served directly through gorm.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Tenant{},
		&model.UserTenant{},
		&model.InventoryTransaction{},
		&model.CurrentInventory{},
		&laborTransactionRow{},
		&model.ConsumableDeployment{},
		&model.AccountActivity{},
		&model.ProcessingBatch{},
		&model.QualityCheckpoint{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}
