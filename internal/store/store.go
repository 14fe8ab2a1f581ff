// Package store defines the persistence ports the handlers depend on and
// the interchangeable backends that implement them. Every operation is
// tenant-scoped: the redis backend isolates tenants by key prefix, the
// postgres backends by a tenant_id column. Backends are constructed in
// main and passed in; there is no package-level client handle.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/greenridge/farmops/internal/model"
)

var (
	// ErrNotFound means the record does not exist for this tenant. It is a
	// distinct signal, never folded into an empty result.
	ErrNotFound = errors.New("store: record not found")

	// ErrUnavailable means the backend could not be reached. Callers must
	// not confuse it with a legitimately empty dataset.
	ErrUnavailable = errors.New("store: backend unavailable")

	// ErrNoTenant is returned when an operation is attempted without a
	// tenant ID. An unscoped key would silently merge all tenants' data,
	// so this is refused before any storage call.
	ErrNoTenant = errors.New("store: missing tenant id")
)

// TenantKey derives the storage key for a tenant-scoped value. Every
// read and write in the key-value backend goes through this prefix.
func TenantKey(tenantID uint, baseKey string) string {
	return fmt.Sprintf("tenant:%d:%s", tenantID, baseKey)
}

// TransactionStore is the inventory ledger port. Lists are returned
// newest-first; appends are atomic (no read-modify-write of the full list).
type TransactionStore interface {
	ListTransactions(ctx context.Context, tenantID uint) ([]model.InventoryTransaction, error)
	AppendTransaction(ctx context.Context, tenantID uint, txn model.InventoryTransaction) error
	UpdateTransaction(ctx context.Context, tenantID uint, txn model.InventoryTransaction) error
	DeleteTransaction(ctx context.Context, tenantID uint, id string) error

	// ReplaceAll rebuilds the tenant's ledger from a batch import. The
	// input is newest-first, matching list order.
	ReplaceAll(ctx context.Context, tenantID uint, txns []model.InventoryTransaction) error

	// LastUpdate reports when the tenant's ledger last changed. The zero
	// time means no write has been recorded.
	LastUpdate(ctx context.Context, tenantID uint) (time.Time, error)
}

// DeploymentStore is the accounts port: labor deployments, consumable
// deployments and the accounting-code activity table.
type DeploymentStore interface {
	ListLabor(ctx context.Context, tenantID uint) ([]model.LaborDeployment, error)
	GetLabor(ctx context.Context, tenantID, id uint) (model.LaborDeployment, error)
	CreateLabor(ctx context.Context, tenantID uint, d *model.LaborDeployment) error
	UpdateLabor(ctx context.Context, tenantID uint, d model.LaborDeployment) error
	DeleteLabor(ctx context.Context, tenantID, id uint) error

	ListConsumables(ctx context.Context, tenantID uint) ([]model.ConsumableDeployment, error)
	GetConsumable(ctx context.Context, tenantID, id uint) (model.ConsumableDeployment, error)
	CreateConsumable(ctx context.Context, tenantID uint, d *model.ConsumableDeployment) error
	UpdateConsumable(ctx context.Context, tenantID uint, d model.ConsumableDeployment) error
	DeleteConsumable(ctx context.Context, tenantID, id uint) error

	ListActivities(ctx context.Context, tenantID uint) ([]model.AccountActivity, error)
	SaveActivity(ctx context.Context, tenantID uint, a model.AccountActivity) error
	DeleteActivity(ctx context.Context, tenantID uint, code string) error
}

// BatchStore is the processing-traceability port.
type BatchStore interface {
	ListBatches(ctx context.Context, tenantID uint) ([]model.ProcessingBatch, error)
	GetBatch(ctx context.Context, tenantID, id uint) (model.ProcessingBatch, error)
	CreateBatch(ctx context.Context, tenantID uint, b *model.ProcessingBatch) error
	UpdateBatch(ctx context.Context, tenantID uint, b model.ProcessingBatch) error
	DeleteBatch(ctx context.Context, tenantID, id uint) error

	AddCheckpoint(ctx context.Context, tenantID uint, cp *model.QualityCheckpoint) error
	ListCheckpoints(ctx context.Context, tenantID, batchID uint) ([]model.QualityCheckpoint, error)
}
