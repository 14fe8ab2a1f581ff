package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/greenridge/farmops/internal/model"
)

// laborTransactionRow is the accounts-schema shape of a labor deployment.
// The schema carries exactly two entry slots: home-farm laborers and
// outside (contract) laborers. The canonical model's entry list maps onto
// those two slots at this boundary and nowhere else.
type laborTransactionRow struct {
	ID                    uint      `gorm:"primaryKey"`
	TenantID              uint      `gorm:"index;not null"`
	DeploymentDate        time.Time `gorm:"column:deployment_date;index"`
	Code                  string    `gorm:"type:varchar(20);index"`
	Reference             string    `gorm:"type:varchar(100)"`
	HFLaborers            int       `gorm:"column:hf_laborers"`
	HFCostPerLaborer      float64   `gorm:"column:hf_cost_per_laborer"`
	OutsideLaborers       int       `gorm:"column:outside_laborers"`
	OutsideCostPerLaborer float64   `gorm:"column:outside_cost_per_laborer"`
	TotalCost             float64   `gorm:"column:total_cost"`
	Notes                 string    `gorm:"type:text"`
	UserID                string    `gorm:"column:user_id;type:varchar(100)"`
}

func (laborTransactionRow) TableName() string { return "labor_transactions" }

// MaxLaborEntries is the number of entry slots the accounts schema can
// persist per deployment.
const MaxLaborEntries = 2

func rowFromLabor(tenantID uint, d model.LaborDeployment) laborTransactionRow {
	row := laborTransactionRow{
		ID:             d.ID,
		TenantID:       tenantID,
		DeploymentDate: d.Date,
		Code:           d.Code,
		Reference:      d.Reference,
		TotalCost:      d.TotalCost,
		Notes:          d.Notes,
		UserID:         d.User,
	}
	if len(d.Entries) > 0 {
		row.HFLaborers = d.Entries[0].LaborCount
		row.HFCostPerLaborer = d.Entries[0].CostPerLabor
	}
	if len(d.Entries) > 1 {
		row.OutsideLaborers = d.Entries[1].LaborCount
		row.OutsideCostPerLaborer = d.Entries[1].CostPerLabor
	}
	return row
}

func (r laborTransactionRow) toModel() model.LaborDeployment {
	d := model.LaborDeployment{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Code:      r.Code,
		Reference: r.Reference,
		TotalCost: r.TotalCost,
		Date:      r.DeploymentDate,
		User:      r.UserID,
		Notes:     r.Notes,
	}
	if r.HFLaborers > 0 || r.HFCostPerLaborer > 0 {
		d.Entries = append(d.Entries, model.LaborEntry{LaborCount: r.HFLaborers, CostPerLabor: r.HFCostPerLaborer})
	}
	if r.OutsideLaborers > 0 || r.OutsideCostPerLaborer > 0 {
		d.Entries = append(d.Entries, model.LaborEntry{LaborCount: r.OutsideLaborers, CostPerLabor: r.OutsideCostPerLaborer})
	}
	return d
}

// PGAccountsStore implements the deployment port over the accounts schema:
// labor_transactions, expense_transactions and account_activities.
type PGAccountsStore struct {
	db *gorm.DB
}

func NewPGAccountsStore(db *gorm.DB) *PGAccountsStore {
	return &PGAccountsStore{db: db}
}

func (s *PGAccountsStore) ListLabor(ctx context.Context, tenantID uint) ([]model.LaborDeployment, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}

	var rows []laborTransactionRow
	result := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("deployment_date DESC, id DESC").
		Find(&rows)
	if result.Error != nil {
		return nil, pgErr(result.Error)
	}

	deployments := make([]model.LaborDeployment, 0, len(rows))
	for _, row := range rows {
		deployments = append(deployments, row.toModel())
	}
	return deployments, nil
}

func (s *PGAccountsStore) GetLabor(ctx context.Context, tenantID, id uint) (model.LaborDeployment, error) {
	if tenantID == 0 {
		return model.LaborDeployment{}, ErrNoTenant
	}

	var row laborTransactionRow
	result := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&row)
	if result.Error != nil {
		return model.LaborDeployment{}, pgErr(result.Error)
	}
	return row.toModel(), nil
}

func (s *PGAccountsStore) CreateLabor(ctx context.Context, tenantID uint, d *model.LaborDeployment) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	row := rowFromLabor(tenantID, *d)
	row.ID = 0
	if result := s.db.WithContext(ctx).Create(&row); result.Error != nil {
		return pgErr(result.Error)
	}
	d.ID = row.ID
	d.TenantID = tenantID
	return nil
}

func (s *PGAccountsStore) UpdateLabor(ctx context.Context, tenantID uint, d model.LaborDeployment) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	row := rowFromLabor(tenantID, d)
	result := s.db.WithContext(ctx).
		Model(&laborTransactionRow{}).
		Where("tenant_id = ? AND id = ?", tenantID, d.ID).
		Select("*").Omit("id", "tenant_id").
		Updates(row)
	if result.Error != nil {
		return pgErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGAccountsStore) DeleteLabor(ctx context.Context, tenantID, id uint) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	result := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&laborTransactionRow{})
	if result.Error != nil {
		return pgErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGAccountsStore) ListConsumables(ctx context.Context, tenantID uint) ([]model.ConsumableDeployment, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}

	var deployments []model.ConsumableDeployment
	result := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("entry_date DESC, id DESC").
		Find(&deployments)
	if result.Error != nil {
		return nil, pgErr(result.Error)
	}
	return deployments, nil
}

func (s *PGAccountsStore) GetConsumable(ctx context.Context, tenantID, id uint) (model.ConsumableDeployment, error) {
	if tenantID == 0 {
		return model.ConsumableDeployment{}, ErrNoTenant
	}

	var d model.ConsumableDeployment
	result := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&d)
	if result.Error != nil {
		return model.ConsumableDeployment{}, pgErr(result.Error)
	}
	return d, nil
}

func (s *PGAccountsStore) CreateConsumable(ctx context.Context, tenantID uint, d *model.ConsumableDeployment) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	d.ID = 0
	d.TenantID = tenantID
	return pgErr(s.db.WithContext(ctx).Create(d).Error)
}

func (s *PGAccountsStore) UpdateConsumable(ctx context.Context, tenantID uint, d model.ConsumableDeployment) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	d.TenantID = tenantID
	result := s.db.WithContext(ctx).
		Model(&model.ConsumableDeployment{}).
		Where("tenant_id = ? AND id = ?", tenantID, d.ID).
		Select("*").Omit("id", "tenant_id").
		Updates(d)
	if result.Error != nil {
		return pgErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGAccountsStore) DeleteConsumable(ctx context.Context, tenantID, id uint) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	result := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.ConsumableDeployment{})
	if result.Error != nil {
		return pgErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGAccountsStore) ListActivities(ctx context.Context, tenantID uint) ([]model.AccountActivity, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}

	var activities []model.AccountActivity
	result := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("code").Find(&activities)
	if result.Error != nil {
		return nil, pgErr(result.Error)
	}
	return activities, nil
}

func (s *PGAccountsStore) SaveActivity(ctx context.Context, tenantID uint, a model.AccountActivity) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	a.TenantID = tenantID
	return pgErr(s.db.WithContext(ctx).Save(&a).Error)
}

func (s *PGAccountsStore) DeleteActivity(ctx context.Context, tenantID uint, code string) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	result := s.db.WithContext(ctx).Where("tenant_id = ? AND code = ?", tenantID, code).Delete(&model.AccountActivity{})
	if result.Error != nil {
		return pgErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
