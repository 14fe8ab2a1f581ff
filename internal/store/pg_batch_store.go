package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/greenridge/farmops/internal/model"
)

// PGBatchStore implements the traceability port over processing_batches
// and quality_checkpoints.
type PGBatchStore struct {
	db *gorm.DB
}

func NewPGBatchStore(db *gorm.DB) *PGBatchStore {
	return &PGBatchStore{db: db}
}

func (s *PGBatchStore) ListBatches(ctx context.Context, tenantID uint) ([]model.ProcessingBatch, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}

	var batches []model.ProcessingBatch
	result := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC, id DESC").
		Find(&batches)
	if result.Error != nil {
		return nil, pgErr(result.Error)
	}
	return batches, nil
}

func (s *PGBatchStore) GetBatch(ctx context.Context, tenantID, id uint) (model.ProcessingBatch, error) {
	if tenantID == 0 {
		return model.ProcessingBatch{}, ErrNoTenant
	}

	var batch model.ProcessingBatch
	result := s.db.WithContext(ctx).
		Preload("Checkpoints").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&batch)
	if result.Error != nil {
		return model.ProcessingBatch{}, pgErr(result.Error)
	}
	return batch, nil
}

func (s *PGBatchStore) CreateBatch(ctx context.Context, tenantID uint, b *model.ProcessingBatch) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	b.ID = 0
	b.TenantID = tenantID
	return pgErr(s.db.WithContext(ctx).Create(b).Error)
}

func (s *PGBatchStore) UpdateBatch(ctx context.Context, tenantID uint, b model.ProcessingBatch) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	b.TenantID = tenantID
	result := s.db.WithContext(ctx).
		Model(&model.ProcessingBatch{}).
		Where("tenant_id = ? AND id = ?", tenantID, b.ID).
		Select("*").Omit("id", "tenant_id", "created_at").
		Updates(b)
	if result.Error != nil {
		return pgErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGBatchStore) DeleteBatch(ctx context.Context, tenantID, id uint) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result := tx.Where("tenant_id = ? AND batch_id = ?", tenantID, id).Delete(&model.QualityCheckpoint{}); result.Error != nil {
			return pgErr(result.Error)
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.ProcessingBatch{})
		if result.Error != nil {
			return pgErr(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PGBatchStore) AddCheckpoint(ctx context.Context, tenantID uint, cp *model.QualityCheckpoint) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	var count int64
	if result := s.db.WithContext(ctx).Model(&model.ProcessingBatch{}).
		Where("tenant_id = ? AND id = ?", tenantID, cp.BatchID).Count(&count); result.Error != nil {
		return pgErr(result.Error)
	}
	if count == 0 {
		return ErrNotFound
	}

	cp.ID = 0
	cp.TenantID = tenantID
	return pgErr(s.db.WithContext(ctx).Create(cp).Error)
}

func (s *PGBatchStore) ListCheckpoints(ctx context.Context, tenantID, batchID uint) ([]model.QualityCheckpoint, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}

	var checkpoints []model.QualityCheckpoint
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND batch_id = ?", tenantID, batchID).
		Order("checked_at DESC, id DESC").
		Find(&checkpoints)
	if result.Error != nil {
		return nil, pgErr(result.Error)
	}
	return checkpoints, nil
}
