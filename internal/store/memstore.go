package store

import (
	"context"
	"sync"
	"time"

	"github.com/greenridge/farmops/internal/model"
)

// MemStore is an in-memory implementation of every port, keyed the same
// way the redis backend is keyed so tenant isolation behaves identically.
// It backs handler tests and local development without a running store.
type MemStore struct {
	mu          sync.Mutex
	txns        map[string][]model.InventoryTransaction // TenantKey(id, "inventory:transactions")
	lastUpdate  map[string]time.Time
	labor       map[uint][]model.LaborDeployment
	consumables map[uint][]model.ConsumableDeployment
	activities  map[uint]map[string]model.AccountActivity
	batches     map[uint][]model.ProcessingBatch
	checkpoints map[uint][]model.QualityCheckpoint
	nextID      uint
}

func NewMemStore() *MemStore {
	return &MemStore{
		txns:        make(map[string][]model.InventoryTransaction),
		lastUpdate:  make(map[string]time.Time),
		labor:       make(map[uint][]model.LaborDeployment),
		consumables: make(map[uint][]model.ConsumableDeployment),
		activities:  make(map[uint]map[string]model.AccountActivity),
		batches:     make(map[uint][]model.ProcessingBatch),
		checkpoints: make(map[uint][]model.QualityCheckpoint),
	}
}

func (s *MemStore) nextSequence() uint {
	s.nextID++
	return s.nextID
}

func (s *MemStore) touch(tenantID uint) {
	s.lastUpdate[TenantKey(tenantID, lastUpdateKey)] = time.Now()
}

func (s *MemStore) ListTransactions(_ context.Context, tenantID uint) ([]model.InventoryTransaction, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.txns[TenantKey(tenantID, transactionsKey)]
	out := make([]model.InventoryTransaction, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemStore) AppendTransaction(_ context.Context, tenantID uint, txn model.InventoryTransaction) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := TenantKey(tenantID, transactionsKey)
	s.txns[key] = append([]model.InventoryTransaction{txn}, s.txns[key]...)
	s.touch(tenantID)
	return nil
}

func (s *MemStore) UpdateTransaction(_ context.Context, tenantID uint, txn model.InventoryTransaction) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := TenantKey(tenantID, transactionsKey)
	for i, existing := range s.txns[key] {
		if existing.ID == txn.ID {
			s.txns[key][i] = txn
			s.touch(tenantID)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) DeleteTransaction(_ context.Context, tenantID uint, id string) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := TenantKey(tenantID, transactionsKey)
	for i, existing := range s.txns[key] {
		if existing.ID == id {
			s.txns[key] = append(s.txns[key][:i], s.txns[key][i+1:]...)
			s.touch(tenantID)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) ReplaceAll(_ context.Context, tenantID uint, txns []model.InventoryTransaction) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make([]model.InventoryTransaction, len(txns))
	copy(replacement, txns)
	s.txns[TenantKey(tenantID, transactionsKey)] = replacement
	s.touch(tenantID)
	return nil
}

func (s *MemStore) LastUpdate(_ context.Context, tenantID uint) (time.Time, error) {
	if tenantID == 0 {
		return time.Time{}, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate[TenantKey(tenantID, lastUpdateKey)], nil
}

func (s *MemStore) ListLabor(_ context.Context, tenantID uint) ([]model.LaborDeployment, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.LaborDeployment, len(s.labor[tenantID]))
	copy(out, s.labor[tenantID])
	return out, nil
}

func (s *MemStore) GetLabor(_ context.Context, tenantID, id uint) (model.LaborDeployment, error) {
	if tenantID == 0 {
		return model.LaborDeployment{}, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.labor[tenantID] {
		if d.ID == id {
			return d, nil
		}
	}
	return model.LaborDeployment{}, ErrNotFound
}

func (s *MemStore) CreateLabor(_ context.Context, tenantID uint, d *model.LaborDeployment) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.nextSequence()
	d.TenantID = tenantID
	s.labor[tenantID] = append([]model.LaborDeployment{*d}, s.labor[tenantID]...)
	return nil
}

func (s *MemStore) UpdateLabor(_ context.Context, tenantID uint, d model.LaborDeployment) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.labor[tenantID] {
		if existing.ID == d.ID {
			d.TenantID = tenantID
			s.labor[tenantID][i] = d
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) DeleteLabor(_ context.Context, tenantID, id uint) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.labor[tenantID] {
		if existing.ID == id {
			s.labor[tenantID] = append(s.labor[tenantID][:i], s.labor[tenantID][i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) ListConsumables(_ context.Context, tenantID uint) ([]model.ConsumableDeployment, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ConsumableDeployment, len(s.consumables[tenantID]))
	copy(out, s.consumables[tenantID])
	return out, nil
}

func (s *MemStore) GetConsumable(_ context.Context, tenantID, id uint) (model.ConsumableDeployment, error) {
	if tenantID == 0 {
		return model.ConsumableDeployment{}, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.consumables[tenantID] {
		if d.ID == id {
			return d, nil
		}
	}
	return model.ConsumableDeployment{}, ErrNotFound
}

func (s *MemStore) CreateConsumable(_ context.Context, tenantID uint, d *model.ConsumableDeployment) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.nextSequence()
	d.TenantID = tenantID
	s.consumables[tenantID] = append([]model.ConsumableDeployment{*d}, s.consumables[tenantID]...)
	return nil
}

func (s *MemStore) UpdateConsumable(_ context.Context, tenantID uint, d model.ConsumableDeployment) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.consumables[tenantID] {
		if existing.ID == d.ID {
			d.TenantID = tenantID
			s.consumables[tenantID][i] = d
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) DeleteConsumable(_ context.Context, tenantID, id uint) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.consumables[tenantID] {
		if existing.ID == id {
			s.consumables[tenantID] = append(s.consumables[tenantID][:i], s.consumables[tenantID][i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) ListActivities(_ context.Context, tenantID uint) ([]model.AccountActivity, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.AccountActivity, 0, len(s.activities[tenantID]))
	for _, a := range s.activities[tenantID] {
		out = append(out, a)
	}
	return out, nil
}

func (s *MemStore) SaveActivity(_ context.Context, tenantID uint, a model.AccountActivity) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activities[tenantID] == nil {
		s.activities[tenantID] = make(map[string]model.AccountActivity)
	}
	a.TenantID = tenantID
	s.activities[tenantID][a.Code] = a
	return nil
}

func (s *MemStore) DeleteActivity(_ context.Context, tenantID uint, code string) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activities[tenantID][code]; !ok {
		return ErrNotFound
	}
	delete(s.activities[tenantID], code)
	return nil
}

func (s *MemStore) ListBatches(_ context.Context, tenantID uint) ([]model.ProcessingBatch, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ProcessingBatch, len(s.batches[tenantID]))
	copy(out, s.batches[tenantID])
	return out, nil
}

func (s *MemStore) GetBatch(_ context.Context, tenantID, id uint) (model.ProcessingBatch, error) {
	if tenantID == 0 {
		return model.ProcessingBatch{}, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.batches[tenantID] {
		if b.ID == id {
			for _, cp := range s.checkpoints[tenantID] {
				if cp.BatchID == id {
					b.Checkpoints = append(b.Checkpoints, cp)
				}
			}
			return b, nil
		}
	}
	return model.ProcessingBatch{}, ErrNotFound
}

func (s *MemStore) CreateBatch(_ context.Context, tenantID uint, b *model.ProcessingBatch) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = s.nextSequence()
	b.TenantID = tenantID
	s.batches[tenantID] = append([]model.ProcessingBatch{*b}, s.batches[tenantID]...)
	return nil
}

func (s *MemStore) UpdateBatch(_ context.Context, tenantID uint, b model.ProcessingBatch) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.batches[tenantID] {
		if existing.ID == b.ID {
			b.TenantID = tenantID
			s.batches[tenantID][i] = b
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) DeleteBatch(_ context.Context, tenantID, id uint) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.batches[tenantID] {
		if existing.ID == id {
			s.batches[tenantID] = append(s.batches[tenantID][:i], s.batches[tenantID][i+1:]...)
			kept := s.checkpoints[tenantID][:0]
			for _, cp := range s.checkpoints[tenantID] {
				if cp.BatchID != id {
					kept = append(kept, cp)
				}
			}
			s.checkpoints[tenantID] = kept
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) AddCheckpoint(_ context.Context, tenantID uint, cp *model.QualityCheckpoint) error {
	if tenantID == 0 {
		return ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, b := range s.batches[tenantID] {
		if b.ID == cp.BatchID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}

	cp.ID = s.nextSequence()
	cp.TenantID = tenantID
	s.checkpoints[tenantID] = append(s.checkpoints[tenantID], *cp)
	return nil
}

func (s *MemStore) ListCheckpoints(_ context.Context, tenantID, batchID uint) ([]model.QualityCheckpoint, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.QualityCheckpoint
	for _, cp := range s.checkpoints[tenantID] {
		if cp.BatchID == batchID {
			out = append(out, cp)
		}
	}
	return out, nil
}
