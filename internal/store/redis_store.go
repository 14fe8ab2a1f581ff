package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greenridge/farmops/internal/model"
)

const (
	transactionsKey = "inventory:transactions"
	lastUpdateKey   = "inventory:lastUpdate"
)

// RedisStore keeps each tenant's transaction log as a Redis list under
// tenant:{id}:inventory:transactions, newest element at the head. Appends
// use LPUSH so concurrent writers cannot lose each other's events the way
// a get-all/set-all overwrite would.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// wrapErr maps client failures onto the store error taxonomy.
func wrapErr(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (s *RedisStore) ListTransactions(ctx context.Context, tenantID uint) ([]model.InventoryTransaction, error) {
	if tenantID == 0 {
		return nil, ErrNoTenant
	}

	raw, err := s.client.LRange(ctx, TenantKey(tenantID, transactionsKey), 0, -1).Result()
	if err != nil {
		return nil, wrapErr(err)
	}

	txns := make([]model.InventoryTransaction, 0, len(raw))
	for _, item := range raw {
		var txn model.InventoryTransaction
		if err := json.Unmarshal([]byte(item), &txn); err != nil {
			return nil, fmt.Errorf("store: corrupt transaction record: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (s *RedisStore) AppendTransaction(ctx context.Context, tenantID uint, txn model.InventoryTransaction) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	payload, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("store: marshal transaction: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, TenantKey(tenantID, transactionsKey), payload)
	pipe.Set(ctx, TenantKey(tenantID, lastUpdateKey), time.Now().UnixMilli(), 0)
	_, err = pipe.Exec(ctx)
	return wrapErr(err)
}

func (s *RedisStore) UpdateTransaction(ctx context.Context, tenantID uint, txn model.InventoryTransaction) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	key := TenantKey(tenantID, transactionsKey)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return wrapErr(err)
	}

	for i, item := range raw {
		var existing model.InventoryTransaction
		if err := json.Unmarshal([]byte(item), &existing); err != nil {
			continue
		}
		if existing.ID != txn.ID {
			continue
		}
		payload, err := json.Marshal(txn)
		if err != nil {
			return fmt.Errorf("store: marshal transaction: %w", err)
		}
		pipe := s.client.TxPipeline()
		pipe.LSet(ctx, key, int64(i), payload)
		pipe.Set(ctx, TenantKey(tenantID, lastUpdateKey), time.Now().UnixMilli(), 0)
		_, err = pipe.Exec(ctx)
		return wrapErr(err)
	}
	return ErrNotFound
}

func (s *RedisStore) DeleteTransaction(ctx context.Context, tenantID uint, id string) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	key := TenantKey(tenantID, transactionsKey)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return wrapErr(err)
	}

	for _, item := range raw {
		var existing model.InventoryTransaction
		if err := json.Unmarshal([]byte(item), &existing); err != nil {
			continue
		}
		if existing.ID != id {
			continue
		}
		pipe := s.client.TxPipeline()
		pipe.LRem(ctx, key, 1, item)
		pipe.Set(ctx, TenantKey(tenantID, lastUpdateKey), time.Now().UnixMilli(), 0)
		_, err = pipe.Exec(ctx)
		return wrapErr(err)
	}
	return ErrNotFound
}

func (s *RedisStore) ReplaceAll(ctx context.Context, tenantID uint, txns []model.InventoryTransaction) error {
	if tenantID == 0 {
		return ErrNoTenant
	}

	payloads := make([]interface{}, 0, len(txns))
	for _, txn := range txns {
		p, err := json.Marshal(txn)
		if err != nil {
			return fmt.Errorf("store: marshal transaction: %w", err)
		}
		payloads = append(payloads, p)
	}

	// RPUSH preserves the given newest-first order with the newest at the
	// head, matching what LPUSH-appended lists look like.
	key := TenantKey(tenantID, transactionsKey)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(payloads) > 0 {
		pipe.RPush(ctx, key, payloads...)
	}
	pipe.Set(ctx, TenantKey(tenantID, lastUpdateKey), time.Now().UnixMilli(), 0)
	_, err := pipe.Exec(ctx)
	return wrapErr(err)
}

func (s *RedisStore) LastUpdate(ctx context.Context, tenantID uint) (time.Time, error) {
	if tenantID == 0 {
		return time.Time{}, ErrNoTenant
	}

	val, err := s.client.Get(ctx, TenantKey(tenantID, lastUpdateKey)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, wrapErr(err)
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: corrupt lastUpdate value: %w", err)
	}
	return time.UnixMilli(ms), nil
}
