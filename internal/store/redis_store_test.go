package store

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenridge/farmops/internal/model"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func clearTenant(ctx context.Context, client *redis.Client, tenantID uint) {
	client.Del(ctx, TenantKey(tenantID, transactionsKey), TenantKey(tenantID, lastUpdateKey))
}

func TestRedisStore_AppendAndList(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client)
	clearTenant(ctx, client, 901)
	defer clearTenant(ctx, client, 901)

	require.NoError(t, s.AppendTransaction(ctx, 901, model.InventoryTransaction{
		ID: "r1", ItemType: "Urea", Quantity: 100, TransactionType: model.Restocking, Unit: "kg",
	}))
	require.NoError(t, s.AppendTransaction(ctx, 901, model.InventoryTransaction{
		ID: "r2", ItemType: "Urea", Quantity: 30, TransactionType: model.Depleting,
	}))

	txns, err := s.ListTransactions(ctx, 901)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "r2", txns[0].ID, "list must come back newest-first")
	assert.Equal(t, "r1", txns[1].ID)

	last, err := s.LastUpdate(ctx, 901)
	require.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestRedisStore_TenantIsolation(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client)
	clearTenant(ctx, client, 902)
	clearTenant(ctx, client, 903)
	defer clearTenant(ctx, client, 902)
	defer clearTenant(ctx, client, 903)

	require.NoError(t, s.AppendTransaction(ctx, 902, model.InventoryTransaction{ID: "a", ItemType: "Urea"}))

	other, err := s.ListTransactions(ctx, 903)
	require.NoError(t, err)
	assert.Empty(t, other, "tenant 903 must not see tenant 902's writes")
}

func TestRedisStore_UpdateDeleteReplace(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client)
	clearTenant(ctx, client, 904)
	defer clearTenant(ctx, client, 904)

	require.NoError(t, s.AppendTransaction(ctx, 904, model.InventoryTransaction{ID: "x1", Quantity: 5}))

	require.NoError(t, s.UpdateTransaction(ctx, 904, model.InventoryTransaction{ID: "x1", Quantity: 9}))
	txns, err := s.ListTransactions(ctx, 904)
	require.NoError(t, err)
	assert.Equal(t, 9.0, txns[0].Quantity)

	assert.ErrorIs(t, s.UpdateTransaction(ctx, 904, model.InventoryTransaction{ID: "nope"}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, 904, "nope"), ErrNotFound)

	require.NoError(t, s.ReplaceAll(ctx, 904, []model.InventoryTransaction{{ID: "n2"}, {ID: "n1"}}))
	txns, err = s.ListTransactions(ctx, 904)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "n2", txns[0].ID)

	require.NoError(t, s.DeleteTransaction(ctx, 904, "n2"))
	txns, err = s.ListTransactions(ctx, 904)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestRedisStore_MissingTenantRefused(t *testing.T) {
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: "localhost:0"}))

	_, err := s.ListTransactions(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoTenant, "must refuse before touching the client")
}
