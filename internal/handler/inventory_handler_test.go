package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/internal/store"
	"github.com/greenridge/farmops/pkg/config"
	"github.com/greenridge/farmops/prometheus"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "test"}})
	os.Exit(m.Run())
}

const testTenant uint = 1

// newTestContext builds an echo context the way the auth middleware would
// leave it: tenant and email already resolved from the token.
func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("tenant_id", testTenant)
	c.Set("email", "tester@greenridge.test")
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func createTransaction(t *testing.T, h *InventoryHandler, body string) model.InventoryTransaction {
	t.Helper()
	c, rec := newTestContext(http.MethodPost, "/api/inventory/transactions", body)
	require.NoError(t, h.CreateTransaction(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var txn model.InventoryTransaction
	decodeBody(t, rec, &txn)
	return txn
}

func TestCreateAndListTransactions(t *testing.T) {
	h := NewInventoryHandler(store.NewMemStore())

	first := createTransaction(t, h, `{"itemType":"Urea","quantity":100,"transactionType":"Restocking","unit":"kg","price":2.5}`)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, testTenant, first.TenantID)
	assert.Equal(t, 250.0, first.TotalCost)
	assert.Equal(t, "tester@greenridge.test", first.User)

	second := createTransaction(t, h, `{"itemType":"Urea","quantity":30,"transactionType":"Depleting"}`)
	assert.NotEqual(t, first.ID, second.ID)

	c, rec := newTestContext(http.MethodGet, "/api/inventory/transactions", "")
	require.NoError(t, h.ListTransactions(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Transactions []model.InventoryTransaction `json:"transactions"`
		LastUpdate   string                       `json:"lastUpdate"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Transactions, 2)
	// newest first
	assert.Equal(t, second.ID, resp.Transactions[0].ID)
	assert.Equal(t, first.ID, resp.Transactions[1].ID)
	assert.NotEmpty(t, resp.LastUpdate)
}

func TestCreateTransactionValidation(t *testing.T) {
	h := NewInventoryHandler(store.NewMemStore())

	cases := []struct {
		name string
		body string
	}{
		{"missing item type", `{"quantity":10,"transactionType":"Restocking"}`},
		{"unknown type", `{"itemType":"Urea","quantity":10,"transactionType":"Teleported"}`},
		{"zero quantity", `{"itemType":"Urea","quantity":0,"transactionType":"Depleting"}`},
		{"unit change without unit", `{"itemType":"Urea","transactionType":"UnitChange"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodPost, "/api/inventory/transactions", tc.body)
			require.NoError(t, h.CreateTransaction(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListItemsDerivesState(t *testing.T) {
	h := NewInventoryHandler(store.NewMemStore())

	createTransaction(t, h, `{"itemType":"Urea","quantity":100,"transactionType":"Restocking","unit":"kg"}`)
	createTransaction(t, h, `{"itemType":"Urea","quantity":40,"transactionType":"Depleting"}`)
	createTransaction(t, h, `{"itemType":"Diesel","quantity":50,"transactionType":"Restocking","unit":"l"}`)
	createTransaction(t, h, `{"itemType":"Diesel","quantity":80,"transactionType":"Depleting"}`)

	c, rec := newTestContext(http.MethodGet, "/api/inventory/items", "")
	require.NoError(t, h.ListItems(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []model.InventoryItem
	decodeBody(t, rec, &items)
	require.Len(t, items, 1, "depleted-to-zero items are hidden by default")
	assert.Equal(t, "Urea", items[0].Name)
	assert.Equal(t, 60.0, items[0].Quantity)
	assert.Equal(t, "kg", items[0].Unit)

	c, rec = newTestContext(http.MethodGet, "/api/inventory/items?include_zero=true", "")
	require.NoError(t, h.ListItems(c))
	decodeBody(t, rec, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "Diesel", items[0].Name)
	assert.Equal(t, 0.0, items[0].Quantity)
}

func TestUpdateTransaction(t *testing.T) {
	h := NewInventoryHandler(store.NewMemStore())
	txn := createTransaction(t, h, `{"itemType":"Urea","quantity":100,"transactionType":"Restocking","unit":"kg"}`)

	body := `{"itemType":"Urea","quantity":120,"transactionType":"Restocking","unit":"kg"}`
	c, rec := newTestContext(http.MethodPut, "/", body)
	c.SetParamNames("id")
	c.SetParamValues(txn.ID)
	require.NoError(t, h.UpdateTransaction(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated model.InventoryTransaction
	decodeBody(t, rec, &updated)
	assert.Equal(t, txn.ID, updated.ID)
	assert.Equal(t, 120.0, updated.Quantity)
}

func TestDeleteTransactionNotFound(t *testing.T) {
	h := NewInventoryHandler(store.NewMemStore())

	c, rec := newTestContext(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("no-such-id")
	require.NoError(t, h.DeleteTransaction(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportTransactionsReplacesLedger(t *testing.T) {
	h := NewInventoryHandler(store.NewMemStore())
	createTransaction(t, h, `{"itemType":"Urea","quantity":100,"transactionType":"Restocking","unit":"kg"}`)

	imported := `[
		{"itemType":"Compost","quantity":500,"transactionType":"Restocking","unit":"kg"},
		{"itemType":"Compost","quantity":200,"transactionType":"Depleting"}
	]`
	c, rec := newTestContext(http.MethodPost, "/api/inventory/import", imported)
	require.NoError(t, h.ImportTransactions(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c, rec = newTestContext(http.MethodGet, "/api/inventory/items", "")
	require.NoError(t, h.ListItems(c))

	var items []model.InventoryItem
	decodeBody(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Compost", items[0].Name)
	assert.Equal(t, 300.0, items[0].Quantity)
}

func TestImportTransactionsRejectsUnknownType(t *testing.T) {
	h := NewInventoryHandler(store.NewMemStore())

	body := `[{"itemType":"Urea","quantity":1,"transactionType":"Vanished"}]`
	c, rec := newTestContext(http.MethodPost, "/api/inventory/import", body)
	require.NoError(t, h.ImportTransactions(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingTenantContext(t *testing.T) {
	h := NewInventoryHandler(store.NewMemStore())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/inventory/items", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.ListItems(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantsDoNotShareLedgers(t *testing.T) {
	s := store.NewMemStore()
	h := NewInventoryHandler(s)

	createTransaction(t, h, `{"itemType":"Urea","quantity":100,"transactionType":"Restocking","unit":"kg"}`)

	c, rec := newTestContext(http.MethodGet, "/api/inventory/transactions", "")
	c.Set("tenant_id", uint(2))
	require.NoError(t, h.ListTransactions(c))

	var resp struct {
		Transactions []model.InventoryTransaction `json:"transactions"`
	}
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Transactions, fmt.Sprintf("tenant 2 must not see tenant %d data", testTenant))
}
