package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/greenridge/farmops/internal/ledger"
	"github.com/greenridge/farmops/internal/middleware"
	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/internal/store"
	"github.com/greenridge/farmops/pkg/logger"
	"github.com/greenridge/farmops/prometheus"
)

// InventoryHandler serves the inventory ledger: the derived item view and
// CRUD over the underlying transaction log.
type InventoryHandler struct {
	store store.TransactionStore
}

func NewInventoryHandler(s store.TransactionStore) *InventoryHandler {
	return &InventoryHandler{store: s}
}

// TransactionRequest defines the structure for transaction creation/update requests
type TransactionRequest struct {
	ItemType        string    `json:"itemType"`
	Quantity        float64   `json:"quantity"`
	TransactionType string    `json:"transactionType"`
	Unit            string    `json:"unit"`
	Date            time.Time `json:"date"`
	Notes           string    `json:"notes"`
	Price           float64   `json:"price"`
}

func (r *TransactionRequest) validate() string {
	if r.ItemType == "" {
		return "itemType is required"
	}
	kind := model.TransactionType(r.TransactionType)
	if !kind.Valid() {
		return "transactionType must be one of Restocking, Depleting, ItemDeleted, UnitChange"
	}
	switch kind {
	case model.Restocking, model.Depleting:
		if r.Quantity <= 0 {
			return "quantity must be positive"
		}
	case model.UnitChange:
		if r.Unit == "" {
			return "unit is required for a unit change"
		}
	}
	return ""
}

func (r *TransactionRequest) toModel(user string) model.InventoryTransaction {
	date := r.Date
	if date.IsZero() {
		date = time.Now()
	}
	txn := model.InventoryTransaction{
		ItemType:        r.ItemType,
		Quantity:        r.Quantity,
		TransactionType: model.TransactionType(r.TransactionType),
		Unit:            r.Unit,
		Date:            date,
		User:            user,
		Notes:           r.Notes,
		Price:           r.Price,
	}
	if txn.Price > 0 {
		txn.TotalCost = txn.Price * txn.Quantity
	}
	return txn
}

// storeError maps store failures onto HTTP responses. ErrNotFound and
// ErrUnavailable stay distinguishable all the way to the client.
func storeError(c echo.Context, err error, entity string) error {
	log := logger.FromContext(c)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Warn(entity+" not found", zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": entity + " not found"})
	case errors.Is(err, store.ErrNoTenant):
		log.Error("Missing tenant scope", zap.Error(err))
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context is required"})
	case errors.Is(err, store.ErrUnavailable):
		log.Error("Store unavailable", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage backend unavailable"})
	default:
		log.Error("Failed to access "+entity, zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to access " + entity})
	}
}

func tenantID(c echo.Context) (uint, bool) {
	return middleware.GetTenantIDFromContext(c)
}

func noTenant(c echo.Context) error {
	logger.FromContext(c).Error("Failed to get tenant ID from context")
	prometheus.TenantContextMissingCounter.Inc()
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
}

func userEmail(c echo.Context) string {
	email, _ := c.Get("email").(string)
	return email
}

// ListItems returns the derived inventory state for the tenant.
func (h *InventoryHandler) ListItems(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordLedgerOperation("derive")

	includeZero := false
	if v := c.QueryParam("include_zero"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			log.Warn("Invalid include_zero parameter", zap.String("value", v), zap.Error(err))
		} else {
			includeZero = parsed
		}
	}

	defer prometheus.TrackStoreOperation("list")(time.Now())
	txns, err := h.store.ListTransactions(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "transactions")
	}

	items := ledger.Derive(txns, includeZero)
	prometheus.InventoryItemsGauge.WithLabelValues(strconv.FormatUint(uint64(tenant), 10)).Set(float64(len(items)))

	log.Info("Derived inventory state",
		zap.Uint("tenant_id", tenant),
		zap.Int("transactions", len(txns)),
		zap.Int("items", len(items)))
	return c.JSON(http.StatusOK, items)
}

// ListTransactions returns the raw ledger, newest-first, with the time of
// the last write.
func (h *InventoryHandler) ListTransactions(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordLedgerOperation("list")

	defer prometheus.TrackStoreOperation("list")(time.Now())
	txns, err := h.store.ListTransactions(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "transactions")
	}

	lastUpdate, err := h.store.LastUpdate(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "transactions")
	}

	log.Info("Transactions retrieved", zap.Uint("tenant_id", tenant), zap.Int("count", len(txns)))
	return c.JSON(http.StatusOK, echo.Map{
		"transactions": txns,
		"lastUpdate":   lastUpdate,
	})
}

// CreateTransaction appends a new event to the ledger.
func (h *InventoryHandler) CreateTransaction(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordLedgerOperation("append")

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		log.Warn("Transaction validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	txn := req.toModel(userEmail(c))
	txn.ID = uuid.New().String()

	defer prometheus.TrackStoreOperation("insert")(time.Now())
	if err := h.store.AppendTransaction(c.Request().Context(), tenant, txn); err != nil {
		return storeError(c, err, "transaction")
	}

	log.Info("Transaction appended",
		zap.Uint("tenant_id", tenant),
		zap.String("transaction_id", txn.ID),
		zap.String("item_type", txn.ItemType),
		zap.String("transaction_type", string(txn.TransactionType)),
		zap.Float64("quantity", txn.Quantity))
	return c.JSON(http.StatusCreated, txn)
}

// UpdateTransaction rewrites an existing ledger event in place.
func (h *InventoryHandler) UpdateTransaction(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordLedgerOperation("update")

	id := c.Param("id")
	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("transaction_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		log.Warn("Transaction validation failed", zap.String("transaction_id", id), zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	txn := req.toModel(userEmail(c))
	txn.ID = id

	defer prometheus.TrackStoreOperation("update")(time.Now())
	if err := h.store.UpdateTransaction(c.Request().Context(), tenant, txn); err != nil {
		return storeError(c, err, "transaction")
	}

	log.Info("Transaction updated",
		zap.Uint("tenant_id", tenant),
		zap.String("transaction_id", id))
	return c.JSON(http.StatusOK, txn)
}

// DeleteTransaction removes a ledger event. Deleting an unknown ID is a
// 404, not a silent success.
func (h *InventoryHandler) DeleteTransaction(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordLedgerOperation("delete")

	id := c.Param("id")

	defer prometheus.TrackStoreOperation("delete")(time.Now())
	if err := h.store.DeleteTransaction(c.Request().Context(), tenant, id); err != nil {
		return storeError(c, err, "transaction")
	}

	log.Info("Transaction deleted",
		zap.Uint("tenant_id", tenant),
		zap.String("transaction_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Transaction deleted successfully"})
}

// ImportTransactions replaces the tenant's ledger with an uploaded batch,
// the restoration path for data migrations.
func (h *InventoryHandler) ImportTransactions(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordLedgerOperation("import")

	var txns []model.InventoryTransaction
	if err := c.Bind(&txns); err != nil {
		log.Error("Invalid import payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	for i := range txns {
		if !txns[i].TransactionType.Valid() {
			log.Warn("Import rejected: unknown transaction type",
				zap.Int("index", i),
				zap.String("transaction_type", string(txns[i].TransactionType)))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown transaction type in import"})
		}
		if txns[i].ID == "" {
			txns[i].ID = uuid.New().String()
		}
	}

	defer prometheus.TrackStoreOperation("replace")(time.Now())
	if err := h.store.ReplaceAll(c.Request().Context(), tenant, txns); err != nil {
		return storeError(c, err, "transactions")
	}

	log.Info("Ledger replaced from import",
		zap.Uint("tenant_id", tenant),
		zap.Int("count", len(txns)))
	return c.JSON(http.StatusOK, echo.Map{"imported": len(txns)})
}
