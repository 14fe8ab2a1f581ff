package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/internal/report"
	"github.com/greenridge/farmops/internal/store"
	"github.com/greenridge/farmops/pkg/logger"
	"github.com/greenridge/farmops/prometheus"
)

// DeploymentHandler serves labor deployments, consumable deployments and
// the accounting-code activity table.
type DeploymentHandler struct {
	store store.DeploymentStore
}

func NewDeploymentHandler(s store.DeploymentStore) *DeploymentHandler {
	return &DeploymentHandler{store: s}
}

// LaborRequest defines the structure for labor deployment creation/update requests
type LaborRequest struct {
	Code      string             `json:"code"`
	Reference string             `json:"reference"`
	Entries   []model.LaborEntry `json:"laborEntries"`
	TotalCost *float64           `json:"totalCost,omitempty"` // explicit override
	Date      time.Time          `json:"date"`
	Notes     string             `json:"notes"`
}

func (r *LaborRequest) validate() string {
	if r.Code == "" {
		return "code is required"
	}
	if len(r.Entries) == 0 {
		return "at least one labor entry is required"
	}
	if len(r.Entries) > store.MaxLaborEntries {
		return "at most two labor entries are supported"
	}
	for _, e := range r.Entries {
		if e.LaborCount <= 0 {
			return "laborCount must be positive"
		}
		if e.CostPerLabor <= 0 {
			return "costPerLabor must be positive"
		}
	}
	return ""
}

func (r *LaborRequest) toModel(user string) model.LaborDeployment {
	d := model.LaborDeployment{
		Code:      r.Code,
		Reference: r.Reference,
		Entries:   r.Entries,
		Date:      r.Date,
		User:      user,
		Notes:     r.Notes,
	}
	if d.Date.IsZero() {
		d.Date = time.Now()
	}
	// totalCost is derived from the entries unless explicitly overridden
	if r.TotalCost != nil {
		d.TotalCost = *r.TotalCost
	} else {
		d.TotalCost = report.TotalLaborCost(r.Entries)
	}
	return d
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

func (h *DeploymentHandler) ListLabor(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("labor", "list")

	defer prometheus.TrackStoreOperation("list")(time.Now())
	deployments, err := h.store.ListLabor(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "labor deployments")
	}

	log.Info("Labor deployments retrieved", zap.Uint("tenant_id", tenant), zap.Int("count", len(deployments)))
	return c.JSON(http.StatusOK, deployments)
}

func (h *DeploymentHandler) GetLabor(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("labor", "get")

	id, err := pathID(c)
	if err != nil {
		log.Error("Invalid deployment ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid deployment ID"})
	}

	defer prometheus.TrackStoreOperation("query")(time.Now())
	deployment, err := h.store.GetLabor(c.Request().Context(), tenant, id)
	if err != nil {
		return storeError(c, err, "labor deployment")
	}
	return c.JSON(http.StatusOK, deployment)
}

func (h *DeploymentHandler) CreateLabor(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("labor", "create")

	var req LaborRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		log.Warn("Labor deployment validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	deployment := req.toModel(userEmail(c))

	defer prometheus.TrackStoreOperation("insert")(time.Now())
	if err := h.store.CreateLabor(c.Request().Context(), tenant, &deployment); err != nil {
		return storeError(c, err, "labor deployment")
	}

	log.Info("Labor deployment created",
		zap.Uint("tenant_id", tenant),
		zap.Uint("deployment_id", deployment.ID),
		zap.String("code", deployment.Code),
		zap.Float64("total_cost", deployment.TotalCost))
	return c.JSON(http.StatusCreated, deployment)
}

func (h *DeploymentHandler) UpdateLabor(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("labor", "update")

	id, err := pathID(c)
	if err != nil {
		log.Error("Invalid deployment ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid deployment ID"})
	}

	var req LaborRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		log.Warn("Labor deployment validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	deployment := req.toModel(userEmail(c))
	deployment.ID = id

	defer prometheus.TrackStoreOperation("update")(time.Now())
	if err := h.store.UpdateLabor(c.Request().Context(), tenant, deployment); err != nil {
		return storeError(c, err, "labor deployment")
	}

	log.Info("Labor deployment updated", zap.Uint("tenant_id", tenant), zap.Uint("deployment_id", id))
	return c.JSON(http.StatusOK, deployment)
}

func (h *DeploymentHandler) DeleteLabor(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("labor", "delete")

	id, err := pathID(c)
	if err != nil {
		log.Error("Invalid deployment ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid deployment ID"})
	}

	defer prometheus.TrackStoreOperation("delete")(time.Now())
	if err := h.store.DeleteLabor(c.Request().Context(), tenant, id); err != nil {
		return storeError(c, err, "labor deployment")
	}

	log.Info("Labor deployment deleted", zap.Uint("tenant_id", tenant), zap.Uint("deployment_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Deployment deleted successfully"})
}

// ConsumableRequest defines the structure for consumable deployment requests
type ConsumableRequest struct {
	Code      string    `json:"code"`
	Reference string    `json:"reference"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes"`
}

func (r *ConsumableRequest) validate() string {
	if r.Code == "" {
		return "code is required"
	}
	if r.Amount <= 0 {
		return "amount must be positive"
	}
	return ""
}

func (r *ConsumableRequest) toModel(user string) model.ConsumableDeployment {
	d := model.ConsumableDeployment{
		Code:      r.Code,
		Reference: r.Reference,
		Amount:    r.Amount,
		Date:      r.Date,
		Notes:     r.Notes,
		User:      user,
	}
	if d.Date.IsZero() {
		d.Date = time.Now()
	}
	return d
}

func (h *DeploymentHandler) ListConsumables(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("consumable", "list")

	defer prometheus.TrackStoreOperation("list")(time.Now())
	deployments, err := h.store.ListConsumables(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "consumable deployments")
	}

	log.Info("Consumable deployments retrieved", zap.Uint("tenant_id", tenant), zap.Int("count", len(deployments)))
	return c.JSON(http.StatusOK, deployments)
}

func (h *DeploymentHandler) GetConsumable(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("consumable", "get")

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid deployment ID"})
	}

	defer prometheus.TrackStoreOperation("query")(time.Now())
	deployment, err := h.store.GetConsumable(c.Request().Context(), tenant, id)
	if err != nil {
		return storeError(c, err, "consumable deployment")
	}
	return c.JSON(http.StatusOK, deployment)
}

func (h *DeploymentHandler) CreateConsumable(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("consumable", "create")

	var req ConsumableRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		log.Warn("Consumable deployment validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	deployment := req.toModel(userEmail(c))

	defer prometheus.TrackStoreOperation("insert")(time.Now())
	if err := h.store.CreateConsumable(c.Request().Context(), tenant, &deployment); err != nil {
		return storeError(c, err, "consumable deployment")
	}

	log.Info("Consumable deployment created",
		zap.Uint("tenant_id", tenant),
		zap.Uint("deployment_id", deployment.ID),
		zap.String("code", deployment.Code),
		zap.Float64("amount", deployment.Amount))
	return c.JSON(http.StatusCreated, deployment)
}

func (h *DeploymentHandler) UpdateConsumable(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("consumable", "update")

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid deployment ID"})
	}

	var req ConsumableRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		log.Warn("Consumable deployment validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	deployment := req.toModel(userEmail(c))
	deployment.ID = id

	defer prometheus.TrackStoreOperation("update")(time.Now())
	if err := h.store.UpdateConsumable(c.Request().Context(), tenant, deployment); err != nil {
		return storeError(c, err, "consumable deployment")
	}

	log.Info("Consumable deployment updated", zap.Uint("tenant_id", tenant), zap.Uint("deployment_id", id))
	return c.JSON(http.StatusOK, deployment)
}

func (h *DeploymentHandler) DeleteConsumable(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordDeploymentOperation("consumable", "delete")

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid deployment ID"})
	}

	defer prometheus.TrackStoreOperation("delete")(time.Now())
	if err := h.store.DeleteConsumable(c.Request().Context(), tenant, id); err != nil {
		return storeError(c, err, "consumable deployment")
	}

	log.Info("Consumable deployment deleted", zap.Uint("tenant_id", tenant), zap.Uint("deployment_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Deployment deleted successfully"})
}

// ActivityRequest defines the structure for accounting-code upserts
type ActivityRequest struct {
	Code     string `json:"code"`
	Activity string `json:"activity"`
}

func (h *DeploymentHandler) ListActivities(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	defer prometheus.TrackStoreOperation("list")(time.Now())
	activities, err := h.store.ListActivities(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "activities")
	}
	return c.JSON(http.StatusOK, activities)
}

func (h *DeploymentHandler) SaveActivity(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req ActivityRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Code == "" || req.Activity == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and activity are required"})
	}

	activity := model.AccountActivity{Code: req.Code, Activity: req.Activity}

	defer prometheus.TrackStoreOperation("insert")(time.Now())
	if err := h.store.SaveActivity(c.Request().Context(), tenant, activity); err != nil {
		return storeError(c, err, "activity")
	}

	log.Info("Activity saved", zap.Uint("tenant_id", tenant), zap.String("code", req.Code))
	return c.JSON(http.StatusOK, activity)
}

func (h *DeploymentHandler) DeleteActivity(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	code := c.Param("code")

	defer prometheus.TrackStoreOperation("delete")(time.Now())
	if err := h.store.DeleteActivity(c.Request().Context(), tenant, code); err != nil {
		return storeError(c, err, "activity")
	}

	log.Info("Activity deleted", zap.Uint("tenant_id", tenant), zap.String("code", code))
	return c.JSON(http.StatusOK, echo.Map{"message": "Activity deleted successfully"})
}
