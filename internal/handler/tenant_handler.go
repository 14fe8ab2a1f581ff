package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/pkg/logger"
	"github.com/greenridge/farmops/prometheus"
)

// TenantHandler manages the tenant lifecycle: lookup, plan changes and
// status transitions. Only the owner role may change a tenant.
type TenantHandler struct {
	db *gorm.DB
}

func NewTenantHandler(db *gorm.DB) *TenantHandler {
	return &TenantHandler{db: db}
}

func (h *TenantHandler) requireOwner(c echo.Context) error {
	role, _ := c.Get("user_role").(string)
	if role != "owner" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "owner role required"})
	}
	return nil
}

// GetTenant returns the tenant the caller is currently scoped to.
func (h *TenantHandler) GetTenant(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordTenantOperation("get")

	var record model.Tenant
	if result := h.db.First(&record, tenant); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}
	return c.JSON(http.StatusOK, record)
}

// ListMyTenants lists every tenant the authenticated user belongs to.
func (h *TenantHandler) ListMyTenants(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordTenantOperation("list")

	var associations []model.UserTenant
	result := h.db.Preload("Tenant").Where("user_id = ? AND active = ?", userID, true).Find(&associations)
	if result.Error != nil {
		logger.FromContext(c).Error("Failed to list tenants", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tenants"})
	}

	tenants := make([]echo.Map, 0, len(associations))
	for _, a := range associations {
		tenants = append(tenants, echo.Map{
			"id":         a.Tenant.ID,
			"name":       a.Tenant.Name,
			"plan":       a.Tenant.Plan,
			"status":     a.Tenant.Status,
			"role":       a.Role,
			"is_default": a.IsDefault,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"tenants": tenants})
}

// UpdateTenant changes the tenant's name, plan or user limit.
func (h *TenantHandler) UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	if err := h.requireOwner(c); err != nil {
		return err
	}

	var req struct {
		Name     string `json:"name"`
		Plan     string `json:"plan"`
		MaxUsers int    `json:"max_users"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Plan != "" {
		updates["plan"] = req.Plan
	}
	if req.MaxUsers > 0 {
		updates["max_users"] = req.MaxUsers
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	result := h.db.Model(&model.Tenant{}).Where("id = ?", tenant).Updates(updates)
	if result.Error != nil {
		log.Error("Failed to update tenant", zap.Uint("tenant_id", tenant), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	prometheus.RecordTenantOperation("update")
	log.Info("Tenant updated", zap.Uint("tenant_id", tenant))

	var record model.Tenant
	h.db.First(&record, tenant)
	return c.JSON(http.StatusOK, record)
}

// Activate moves a trial or suspended tenant to active status.
func (h *TenantHandler) Activate(c echo.Context) error {
	return h.transition(c, model.TenantActive, "activate")
}

// Suspend blocks all access to the tenant until it is activated again.
func (h *TenantHandler) Suspend(c echo.Context) error {
	return h.transition(c, model.TenantSuspended, "suspend")
}

func (h *TenantHandler) transition(c echo.Context, status, operation string) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	if err := h.requireOwner(c); err != nil {
		return err
	}

	var record model.Tenant
	if result := h.db.First(&record, tenant); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}
	if record.Status == status {
		return c.JSON(http.StatusOK, record)
	}

	result := h.db.Model(&record).Update("status", status)
	if result.Error != nil {
		log.Error("Failed to change tenant status",
			zap.Uint("tenant_id", tenant),
			zap.String("status", status),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status change failed"})
	}

	prometheus.RecordTenantOperation(operation)
	log.Info("Tenant status changed",
		zap.Uint("tenant_id", tenant),
		zap.String("from", record.Status),
		zap.String("to", status))

	record.Status = status
	return c.JSON(http.StatusOK, record)
}
