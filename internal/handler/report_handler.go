package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/greenridge/farmops/internal/report"
	"github.com/greenridge/farmops/internal/store"
	"github.com/greenridge/farmops/pkg/logger"
	"github.com/greenridge/farmops/prometheus"
)

// ReportHandler serves the on-the-fly accounting aggregations.
type ReportHandler struct {
	store store.DeploymentStore
}

func NewReportHandler(s store.DeploymentStore) *ReportHandler {
	return &ReportHandler{store: s}
}

const reportDateLayout = "2006-01-02"

// parsePeriod reads the optional from/to query parameters.
func parsePeriod(c echo.Context) (report.Period, error) {
	var period report.Period
	if v := c.QueryParam("from"); v != "" {
		from, err := time.Parse(reportDateLayout, v)
		if err != nil {
			return period, err
		}
		period.From = from
	}
	if v := c.QueryParam("to"); v != "" {
		to, err := time.Parse(reportDateLayout, v)
		if err != nil {
			return period, err
		}
		period.To = to
	}
	return period, nil
}

// AccountingSummary returns per-code labor and consumable totals for an
// optional period, with a trailing grand-total row.
func (h *ReportHandler) AccountingSummary(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	period, err := parsePeriod(c)
	if err != nil {
		log.Warn("Invalid report period", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD"})
	}

	defer prometheus.TrackStoreOperation("query")(time.Now())
	labor, err := h.store.ListLabor(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "labor deployments")
	}
	consumables, err := h.store.ListConsumables(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "consumable deployments")
	}
	activities, err := h.store.ListActivities(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "activities")
	}

	rows := report.Summarize(labor, consumables, activities, period)
	total := report.GrandTotal(rows)

	log.Info("Accounting summary computed",
		zap.Uint("tenant_id", tenant),
		zap.Int("codes", len(rows)),
		zap.Float64("total_expenditure", total.TotalExpenditure))
	return c.JSON(http.StatusOK, echo.Map{
		"rows":  rows,
		"total": total,
	})
}
