package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/greenridge/farmops/internal/export"
	"github.com/greenridge/farmops/internal/report"
	"github.com/greenridge/farmops/internal/store"
	"github.com/greenridge/farmops/pkg/logger"
	"github.com/greenridge/farmops/prometheus"
)

// ExportHandler produces the accounting interchange files and consumes
// QIF restorations.
type ExportHandler struct {
	store store.DeploymentStore
}

func NewExportHandler(s store.DeploymentStore) *ExportHandler {
	return &ExportHandler{store: s}
}

func (h *ExportHandler) loadDeployments(c echo.Context, tenant uint, period report.Period) ([]report.CodeSummary, []export.QIFRecord, error) {
	labor, err := h.store.ListLabor(c.Request().Context(), tenant)
	if err != nil {
		return nil, nil, err
	}
	consumables, err := h.store.ListConsumables(c.Request().Context(), tenant)
	if err != nil {
		return nil, nil, err
	}
	activities, err := h.store.ListActivities(c.Request().Context(), tenant)
	if err != nil {
		return nil, nil, err
	}

	rows := report.Summarize(labor, consumables, activities, period)

	filteredLabor := labor[:0:0]
	for _, d := range labor {
		if period.Contains(d.Date) {
			filteredLabor = append(filteredLabor, d)
		}
	}
	filteredConsumables := consumables[:0:0]
	for _, d := range consumables {
		if period.Contains(d.Date) {
			filteredConsumables = append(filteredConsumables, d)
		}
	}

	records := export.RecordsFromDeployments(filteredLabor, filteredConsumables, activities)
	return rows, records, nil
}

// ExportCSV streams the accounting summary as CSV with a trailing total row.
func (h *ExportHandler) ExportCSV(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordExportOperation("csv")

	period, err := parsePeriod(c)
	if err != nil {
		log.Warn("Invalid export period", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD"})
	}

	defer prometheus.TrackStoreOperation("query")(time.Now())
	rows, _, err := h.loadDeployments(c, tenant, period)
	if err != nil {
		return storeError(c, err, "deployments")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="accounting-summary.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	if err := export.WriteAccountingCSV(c.Response(), rows); err != nil {
		log.Error("Failed to write CSV export", zap.Error(err))
		return err
	}

	log.Info("CSV export produced", zap.Uint("tenant_id", tenant), zap.Int("rows", len(rows)))
	return nil
}

// ExportQIF streams every deployment in the period as QIF bank records.
func (h *ExportHandler) ExportQIF(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordExportOperation("qif")

	period, err := parsePeriod(c)
	if err != nil {
		log.Warn("Invalid export period", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD"})
	}

	defer prometheus.TrackStoreOperation("query")(time.Now())
	_, records, err := h.loadDeployments(c, tenant, period)
	if err != nil {
		return storeError(c, err, "deployments")
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/qif")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="deployments.qif"`)
	c.Response().WriteHeader(http.StatusOK)

	if err := export.WriteQIF(c.Response(), records); err != nil {
		log.Error("Failed to write QIF export", zap.Error(err))
		return err
	}

	log.Info("QIF export produced", zap.Uint("tenant_id", tenant), zap.Int("records", len(records)))
	return nil
}

// ImportQIF restores consumable deployments from an uploaded QIF file.
func (h *ExportHandler) ImportQIF(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}
	prometheus.RecordExportOperation("qif_import")

	records, err := export.ParseQIF(c.Request().Body)
	if err != nil {
		log.Warn("QIF parse failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid QIF payload: " + err.Error()})
	}

	deployments := export.RestoreConsumables(records, userEmail(c))

	defer prometheus.TrackStoreOperation("insert")(time.Now())
	for i := range deployments {
		if err := h.store.CreateConsumable(c.Request().Context(), tenant, &deployments[i]); err != nil {
			log.Error("Failed to restore consumable from QIF",
				zap.Int("index", i),
				zap.Error(err))
			return storeError(c, err, "consumable deployment")
		}
	}

	log.Info("QIF restoration complete",
		zap.Uint("tenant_id", tenant),
		zap.Int("restored", len(deployments)))
	return c.JSON(http.StatusOK, echo.Map{"restored": len(deployments)})
}
