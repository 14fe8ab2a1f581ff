package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/internal/store"
	"github.com/greenridge/farmops/pkg/logger"
	"github.com/greenridge/farmops/prometheus"
)

// BatchHandler serves the coffee processing traceability records.
type BatchHandler struct {
	store store.BatchStore
}

func NewBatchHandler(s store.BatchStore) *BatchHandler {
	return &BatchHandler{store: s}
}

// BatchRequest defines the structure for processing batch creation/update requests
type BatchRequest struct {
	LotCode        string     `json:"lot_code"`
	Stage          string     `json:"stage"`
	CherryWeightKg float64    `json:"cherry_weight_kg"`
	ParchmentKg    float64    `json:"parchment_kg"`
	GreenKg        float64    `json:"green_kg"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	Notes          string     `json:"notes"`
}

func (r *BatchRequest) validate() string {
	if r.LotCode == "" {
		return "lot_code is required"
	}
	if r.Stage != "" {
		if _, ok := model.StageOrder[r.Stage]; !ok {
			return "unknown processing stage"
		}
	}
	if r.CherryWeightKg < 0 || r.ParchmentKg < 0 || r.GreenKg < 0 {
		return "weights must not be negative"
	}
	return ""
}

func (r *BatchRequest) toModel() model.ProcessingBatch {
	b := model.ProcessingBatch{
		LotCode:        r.LotCode,
		Stage:          r.Stage,
		CherryWeightKg: r.CherryWeightKg,
		ParchmentKg:    r.ParchmentKg,
		GreenKg:        r.GreenKg,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		Notes:          r.Notes,
	}
	if b.Stage == "" {
		b.Stage = model.StageCherry
	}
	if b.StartedAt.IsZero() {
		b.StartedAt = time.Now()
	}
	return b
}

func (h *BatchHandler) ListBatches(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	defer prometheus.TrackStoreOperation("list")(time.Now())
	batches, err := h.store.ListBatches(c.Request().Context(), tenant)
	if err != nil {
		return storeError(c, err, "batches")
	}

	log.Info("Batches retrieved", zap.Uint("tenant_id", tenant), zap.Int("count", len(batches)))
	return c.JSON(http.StatusOK, batches)
}

func (h *BatchHandler) GetBatch(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid batch ID"})
	}

	defer prometheus.TrackStoreOperation("query")(time.Now())
	batch, err := h.store.GetBatch(c.Request().Context(), tenant, id)
	if err != nil {
		return storeError(c, err, "batch")
	}
	return c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) CreateBatch(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		log.Warn("Batch validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	batch := req.toModel()

	defer prometheus.TrackStoreOperation("insert")(time.Now())
	if err := h.store.CreateBatch(c.Request().Context(), tenant, &batch); err != nil {
		return storeError(c, err, "batch")
	}

	log.Info("Batch created",
		zap.Uint("tenant_id", tenant),
		zap.Uint("batch_id", batch.ID),
		zap.String("lot_code", batch.LotCode))
	return c.JSON(http.StatusCreated, batch)
}

func (h *BatchHandler) UpdateBatch(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid batch ID"})
	}

	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		log.Warn("Batch validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	existing, err := h.store.GetBatch(c.Request().Context(), tenant, id)
	if err != nil {
		return storeError(c, err, "batch")
	}

	// Stages only move forward through the processing chain.
	if req.Stage != "" && model.StageOrder[req.Stage] < model.StageOrder[existing.Stage] {
		log.Warn("Batch stage regression refused",
			zap.String("current", existing.Stage),
			zap.String("requested", req.Stage))
		return c.JSON(http.StatusConflict, echo.Map{"error": "batch stage cannot move backwards"})
	}

	batch := req.toModel()
	batch.ID = id
	batch.StartedAt = existing.StartedAt

	defer prometheus.TrackStoreOperation("update")(time.Now())
	if err := h.store.UpdateBatch(c.Request().Context(), tenant, batch); err != nil {
		return storeError(c, err, "batch")
	}

	log.Info("Batch updated",
		zap.Uint("tenant_id", tenant),
		zap.Uint("batch_id", id),
		zap.String("stage", batch.Stage))
	return c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) DeleteBatch(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid batch ID"})
	}

	defer prometheus.TrackStoreOperation("delete")(time.Now())
	if err := h.store.DeleteBatch(c.Request().Context(), tenant, id); err != nil {
		return storeError(c, err, "batch")
	}

	log.Info("Batch deleted", zap.Uint("tenant_id", tenant), zap.Uint("batch_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Batch deleted successfully"})
}

// CheckpointRequest defines the structure for quality checkpoint requests
type CheckpointRequest struct {
	Stage       string    `json:"stage"`
	CheckedAt   time.Time `json:"checked_at"`
	Grade       string    `json:"grade"`
	MoisturePct float64   `json:"moisture_pct"`
	DefectCount int       `json:"defect_count"`
	Notes       string    `json:"notes"`
}

func (h *BatchHandler) AddCheckpoint(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	batchID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid batch ID"})
	}

	var req CheckpointRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if _, known := model.StageOrder[req.Stage]; !known {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown processing stage"})
	}
	if req.MoisturePct < 0 || req.MoisturePct > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "moisture_pct must be between 0 and 100"})
	}

	checkpoint := model.QualityCheckpoint{
		BatchID:     batchID,
		Stage:       req.Stage,
		CheckedAt:   req.CheckedAt,
		Grade:       req.Grade,
		MoisturePct: req.MoisturePct,
		DefectCount: req.DefectCount,
		CheckedBy:   userEmail(c),
		Notes:       req.Notes,
	}
	if checkpoint.CheckedAt.IsZero() {
		checkpoint.CheckedAt = time.Now()
	}

	defer prometheus.TrackStoreOperation("insert")(time.Now())
	if err := h.store.AddCheckpoint(c.Request().Context(), tenant, &checkpoint); err != nil {
		return storeError(c, err, "batch")
	}

	log.Info("Quality checkpoint recorded",
		zap.Uint("tenant_id", tenant),
		zap.Uint("batch_id", batchID),
		zap.String("stage", req.Stage))
	return c.JSON(http.StatusCreated, checkpoint)
}

func (h *BatchHandler) ListCheckpoints(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return noTenant(c)
	}

	batchID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid batch ID"})
	}

	defer prometheus.TrackStoreOperation("list")(time.Now())
	checkpoints, err := h.store.ListCheckpoints(c.Request().Context(), tenant, batchID)
	if err != nil {
		return storeError(c, err, "checkpoints")
	}
	return c.JSON(http.StatusOK, checkpoints)
}
