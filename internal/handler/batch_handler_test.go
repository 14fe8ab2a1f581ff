package handler

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/internal/store"
)

func createBatch(t *testing.T, h *BatchHandler, body string) model.ProcessingBatch {
	t.Helper()
	c, rec := newTestContext(http.MethodPost, "/api/batches", body)
	require.NoError(t, h.CreateBatch(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b model.ProcessingBatch
	decodeBody(t, rec, &b)
	return b
}

func TestCreateBatchDefaults(t *testing.T) {
	h := NewBatchHandler(store.NewMemStore())

	b := createBatch(t, h, `{"lot_code":"LOT-2026-014","cherry_weight_kg":850}`)
	assert.NotZero(t, b.ID)
	assert.Equal(t, model.StageCherry, b.Stage)
	assert.False(t, b.StartedAt.IsZero())
}

func TestCreateBatchValidation(t *testing.T) {
	h := NewBatchHandler(store.NewMemStore())

	cases := []struct {
		name string
		body string
	}{
		{"missing lot code", `{"stage":"cherry"}`},
		{"unknown stage", `{"lot_code":"LOT-1","stage":"roasted"}`},
		{"negative weight", `{"lot_code":"LOT-1","cherry_weight_kg":-5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodPost, "/api/batches", tc.body)
			require.NoError(t, h.CreateBatch(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateBatchAdvancesStage(t *testing.T) {
	h := NewBatchHandler(store.NewMemStore())
	b := createBatch(t, h, `{"lot_code":"LOT-2026-014","stage":"cherry","cherry_weight_kg":850}`)

	body := `{"lot_code":"LOT-2026-014","stage":"dried","cherry_weight_kg":850,"parchment_kg":170}`
	c, rec := newTestContext(http.MethodPut, "/", body)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(b.ID)))
	require.NoError(t, h.UpdateBatch(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated model.ProcessingBatch
	decodeBody(t, rec, &updated)
	assert.Equal(t, "dried", updated.Stage)
	assert.Equal(t, 170.0, updated.ParchmentKg)
	assert.Equal(t, b.StartedAt.Unix(), updated.StartedAt.Unix(), "start time survives updates")
}

func TestUpdateBatchRefusesStageRegression(t *testing.T) {
	h := NewBatchHandler(store.NewMemStore())
	b := createBatch(t, h, `{"lot_code":"LOT-2026-014","stage":"milled"}`)

	body := `{"lot_code":"LOT-2026-014","stage":"cherry"}`
	c, rec := newTestContext(http.MethodPut, "/", body)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(b.ID)))
	require.NoError(t, h.UpdateBatch(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteBatch(t *testing.T) {
	h := NewBatchHandler(store.NewMemStore())
	b := createBatch(t, h, `{"lot_code":"LOT-2026-014"}`)

	c, rec := newTestContext(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(b.ID)))
	require.NoError(t, h.DeleteBatch(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(b.ID)))
	require.NoError(t, h.GetBatch(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCheckpoint(t *testing.T) {
	h := NewBatchHandler(store.NewMemStore())
	b := createBatch(t, h, `{"lot_code":"LOT-2026-014","stage":"dried"}`)

	body := `{"stage":"dried","grade":"AA","moisture_pct":11.5,"defect_count":3}`
	c, rec := newTestContext(http.MethodPost, "/", body)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(b.ID)))
	require.NoError(t, h.AddCheckpoint(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var cp model.QualityCheckpoint
	decodeBody(t, rec, &cp)
	assert.Equal(t, b.ID, cp.BatchID)
	assert.Equal(t, "tester@greenridge.test", cp.CheckedBy)
	assert.False(t, cp.CheckedAt.IsZero())

	c, rec = newTestContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(b.ID)))
	require.NoError(t, h.ListCheckpoints(c))

	var checkpoints []model.QualityCheckpoint
	decodeBody(t, rec, &checkpoints)
	require.Len(t, checkpoints, 1)
	assert.Equal(t, 11.5, checkpoints[0].MoisturePct)
}

func TestAddCheckpointUnknownBatch(t *testing.T) {
	h := NewBatchHandler(store.NewMemStore())

	c, rec := newTestContext(http.MethodPost, "/", `{"stage":"dried","moisture_pct":10}`)
	c.SetParamNames("id")
	c.SetParamValues("999")
	require.NoError(t, h.AddCheckpoint(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCheckpointValidation(t *testing.T) {
	h := NewBatchHandler(store.NewMemStore())
	b := createBatch(t, h, `{"lot_code":"LOT-2026-014"}`)

	c, rec := newTestContext(http.MethodPost, "/", `{"stage":"roasted"}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(b.ID)))
	require.NoError(t, h.AddCheckpoint(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/", `{"stage":"dried","moisture_pct":140}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(b.ID)))
	require.NoError(t, h.AddCheckpoint(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
