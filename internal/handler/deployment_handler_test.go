package handler

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/internal/report"
	"github.com/greenridge/farmops/internal/store"
)

func createLabor(t *testing.T, h *DeploymentHandler, body string) model.LaborDeployment {
	t.Helper()
	c, rec := newTestContext(http.MethodPost, "/api/deployments/labor", body)
	require.NoError(t, h.CreateLabor(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d model.LaborDeployment
	decodeBody(t, rec, &d)
	return d
}

func createConsumable(t *testing.T, h *DeploymentHandler, body string) model.ConsumableDeployment {
	t.Helper()
	c, rec := newTestContext(http.MethodPost, "/api/deployments/consumables", body)
	require.NoError(t, h.CreateConsumable(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d model.ConsumableDeployment
	decodeBody(t, rec, &d)
	return d
}

func TestCreateLaborDerivesTotalCost(t *testing.T) {
	h := NewDeploymentHandler(store.NewMemStore())

	d := createLabor(t, h, `{"code":"101","laborEntries":[{"laborCount":2,"costPerLabor":475},{"laborCount":3,"costPerLabor":450}]}`)
	assert.NotZero(t, d.ID)
	assert.Equal(t, 2300.0, d.TotalCost)
	assert.Equal(t, "tester@greenridge.test", d.User)
}

func TestCreateLaborHonorsExplicitTotal(t *testing.T) {
	h := NewDeploymentHandler(store.NewMemStore())

	d := createLabor(t, h, `{"code":"101","totalCost":2500,"laborEntries":[{"laborCount":2,"costPerLabor":475}]}`)
	assert.Equal(t, 2500.0, d.TotalCost)
}

func TestCreateLaborValidation(t *testing.T) {
	h := NewDeploymentHandler(store.NewMemStore())

	cases := []struct {
		name string
		body string
	}{
		{"missing code", `{"laborEntries":[{"laborCount":1,"costPerLabor":400}]}`},
		{"no entries", `{"code":"101","laborEntries":[]}`},
		{"too many entries", `{"code":"101","laborEntries":[{"laborCount":1,"costPerLabor":1},{"laborCount":1,"costPerLabor":1},{"laborCount":1,"costPerLabor":1}]}`},
		{"zero count", `{"code":"101","laborEntries":[{"laborCount":0,"costPerLabor":400}]}`},
		{"zero rate", `{"code":"101","laborEntries":[{"laborCount":2,"costPerLabor":0}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodPost, "/api/deployments/labor", tc.body)
			require.NoError(t, h.CreateLabor(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLaborCRUD(t *testing.T) {
	h := NewDeploymentHandler(store.NewMemStore())
	d := createLabor(t, h, `{"code":"101","laborEntries":[{"laborCount":2,"costPerLabor":475}]}`)

	c, rec := newTestContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(d.ID)))
	require.NoError(t, h.GetLabor(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := `{"code":"102","laborEntries":[{"laborCount":4,"costPerLabor":500}]}`
	c, rec = newTestContext(http.MethodPut, "/", body)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(d.ID)))
	require.NoError(t, h.UpdateLabor(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated model.LaborDeployment
	decodeBody(t, rec, &updated)
	assert.Equal(t, "102", updated.Code)
	assert.Equal(t, 2000.0, updated.TotalCost)

	c, rec = newTestContext(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(d.ID)))
	require.NoError(t, h.DeleteLabor(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(d.ID)))
	require.NoError(t, h.GetLabor(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConsumableCRUD(t *testing.T) {
	h := NewDeploymentHandler(store.NewMemStore())

	d := createConsumable(t, h, `{"code":"204","reference":"pump fuel","amount":1250.50}`)
	assert.NotZero(t, d.ID)
	assert.Equal(t, 1250.50, d.Amount)

	c, rec := newTestContext(http.MethodPut, "/", `{"code":"204","reference":"pump fuel","amount":1300}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(d.ID)))
	require.NoError(t, h.UpdateConsumable(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c, rec = newTestContext(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(d.ID)))
	require.NoError(t, h.DeleteConsumable(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/api/deployments/consumables", "")
	require.NoError(t, h.ListConsumables(c))
	var remaining []model.ConsumableDeployment
	decodeBody(t, rec, &remaining)
	assert.Empty(t, remaining)
}

func TestConsumableValidation(t *testing.T) {
	h := NewDeploymentHandler(store.NewMemStore())

	c, rec := newTestContext(http.MethodPost, "/api/deployments/consumables", `{"code":"204","amount":0}`)
	require.NoError(t, h.CreateConsumable(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/api/deployments/consumables", `{"amount":100}`)
	require.NoError(t, h.CreateConsumable(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivitySaveAndDelete(t *testing.T) {
	h := NewDeploymentHandler(store.NewMemStore())

	c, rec := newTestContext(http.MethodPost, "/api/accounts/activities", `{"code":"101","activity":"Pruning"}`)
	require.NoError(t, h.SaveActivity(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// saving the same code again overwrites the label
	c, _ = newTestContext(http.MethodPost, "/api/accounts/activities", `{"code":"101","activity":"Field pruning"}`)
	require.NoError(t, h.SaveActivity(c))

	c, rec = newTestContext(http.MethodGet, "/api/accounts/activities", "")
	require.NoError(t, h.ListActivities(c))
	var activities []model.AccountActivity
	decodeBody(t, rec, &activities)
	require.Len(t, activities, 1)
	assert.Equal(t, "Field pruning", activities[0].Activity)

	c, rec = newTestContext(http.MethodDelete, "/", "")
	c.SetParamNames("code")
	c.SetParamValues("101")
	require.NoError(t, h.DeleteActivity(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountingSummary(t *testing.T) {
	s := store.NewMemStore()
	dh := NewDeploymentHandler(s)
	rh := NewReportHandler(s)

	createLabor(t, dh, `{"code":"101","laborEntries":[{"laborCount":2,"costPerLabor":475},{"laborCount":3,"costPerLabor":450}],"date":"2026-03-10T00:00:00Z"}`)
	createConsumable(t, dh, `{"code":"101","amount":700,"date":"2026-03-12T00:00:00Z"}`)
	createConsumable(t, dh, `{"code":"204","amount":1000,"date":"2026-03-15T00:00:00Z"}`)

	c, _ := newTestContext(http.MethodPost, "/api/accounts/activities", `{"code":"101","activity":"Pruning"}`)
	require.NoError(t, dh.SaveActivity(c))

	c, rec := newTestContext(http.MethodGet, "/api/reports/accounting", "")
	require.NoError(t, rh.AccountingSummary(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Rows  []report.CodeSummary `json:"rows"`
		Total report.CodeSummary   `json:"total"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "101", resp.Rows[0].Code)
	assert.Equal(t, "Pruning", resp.Rows[0].Activity)
	assert.Equal(t, 2300.0, resp.Rows[0].LaborCost)
	assert.Equal(t, 700.0, resp.Rows[0].ConsumableCost)
	assert.Equal(t, 3000.0, resp.Rows[0].TotalExpenditure)
	assert.Equal(t, 4000.0, resp.Total.TotalExpenditure)
}

func TestAccountingSummaryPeriodFilter(t *testing.T) {
	s := store.NewMemStore()
	dh := NewDeploymentHandler(s)
	rh := NewReportHandler(s)

	createConsumable(t, dh, `{"code":"204","amount":1000,"date":"2026-03-15T00:00:00Z"}`)
	createConsumable(t, dh, `{"code":"204","amount":500,"date":"2026-05-01T00:00:00Z"}`)

	c, rec := newTestContext(http.MethodGet, "/api/reports/accounting?from=2026-03-01&to=2026-03-31", "")
	require.NoError(t, rh.AccountingSummary(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total report.CodeSummary `json:"total"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1000.0, resp.Total.TotalExpenditure)

	c, rec = newTestContext(http.MethodGet, "/api/reports/accounting?from=March-1", "")
	require.NoError(t, rh.AccountingSummary(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
