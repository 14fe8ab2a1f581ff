package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/internal/store"
)

func TestExportCSV(t *testing.T) {
	s := store.NewMemStore()
	dh := NewDeploymentHandler(s)
	eh := NewExportHandler(s)

	createLabor(t, dh, `{"code":"101","laborEntries":[{"laborCount":2,"costPerLabor":475},{"laborCount":3,"costPerLabor":450}],"date":"2026-03-10T00:00:00Z"}`)
	createConsumable(t, dh, `{"code":"204","amount":1000,"date":"2026-03-15T00:00:00Z"}`)

	c, rec := newTestContext(http.MethodGet, "/api/exports/accounting.csv", "")
	require.NoError(t, eh.ExportCSV(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "accounting-summary.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4, "header, two code rows, grand total")
	assert.Contains(t, lines[0], "Code")
	assert.True(t, strings.HasPrefix(lines[1], "101,"))
	assert.True(t, strings.HasPrefix(lines[2], "204,"))
	assert.Contains(t, lines[3], "TOTAL")
	assert.Contains(t, lines[3], "3300.00")
}

func TestExportQIFFormat(t *testing.T) {
	s := store.NewMemStore()
	dh := NewDeploymentHandler(s)
	eh := NewExportHandler(s)

	createConsumable(t, dh, `{"code":"204","reference":"pump fuel","amount":1000,"date":"2026-03-15T00:00:00Z"}`)

	c, rec := newTestContext(http.MethodGet, "/api/exports/deployments.qif", "")
	require.NoError(t, eh.ExportQIF(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/qif", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "!Type:Bank"))
	assert.Contains(t, body, "D03/15/2026")
	assert.Contains(t, body, "T-1000.00", "expenses are negative bank amounts")
	assert.Contains(t, body, "L204")
	assert.True(t, strings.Contains(body, "^"), "records are caret terminated")
}

func TestExportPeriodFilter(t *testing.T) {
	s := store.NewMemStore()
	dh := NewDeploymentHandler(s)
	eh := NewExportHandler(s)

	createConsumable(t, dh, `{"code":"204","amount":1000,"date":"2026-03-15T00:00:00Z"}`)
	createConsumable(t, dh, `{"code":"204","amount":500,"date":"2026-05-01T00:00:00Z"}`)

	c, rec := newTestContext(http.MethodGet, "/api/exports/deployments.qif?from=2026-03-01&to=2026-03-31", "")
	require.NoError(t, eh.ExportQIF(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "T-1000.00")
	assert.NotContains(t, body, "T-500.00")

	c, rec = newTestContext(http.MethodGet, "/api/exports/deployments.qif?from=yesterday", "")
	require.NoError(t, eh.ExportQIF(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportQIFRestoresConsumables(t *testing.T) {
	s := store.NewMemStore()
	dh := NewDeploymentHandler(s)
	eh := NewExportHandler(s)

	qif := "!Type:Bank\n" +
		"D03/15/2026\n" +
		"T-1,000.00\n" +
		"Ppump fuel\n" +
		"L204\n" +
		"^\n" +
		"D03/20/2026\n" +
		"T-250.00\n" +
		"L101\n" +
		"^\n"

	c, rec := newTestContext(http.MethodPost, "/api/exports/deployments.qif", qif)
	require.NoError(t, eh.ImportQIF(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c, rec = newTestContext(http.MethodGet, "/api/deployments/consumables", "")
	require.NoError(t, dh.ListConsumables(c))

	var restored []model.ConsumableDeployment
	decodeBody(t, rec, &restored)
	require.Len(t, restored, 2)

	byCode := map[string]model.ConsumableDeployment{}
	for _, d := range restored {
		byCode[d.Code] = d
	}
	assert.Equal(t, 1000.0, byCode["204"].Amount, "bank outflow restores as a positive expense")
	assert.Equal(t, "pump fuel", byCode["204"].Reference)
	assert.Equal(t, 250.0, byCode["101"].Amount)
	assert.Equal(t, "tester@greenridge.test", byCode["204"].User)
}

func TestImportQIFRejectsMalformedPayload(t *testing.T) {
	eh := NewExportHandler(store.NewMemStore())

	c, rec := newTestContext(http.MethodPost, "/api/exports/deployments.qif", "!Type:Bank\nPorphan payee\n^\n")
	require.NoError(t, eh.ImportQIF(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportRoundTrip(t *testing.T) {
	s := store.NewMemStore()
	dh := NewDeploymentHandler(s)
	eh := NewExportHandler(s)

	createConsumable(t, dh, `{"code":"204","reference":"pump fuel","amount":1250.50,"date":"2026-03-15T00:00:00Z"}`)

	c, rec := newTestContext(http.MethodGet, "/api/exports/deployments.qif", "")
	require.NoError(t, eh.ExportQIF(c))
	exported := rec.Body.String()

	restoreStore := store.NewMemStore()
	restoreHandler := NewExportHandler(restoreStore)
	c, rec = newTestContext(http.MethodPost, "/api/exports/deployments.qif", exported)
	require.NoError(t, restoreHandler.ImportQIF(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c, rec = newTestContext(http.MethodGet, "/api/deployments/consumables", "")
	require.NoError(t, NewDeploymentHandler(restoreStore).ListConsumables(c))

	var restored []model.ConsumableDeployment
	decodeBody(t, rec, &restored)
	require.Len(t, restored, 1)
	assert.Equal(t, "204", restored[0].Code)
	assert.Equal(t, 1250.50, restored[0].Amount)
	assert.Equal(t, "pump fuel", restored[0].Reference)
}
