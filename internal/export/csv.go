package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/greenridge/farmops/internal/report"
)

var accountingHeader = []string{
	"Code", "Activity", "Labor Cost", "Laborers", "Consumable Cost", "Deployments", "Total Expenditure",
}

// WriteAccountingCSV writes the per-code accounting summary followed by a
// trailing TOTAL aggregate row, matching the layout the bookkeeping tools
// import.
func WriteAccountingCSV(w io.Writer, rows []report.CodeSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(accountingHeader); err != nil {
		return err
	}

	for _, row := range rows {
		if err := cw.Write(summaryRecord(row)); err != nil {
			return err
		}
	}

	total := report.GrandTotal(rows)
	total.Activity = ""
	if err := cw.Write(summaryRecord(total)); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func summaryRecord(row report.CodeSummary) []string {
	return []string{
		row.Code,
		row.Activity,
		formatAmount(row.LaborCost),
		strconv.Itoa(row.LaborCount),
		formatAmount(row.ConsumableCost),
		strconv.Itoa(row.Deployments),
		formatAmount(row.TotalExpenditure),
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', 2, 64)
}
