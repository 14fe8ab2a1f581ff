// Package report computes deployment cost aggregates for the accounting
// surfaces: persisted totals, period-filtered sums and per-code summaries.
package report

import (
	"sort"
	"time"

	"github.com/greenridge/farmops/internal/model"
)

// TotalLaborCost sums laborCount × costPerLabor over the entries of one
// labor deployment.
func TotalLaborCost(entries []model.LaborEntry) float64 {
	var total float64
	for _, e := range entries {
		total += float64(e.LaborCount) * e.CostPerLabor
	}
	return total
}

// TotalConsumableCost sums the amounts of the given consumable deployments.
func TotalConsumableCost(deployments []model.ConsumableDeployment) float64 {
	var total float64
	for _, d := range deployments {
		total += d.Amount
	}
	return total
}

// Period is a closed date range used to filter reporting queries. A zero
// From or To leaves that side unbounded.
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && t.After(p.To) {
		return false
	}
	return true
}

// CodeSummary is one row of the accounting summary: all spend recorded
// against a single accounting code within a period.
type CodeSummary struct {
	Code             string  `json:"code"`
	Activity         string  `json:"activity"`
	LaborCost        float64 `json:"labor_cost"`
	LaborCount       int     `json:"labor_count"`
	ConsumableCost   float64 `json:"consumable_cost"`
	Deployments      int     `json:"deployments"`
	TotalExpenditure float64 `json:"total_expenditure"`
}

// Summarize groups labor and consumable deployments by accounting code,
// filtered to the period, and resolves activity names from the code table.
// Rows come back sorted by code; codes with no activity on record keep an
// empty activity name.
func Summarize(labor []model.LaborDeployment, consumables []model.ConsumableDeployment, activities []model.AccountActivity, period Period) []CodeSummary {
	names := make(map[string]string, len(activities))
	for _, a := range activities {
		names[a.Code] = a.Activity
	}

	rows := make(map[string]*CodeSummary)
	row := func(code string) *CodeSummary {
		r, ok := rows[code]
		if !ok {
			r = &CodeSummary{Code: code, Activity: names[code]}
			rows[code] = r
		}
		return r
	}

	for _, d := range labor {
		if !period.Contains(d.Date) {
			continue
		}
		r := row(d.Code)
		r.LaborCost += d.TotalCost
		r.Deployments++
		for _, e := range d.Entries {
			r.LaborCount += e.LaborCount
		}
	}

	for _, d := range consumables {
		if !period.Contains(d.Date) {
			continue
		}
		r := row(d.Code)
		r.ConsumableCost += d.Amount
		r.Deployments++
	}

	out := make([]CodeSummary, 0, len(rows))
	for _, r := range rows {
		r.TotalExpenditure = r.LaborCost + r.ConsumableCost
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// GrandTotal sums a summary's expenditure columns into one trailing row.
func GrandTotal(rows []CodeSummary) CodeSummary {
	total := CodeSummary{Code: "TOTAL"}
	for _, r := range rows {
		total.LaborCost += r.LaborCost
		total.LaborCount += r.LaborCount
		total.ConsumableCost += r.ConsumableCost
		total.Deployments += r.Deployments
		total.TotalExpenditure += r.TotalExpenditure
	}
	return total
}
