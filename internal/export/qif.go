// Package export produces the accounting interchange files: a CSV summary
// with trailing aggregate rows and QIF, plus the QIF restoration parser
// used to rebuild expense records from a previously exported file.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/greenridge/farmops/internal/model"
)

// qifDateLayout is the date format QIF-consuming tools expect.
const qifDateLayout = "01/02/2006"

// QIFRecord is one bank transaction block in a QIF file. Amount follows
// the QIF sign convention: expenses are negative.
type QIFRecord struct {
	Date     time.Time
	Amount   float64
	Payee    string
	Category string
	Memo     string
}

// round2 normalizes amounts to 2 decimals, the precision QIF files carry.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WriteQIF writes records as a single !Type:Bank section. Field order
// within each block (D, T, P, L, M, ^) is fixed for compatibility with
// QIF-consuming tools.
func WriteQIF(w io.Writer, records []QIFRecord) error {
	if _, err := fmt.Fprintln(w, "!Type:Bank"); err != nil {
		return err
	}
	for _, rec := range records {
		lines := []string{
			"D" + rec.Date.Format(qifDateLayout),
			"T" + strconv.FormatFloat(round2(rec.Amount), 'f', 2, 64),
		}
		if rec.Payee != "" {
			lines = append(lines, "P"+rec.Payee)
		}
		if rec.Category != "" {
			lines = append(lines, "L"+rec.Category)
		}
		if rec.Memo != "" {
			lines = append(lines, "M"+rec.Memo)
		}
		lines = append(lines, "^")
		if _, err := fmt.Fprintln(w, strings.Join(lines, "\n")); err != nil {
			return err
		}
	}
	return nil
}

// ParseQIF reads a QIF bank section back into records. Unknown field
// codes are skipped; a block without a date or amount is rejected.
func ParseQIF(r io.Reader) ([]QIFRecord, error) {
	var (
		records []QIFRecord
		current QIFRecord
		hasDate bool
		hasAmt  bool
		line    int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "!") {
			continue
		}

		code, value := text[:1], text[1:]
		switch code {
		case "D":
			d, err := time.Parse(qifDateLayout, value)
			if err != nil {
				return nil, fmt.Errorf("export: line %d: bad QIF date %q: %w", line, value, err)
			}
			current.Date = d
			hasDate = true
		case "T":
			amt, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
			if err != nil {
				return nil, fmt.Errorf("export: line %d: bad QIF amount %q: %w", line, value, err)
			}
			current.Amount = round2(amt)
			hasAmt = true
		case "P":
			current.Payee = value
		case "L":
			current.Category = value
		case "M":
			current.Memo = value
		case "^":
			if !hasDate || !hasAmt {
				return nil, fmt.Errorf("export: line %d: QIF block missing date or amount", line)
			}
			records = append(records, current)
			current = QIFRecord{}
			hasDate, hasAmt = false, false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// RecordsFromDeployments flattens labor and consumable deployments into
// QIF records. Every deployment is an expense, so amounts come out
// negative. The category is the accounting code and the payee is the
// activity name when one is on record.
func RecordsFromDeployments(labor []model.LaborDeployment, consumables []model.ConsumableDeployment, activities []model.AccountActivity) []QIFRecord {
	names := make(map[string]string, len(activities))
	for _, a := range activities {
		names[a.Code] = a.Activity
	}

	records := make([]QIFRecord, 0, len(labor)+len(consumables))
	for _, d := range labor {
		records = append(records, QIFRecord{
			Date:     d.Date,
			Amount:   -round2(d.TotalCost),
			Payee:    payee(names[d.Code], d.Reference),
			Category: d.Code,
			Memo:     d.Notes,
		})
	}
	for _, d := range consumables {
		records = append(records, QIFRecord{
			Date:     d.Date,
			Amount:   -round2(d.Amount),
			Payee:    payee(names[d.Code], d.Reference),
			Category: d.Code,
			Memo:     d.Notes,
		})
	}
	return records
}

func payee(activity, reference string) string {
	if activity != "" {
		return activity
	}
	return reference
}

// RestoreConsumables rebuilds flat expense records from parsed QIF. The
// QIF sign convention is inverted back: a -1500.00 bank line becomes a
// 1500.00 expense amount.
func RestoreConsumables(records []QIFRecord, user string) []model.ConsumableDeployment {
	deployments := make([]model.ConsumableDeployment, 0, len(records))
	for _, rec := range records {
		deployments = append(deployments, model.ConsumableDeployment{
			Date:      rec.Date,
			Code:      rec.Category,
			Reference: rec.Payee,
			Amount:    round2(-rec.Amount),
			Notes:     rec.Memo,
			User:      user,
		})
	}
	return deployments
}
