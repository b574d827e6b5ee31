package export

import (
	"sort"

	"github.com/cockroachdb/apd/v3"

	"github.com/j-veylop/vault-usage-export/internal/models"
)

var decimalCtx = apd.BaseContext.WithPrecision(34)

// MonthlyTotals sums UsageTB per month across detailed rows. Placeholder and
// malformed months are skipped. Sums are exact decimals so that many small
// readings do not drift. Results are ordered by month.
func MonthlyTotals(rows []models.ExportRow) []models.MonthlyTotal {
	sums := make(map[string]*apd.Decimal)
	for i := range rows {
		if rows[i].UsageMonth == models.NotAvailable {
			continue
		}
		month, ok := models.NormalizeMonth(rows[i].UsageMonth)
		if !ok {
			continue
		}

		var v apd.Decimal
		if _, err := v.SetFloat64(rows[i].UsageTB); err != nil {
			continue
		}

		sum, exists := sums[month]
		if !exists {
			sum = new(apd.Decimal)
			sums[month] = sum
		}
		_, _ = decimalCtx.Add(sum, sum, &v)
	}

	months := make([]string, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Strings(months)

	totals := make([]models.MonthlyTotal, 0, len(months))
	for _, m := range months {
		sum := sums[m]
		var reduced apd.Decimal
		reduced.Reduce(sum)
		f, _ := reduced.Float64()
		totals = append(totals, models.MonthlyTotal{
			Month:   m,
			UsageTB: reduced.Text('f'),
			Value:   f,
		})
	}
	return totals
}

// TrendSeries returns the plotted values of MonthlyTotals.
func TrendSeries(totals []models.MonthlyTotal) []float64 {
	series := make([]float64, len(totals))
	for i, t := range totals {
		series[i] = t.Value
	}
	return series
}
