package transform

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
)

// ErrReconciliation сводные таблицы не сходятся с исходными строками
var ErrReconciliation = errors.New("сводные таблицы не сходятся с исходными данными")

// halfCent максимальная ошибка округления одной группы
var halfCent = decimal.New(5, -3)

// Reconcile сверяет сводные таблицы со строками: количество строк должно совпадать
// точно, суммы выручки групп с итогом - с точностью до округления каждой группы.
func Reconcile(sales []models.EnrichedSale, summary models.SummaryTables) error {
	raw := decimal.Zero
	for _, s := range sales {
		raw = raw.Add(decimal.NewFromFloat(s.Sales))
	}
	total := decimal.NewFromFloat(summary.Totals.Revenue)

	if summary.Totals.Rows != len(sales) {
		return fmt.Errorf("%w: totals.rows=%d, строк=%d", ErrReconciliation, summary.Totals.Rows, len(sales))
	}
	if !raw.Round(2).Equal(total) {
		return fmt.Errorf("%w: totals.revenue=%s, сумма строк=%s", ErrReconciliation, total, raw.Round(2))
	}

	var yearlyRows, segmentRows, regionalRows int
	yearly, segment, regional := decimal.Zero, decimal.Zero, decimal.Zero
	for _, y := range summary.Yearly {
		yearlyRows += y.Rows
		yearly = yearly.Add(decimal.NewFromFloat(y.Revenue))
	}
	for _, s := range summary.SegmentYearly {
		segmentRows += s.Rows
		segment = segment.Add(decimal.NewFromFloat(s.Revenue))
	}
	for _, r := range summary.Regional {
		regionalRows += r.Rows
		regional = regional.Add(decimal.NewFromFloat(r.Revenue))
	}

	checks := []struct {
		table   string
		rows    int
		revenue decimal.Decimal
		groups  int
	}{
		{"yearly", yearlyRows, yearly, len(summary.Yearly)},
		{"segment_yearly", segmentRows, segment, len(summary.SegmentYearly)},
		{"regional_revenue", regionalRows, regional, len(summary.Regional)},
	}
	for _, c := range checks {
		if c.rows != len(sales) {
			return fmt.Errorf("%w: %s.rows=%d, строк=%d", ErrReconciliation, c.table, c.rows, len(sales))
		}
		tolerance := halfCent.Mul(decimal.NewFromInt(int64(c.groups)))
		if c.revenue.Sub(total).Abs().GreaterThan(tolerance) {
			return fmt.Errorf("%w: %s.revenue=%s, totals.revenue=%s", ErrReconciliation, c.table, c.revenue, total)
		}
	}

	return nil
}
