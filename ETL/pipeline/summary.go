package pipeline

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/LilVoxy/sales_analyzer/ETL/linear_regression"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
)

const recentRunsLimit = 5

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failedStyle = cellStyle.Foreground(lipgloss.Color("#FF6B6B"))
)

// YearRow строка сводки по годам из таблицы sales
type YearRow struct {
	OrderYear       int
	Rows            int
	Revenue         float64
	UniqueCustomers int
}

// SummaryReport содержимое отчета mode=summary
type SummaryReport struct {
	Years      []YearRow
	Totals     models.Totals
	RecentRuns []models.ETLRunLog
	Forecast   []linear_regression.ForecastPoint
}

// BuildSummary читает сводку из хранилища
func (r *ETLRunner) BuildSummary(ctx context.Context) (*SummaryReport, error) {
	db := r.dbConnections.Warehouse
	report := &SummaryReport{}

	rows, err := db.QueryContext(ctx, `
	SELECT order_year, COUNT(*), SUM(sales), COUNT(DISTINCT customer_id)
	FROM sales
	GROUP BY order_year
	ORDER BY order_year`)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении таблицы sales (ETL ещё не запускался?): %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var y YearRow
		if err := rows.Scan(&y.OrderYear, &y.Rows, &y.Revenue, &y.UniqueCustomers); err != nil {
			return nil, fmt.Errorf("ошибка при чтении данных: %w", err)
		}
		report.Years = append(report.Years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по результатам: %w", err)
	}

	err = db.QueryRowContext(ctx, `
	SELECT COUNT(*), COALESCE(SUM(sales), 0), COUNT(DISTINCT customer_id), COUNT(DISTINCT product_id)
	FROM sales`).Scan(
		&report.Totals.Rows,
		&report.Totals.Revenue,
		&report.Totals.UniqueCustomers,
		&report.Totals.UniqueProducts,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчете итогов: %w", err)
	}

	if report.RecentRuns, err = r.etlLogRepo.GetRecentRuns(recentRunsLimit); err != nil {
		return nil, err
	}

	// Таблицы прогноза может не быть, если прогноз отключен
	forecasts, err := linear_regression.NewSQLForecastRepository(db, r.dbConnections.Driver).GetForecasts(ctx)
	if err != nil {
		r.logger.Debug("Прогноз недоступен: %v", err)
	} else {
		report.Forecast = forecasts
	}

	return report, nil
}

// PrintSummary выводит сводку хранилища в виде таблиц
func (r *ETLRunner) PrintSummary(ctx context.Context, w io.Writer) error {
	report, err := r.BuildSummary(ctx)
	if err != nil {
		return err
	}
	report.Render(w)
	return nil
}

// Render печатает отчет
func (s *SummaryReport) Render(w io.Writer) {
	p := message.NewPrinter(language.English)

	years := make([][]string, 0, len(s.Years))
	for _, y := range s.Years {
		years = append(years, []string{
			strconv.Itoa(y.OrderYear),
			p.Sprintf("%d", y.Rows),
			p.Sprintf("%.2f", y.Revenue),
			p.Sprintf("%d", y.UniqueCustomers),
		})
	}
	fmt.Fprintln(w, titleStyle.Render("Продажи по годам"))
	fmt.Fprintln(w, newTable([]string{"Год", "Строк", "Выручка", "Клиентов"}, years, nil))

	fmt.Fprintln(w, titleStyle.Render("Итого"))
	fmt.Fprintln(w, newTable(
		[]string{"Строк", "Выручка", "Клиентов", "Товаров"},
		[][]string{{
			p.Sprintf("%d", s.Totals.Rows),
			p.Sprintf("%.2f", s.Totals.Revenue),
			p.Sprintf("%d", s.Totals.UniqueCustomers),
			p.Sprintf("%d", s.Totals.UniqueProducts),
		}},
		nil,
	))

	if len(s.Forecast) > 0 {
		forecast := make([][]string, 0, len(s.Forecast))
		for _, f := range s.Forecast {
			forecast = append(forecast, []string{
				f.Month.Format(linear_regression.MonthLayout),
				p.Sprintf("%.2f", f.ForecastValue),
				p.Sprintf("%.2f .. %.2f", f.CILower, f.CIUpper),
			})
		}
		fmt.Fprintln(w, titleStyle.Render("Прогноз выручки"))
		fmt.Fprintln(w, newTable([]string{"Месяц", "Прогноз", "Интервал"}, forecast, nil))
	}

	runs := make([][]string, 0, len(s.RecentRuns))
	failed := make(map[int]bool)
	for i, run := range s.RecentRuns {
		end := "-"
		if !run.EndTime.IsZero() {
			end = run.EndTime.Format("2006-01-02 15:04:05")
		}
		runs = append(runs, []string{
			run.StartTime.Format("2006-01-02 15:04:05"),
			end,
			run.Status,
			run.Source,
			p.Sprintf("%d", run.TotalRows),
			p.Sprintf("%.2f", run.RevenueTotal),
		})
		failed[i] = run.Status == models.RunStatusFailed
	}
	fmt.Fprintln(w, titleStyle.Render("Последние запуски"))
	fmt.Fprintln(w, newTable([]string{"Начало", "Конец", "Статус", "Источник", "Строк", "Выручка"}, runs, failed))
}

func newTable(headers []string, rows [][]string, highlight map[int]bool) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case highlight[row]:
				return failedStyle
			default:
				return cellStyle
			}
		}).
		Render()
}
