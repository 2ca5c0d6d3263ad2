package linear_regression

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DataService читает помесячную выручку из таблицы sales хранилища
type DataService struct {
	db *sql.DB
}

// NewDataService создает новый сервис для работы с данными
func NewDataService(db *sql.DB) *DataService {
	return &DataService{
		db: db,
	}
}

// GetMonthlyRevenue возвращает выручку за последние months месяцев, по которым есть продажи.
// X отсчитывается в календарных месяцах, поэтому пропуски не сдвигают тренд.
func (s *DataService) GetMonthlyRevenue(ctx context.Context, months int) ([]DataPoint, error) {
	query := `
	SELECT order_month, SUM(sales)
	FROM sales
	GROUP BY order_month
	ORDER BY order_month`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе помесячной выручки: %w", err)
	}
	defer rows.Close()

	type monthRevenue struct {
		month   time.Time
		revenue float64
	}
	var all []monthRevenue

	for rows.Next() {
		var raw string
		var revenue float64
		if err := rows.Scan(&raw, &revenue); err != nil {
			return nil, fmt.Errorf("ошибка при чтении данных: %w", err)
		}
		month, err := time.Parse(MonthLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("неверный месяц %q в таблице sales: %w", raw, err)
		}
		all = append(all, monthRevenue{month: month, revenue: revenue})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по результатам: %w", err)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("%w: таблица sales пуста", ErrNotEnoughData)
	}

	// Окно анализа отсчитывается от последнего месяца с продажами
	last := all[len(all)-1].month
	from := last.AddDate(0, -(months - 1), 0)

	var points []DataPoint
	for _, m := range all {
		if m.month.Before(from) {
			continue
		}
		points = append(points, DataPoint{
			X:     float64(monthIndex(from, m.month)),
			Y:     RoundToCents(m.revenue),
			Month: m.month,
		})
	}

	return points, nil
}
