package linear_regression

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLForecastRepository хранит прогнозы выручки в таблице revenue_forecast
type SQLForecastRepository struct {
	db      *sql.DB
	dialect string
}

// NewSQLForecastRepository создает новый репозиторий для работы с прогнозами
func NewSQLForecastRepository(db *sql.DB, dialect string) *SQLForecastRepository {
	return &SQLForecastRepository{
		db:      db,
		dialect: dialect,
	}
}

// EnsureTableExists проверяет наличие таблицы и создает ее при необходимости
func (r *SQLForecastRepository) EnsureTableExists(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS revenue_forecast (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		a DOUBLE NOT NULL,
		b DOUBLE NOT NULL,
		r DOUBLE NOT NULL,
		r2 DOUBLE NOT NULL,
		forecast_month TEXT NOT NULL,
		forecast_value DOUBLE NOT NULL,
		ci_lower DOUBLE NOT NULL,
		ci_upper DOUBLE NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if r.dialect == "mysql" {
		query = `
	CREATE TABLE IF NOT EXISTS revenue_forecast (
		id INT AUTO_INCREMENT PRIMARY KEY,
		run_id CHAR(36) NOT NULL,
		period_start CHAR(7) NOT NULL,
		period_end CHAR(7) NOT NULL,
		a DOUBLE NOT NULL,
		b DOUBLE NOT NULL,
		r DOUBLE NOT NULL,
		r2 DOUBLE NOT NULL,
		forecast_month CHAR(7) NOT NULL,
		forecast_value DOUBLE NOT NULL,
		ci_lower DOUBLE NOT NULL,
		ci_upper DOUBLE NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_forecast_month (forecast_month)
	);`
	}

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка при создании таблицы revenue_forecast: %w", err)
	}
	return nil
}

// ReplaceForecasts заменяет прогнозы в одной транзакции
func (r *SQLForecastRepository) ReplaceForecasts(ctx context.Context, runID string, result RegressionResult, forecasts []ForecastPoint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM revenue_forecast"); err != nil {
		return fmt.Errorf("не удалось очистить revenue_forecast: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO revenue_forecast
		(run_id, period_start, period_end, a, b, r, r2, forecast_month, forecast_value, ci_lower, ci_upper)
	VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("не удалось подготовить запрос: %w", err)
	}
	defer stmt.Close()

	for _, f := range forecasts {
		_, err := stmt.ExecContext(ctx,
			runID,
			result.PeriodStart.Format(MonthLayout),
			result.PeriodEnd.Format(MonthLayout),
			result.A,
			result.B,
			result.R,
			result.R2,
			f.Month.Format(MonthLayout),
			f.ForecastValue,
			f.CILower,
			f.CIUpper,
		)
		if err != nil {
			return fmt.Errorf("не удалось сохранить прогноз на %s: %w", f.Month.Format(MonthLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}
	return nil
}

// GetForecasts получает сохраненные прогнозы
func (r *SQLForecastRepository) GetForecasts(ctx context.Context) ([]ForecastPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT forecast_month, forecast_value, ci_lower, ci_upper
	FROM revenue_forecast
	ORDER BY forecast_month`)
	if err != nil {
		return nil, fmt.Errorf("ошибка при выполнении запроса: %w", err)
	}
	defer rows.Close()

	var forecasts []ForecastPoint
	for rows.Next() {
		var month string
		var f ForecastPoint
		if err := rows.Scan(&month, &f.ForecastValue, &f.CILower, &f.CIUpper); err != nil {
			return nil, fmt.Errorf("ошибка при чтении данных: %w", err)
		}
		if f.Month, err = time.Parse(MonthLayout, month); err != nil {
			return nil, fmt.Errorf("неверный месяц прогноза %q: %w", month, err)
		}
		forecasts = append(forecasts, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по результатам: %w", err)
	}

	return forecasts, nil
}
