package linear_regression

import (
	"context"
	"time"
)

// MonthLayout формат месяца в таблице sales (order_month)
const MonthLayout = "2006-01"

// DataPoint представляет точку данных для линейной регрессии
type DataPoint struct {
	X     float64   // Порядковый номер месяца от начала периода
	Y     float64   // Выручка за месяц
	Month time.Time // Первое число месяца
}

// RegressionResult содержит результаты линейной регрессии
type RegressionResult struct {
	A           float64     // Коэффициент наклона (прирост выручки в месяц)
	B           float64     // Сдвиг
	R           float64     // Коэффициент корреляции Пирсона
	R2          float64     // Коэффициент детерминации
	PeriodStart time.Time   // Первый месяц периода
	PeriodEnd   time.Time   // Последний месяц периода
	DataPoints  []DataPoint // Исходные точки данных
}

// ForecastPoint представляет точку прогноза
type ForecastPoint struct {
	Month         time.Time `json:"month"`
	ForecastValue float64   `json:"forecast_value"`
	CILower       float64   `json:"ci_lower"`
	CIUpper       float64   `json:"ci_upper"`
}

// ForecastRepository интерфейс для работы с хранилищем прогнозов
type ForecastRepository interface {
	// EnsureTableExists создает таблицу revenue_forecast при необходимости
	EnsureTableExists(ctx context.Context) error

	// ReplaceForecasts заменяет прогнозы результатами нового запуска
	ReplaceForecasts(ctx context.Context, runID string, result RegressionResult, forecasts []ForecastPoint) error

	// GetForecasts возвращает сохраненные прогнозы по возрастанию месяца
	GetForecasts(ctx context.Context) ([]ForecastPoint, error)
}
