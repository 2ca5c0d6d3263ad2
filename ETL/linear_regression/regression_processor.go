package linear_regression

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// RegressionProcessor строит тренд помесячной выручки и сохраняет прогноз
type RegressionProcessor struct {
	dataService *DataService
	repository  ForecastRepository
	logger      *utils.ETLLogger
	config      config.ForecastConfig
}

// NewRegressionProcessor создает новый процессор линейной регрессии
func NewRegressionProcessor(
	dataService *DataService,
	repository ForecastRepository,
	logger *utils.ETLLogger,
	cfg config.ForecastConfig,
) *RegressionProcessor {
	return &RegressionProcessor{
		dataService: dataService,
		repository:  repository,
		logger:      logger,
		config:      cfg,
	}
}

// Process читает выручку, строит модель и заменяет сохраненный прогноз
func (p *RegressionProcessor) Process(ctx context.Context, runID string) ([]ForecastPoint, error) {
	startTime := time.Now()
	p.logger.Info("Запуск прогноза выручки на %d мес.", p.config.ForecastMonths)

	if err := p.repository.EnsureTableExists(ctx); err != nil {
		return nil, err
	}

	dataPoints, err := p.dataService.GetMonthlyRevenue(ctx, p.config.AnalysisMonths)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Получено %d месяцев для анализа", len(dataPoints))

	result, err := LinearRegression(dataPoints)
	if err != nil {
		return nil, fmt.Errorf("ошибка при построении модели линейной регрессии: %w", err)
	}

	p.logger.Info("Модель: a=%.2f, b=%.2f, R=%.3f, R²=%.3f, период %s..%s",
		result.A, result.B, result.R, result.R2,
		result.PeriodStart.Format(MonthLayout), result.PeriodEnd.Format(MonthLayout))

	if result.R2 < p.config.MinR2Threshold {
		p.logger.Warn("Низкое качество модели (R²=%.3f < %.3f), прогноз носит ориентировочный характер",
			result.R2, p.config.MinR2Threshold)
	}

	forecasts := GenerateForecasts(result, p.config.ForecastMonths, p.config.ConfidenceLevel)

	if err := p.repository.ReplaceForecasts(ctx, runID, *result, forecasts); err != nil {
		return nil, err
	}

	p.logger.Info("Прогноз выручки сохранен (%d мес.). Время выполнения: %v", len(forecasts), time.Since(startTime))
	return forecasts, nil
}

// RunWithConfig строит прогноз по таблице sales хранилища
func RunWithConfig(ctx context.Context, db *sql.DB, dialect, runID string, logger *utils.ETLLogger, cfg config.ForecastConfig) ([]ForecastPoint, error) {
	processor := NewRegressionProcessor(
		NewDataService(db),
		NewSQLForecastRepository(db, dialect),
		logger,
		cfg,
	)
	return processor.Process(ctx, runID)
}
