package transform

import (
	"fmt"
	"time"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/synthetic"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// Transformer координирует процесс преобразования: дополнение синтетикой,
// валидация, обогащение, агрегаты и сверка
type Transformer struct {
	cfg        config.ETLConfig
	logger     *utils.ETLLogger
	validator  *Validator
	aggregator *Aggregator
}

// NewTransformer создает новый экземпляр Transformer
func NewTransformer(cfg config.ETLConfig, logger *utils.ETLLogger) *Transformer {
	return &Transformer{
		cfg:        cfg,
		logger:     logger,
		validator:  NewValidator(cfg.Validation.Strict, logger),
		aggregator: NewAggregator(cfg.Output.TopProductsLimit),
	}
}

// Transform выполняет полный процесс преобразования извлеченных данных
func (t *Transformer) Transform(extractedData *models.ExtractedData) (*models.TransformedData, error) {
	startTime := time.Now()
	t.logger.Info("Начало фазы Transform (Преобразование данных)")

	// 1. Дополнение синтетическими строками. Генератор создаётся заново,
	// чтобы повторные запуски давали одинаковые строки
	t.logger.Info("Дополнение синтетическими строками...")
	generator := synthetic.NewGenerator(t.cfg.Synthetic, t.logger)
	augmented := generator.Augment(extractedData.Records, t.cfg.Synthetic.Rows)

	// 2. Валидация
	t.logger.Info("Проверка данных...")
	valid, report, err := t.validator.Validate(augmented)
	if err != nil {
		t.logger.Error("Ошибка валидации: %v", err)
		return nil, fmt.Errorf("ошибка валидации: %w", err)
	}

	// 3. Обогащение
	t.logger.Info("Формирование выходных строк...")
	sales := Enrich(valid)

	// 4. Агрегаты
	t.logger.Info("Формирование сводных таблиц...")
	summary := t.aggregator.Aggregate(sales)

	// 5. Сверка
	if err := Reconcile(sales, summary); err != nil {
		t.logger.Error("Ошибка сверки агрегатов: %v", err)
		return nil, err
	}
	t.logger.Debug("Сверка агрегатов пройдена: %d строк, выручка %.2f", summary.Totals.Rows, summary.Totals.Revenue)

	transformedData := &models.TransformedData{
		Sales:      sales,
		Summary:    summary,
		Validation: report,
		Metadata: models.ETLMetadata{
			Source:        extractedData.Source,
			SourcePath:    extractedData.SourcePath,
			SourceRows:    len(extractedData.Records),
			SyntheticRows: len(augmented) - len(extractedData.Records),
			TotalRows:     len(sales),
			InvalidRows:   report.InvalidRows,
			Revenue:       summary.Totals.Revenue,
			GeneratedAt:   time.Now().UTC(),
		},
	}

	duration := time.Since(startTime)
	t.logger.Info("Фаза Transform завершена. Длительность: %v", duration)

	return transformedData, nil
}
