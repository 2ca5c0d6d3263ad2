package load

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// LoadManager отвечает за управление процессом загрузки данных
type LoadManager struct {
	logger  *utils.ETLLogger
	loaders []Loader
}

// NewLoadManager создает новый экземпляр LoadManager.
// uploader может быть nil, тогда публикация в S3 не выполняется.
func NewLoadManager(cfg config.ETLConfig, db *sql.DB, uploader ObjectUploader, logger *utils.ETLLogger) *LoadManager {
	parquetWriter := NewParquetWriter(cfg.Output.Dir, cfg.Output.ParquetDir, logger)

	loaders := []Loader{
		NewWarehouseLoader(db, cfg.Warehouse.Driver, logger),
		parquetWriter,
		NewCSVWriter(cfg.Output.Dir, logger),
		NewJSONWriter(cfg.Output.Dir),
	}
	if cfg.Output.WriteExcel {
		loaders = append(loaders, NewExcelWriter(cfg.Output.Dir))
	}
	if uploader != nil && cfg.Publish.Enabled() {
		loaders = append(loaders, NewS3Publisher(uploader, cfg.Publish, parquetWriter, logger))
	}

	return NewLoadManagerWithLoaders(logger, loaders...)
}

// NewLoadManagerWithLoaders собирает менеджер из произвольных шагов
func NewLoadManagerWithLoaders(logger *utils.ETLLogger, loaders ...Loader) *LoadManager {
	return &LoadManager{
		logger:  logger,
		loaders: loaders,
	}
}

// Load выполняет фазу загрузки данных ETL-процесса.
// Шаги выполняются по порядку, первая ошибка прерывает загрузку.
func (m *LoadManager) Load(ctx context.Context, transformedData *models.TransformedData) (*LoadResult, error) {
	startTime := time.Now()
	m.logger.Info("Начало фазы Load (Загрузка данных)")

	result := &LoadResult{}
	for _, loader := range m.loaders {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		m.logger.Info("Загрузка: %s...", loader.Name())
		artifacts, err := loader.Load(ctx, transformedData)
		if err != nil {
			m.logger.Error("Ошибка на шаге %s: %v", loader.Name(), err)
			return result, fmt.Errorf("ошибка при загрузке (%s): %w", loader.Name(), err)
		}
		result.Artifacts = append(result.Artifacts, artifacts...)
	}

	duration := time.Since(startTime)
	m.logger.Info("Фаза Load завершена. Артефактов: %d. Длительность: %v", len(result.Artifacts), duration)

	return result, nil
}
