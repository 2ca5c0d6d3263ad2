package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/extractors"
	"github.com/LilVoxy/sales_analyzer/ETL/linear_regression"
	"github.com/LilVoxy/sales_analyzer/ETL/load"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/transform"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// ETLRunner связывает фазы Extract, Transform и Load с журналом запусков
type ETLRunner struct {
	config          config.ETLConfig
	dbConnections   *config.DBConnections
	logger          *utils.ETLLogger
	metrics         *utils.PipelineMetrics
	extractor       *extractors.Extractor
	transformer     *transform.Transformer
	loadManager     *load.LoadManager
	etlLogRepo      models.ETLLogRepository
	lastRunMetadata models.ETLMetadata
	lastLoadResult  *load.LoadResult
}

// NewETLRunner создает новый экземпляр ETLRunner.
// downloader может быть nil, тогда используется KaggleDownloader.
func NewETLRunner(ctx context.Context, etlConfig config.ETLConfig, downloader extractors.Downloader, logger *utils.ETLLogger) (*ETLRunner, error) {
	logger.Info("Инициализация ETL Runner")

	// Подключаемся к хранилищу
	connections, err := config.ConnectDatabases(etlConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базам данных: %w", err)
	}

	// Журнал запусков живет в том же хранилище
	etlLogRepo := models.NewSQLETLLogRepository(connections.Warehouse, connections.Driver)
	if err := etlLogRepo.CreateETLLogTable(); err != nil {
		config.CloseDatabases(connections)
		return nil, fmt.Errorf("ошибка при создании таблицы логов ETL: %w", err)
	}

	// Клиент S3 нужен только при настроенной публикации
	var uploader load.ObjectUploader
	if etlConfig.Publish.Enabled() {
		client, err := load.NewS3Client(ctx, etlConfig.Publish)
		if err != nil {
			config.CloseDatabases(connections)
			return nil, err
		}
		uploader = client
	}

	return &ETLRunner{
		config:        etlConfig,
		dbConnections: connections,
		logger:        logger,
		metrics:       utils.NewPipelineMetrics(),
		extractor:     extractors.NewExtractor(etlConfig.Source, downloader, logger),
		transformer:   transform.NewTransformer(etlConfig, logger),
		loadManager:   load.NewLoadManager(etlConfig, connections.Warehouse, uploader, logger),
		etlLogRepo:    etlLogRepo,
	}, nil
}

// Close закрывает соединения с базами данных
func (r *ETLRunner) Close() {
	r.logger.Info("Завершение работы ETL Runner")
	config.CloseDatabases(r.dbConnections)
}

// Metrics возвращает метрики процесса
func (r *ETLRunner) Metrics() *utils.PipelineMetrics {
	return r.metrics
}

// LastRun возвращает метаданные последнего успешного запуска
func (r *ETLRunner) LastRun() models.ETLMetadata {
	return r.lastRunMetadata
}

// LastLoadResult возвращает артефакты последнего успешного запуска
func (r *ETLRunner) LastLoadResult() *load.LoadResult {
	return r.lastLoadResult
}

// ExecuteETL выполняет полный ETL процесс (полная перезагрузка)
func (r *ETLRunner) ExecuteETL(ctx context.Context) error {
	startTime := time.Now()
	runID := uuid.NewString()
	r.logger.LogETLStart(runID)

	// Создаем запись в журнале ETL
	logID, err := r.etlLogRepo.CreateLogEntry(runID, startTime)
	if err != nil {
		r.logger.Error("Ошибка при создании записи в журнале ETL: %v", err)
		return fmt.Errorf("ошибка при создании записи в журнале ETL: %w", err)
	}

	runLog := &models.ETLRunLog{
		ID:        logID,
		RunID:     runID,
		StartTime: startTime,
		Status:    models.RunStatusInProgress,
	}

	if lastRun, err := r.etlLogRepo.GetLastSuccessfulRun(); err != nil {
		r.logger.Warn("Не удалось получить информацию о последнем успешном запуске: %v", err)
	} else if lastRun != nil {
		r.logger.Debug("Последний успешный запуск: %v (строк: %d)", lastRun.EndTime, lastRun.TotalRows)
	}

	// 1. Фаза извлечения данных (Extract)
	extractedData, err := r.extractor.Extract(ctx)
	if err != nil {
		return r.fail(runLog, "Extract", err)
	}

	// 2. Фаза трансформации данных (Transform)
	transformedData, err := r.transformer.Transform(extractedData)
	if err != nil {
		return r.fail(runLog, "Transform", err)
	}
	transformedData.Metadata.RunID = runID
	r.metrics.AddValidationFailures(transformedData.Validation.Violations)

	// 3. Фаза загрузки данных (Load)
	loadResult, err := r.loadManager.Load(ctx, transformedData)
	if err != nil {
		return r.fail(runLog, "Load", err)
	}

	// 4. Прогноз выручки - некритичный шаг, ошибка не прерывает ETL
	if r.config.Forecast.Enabled {
		if _, err := linear_regression.RunWithConfig(ctx, r.dbConnections.Warehouse, r.dbConnections.Driver,
			runID, r.logger, r.config.Forecast); err != nil {
			r.logger.Warn("Прогноз выручки не построен: %v", err)
		}
	}

	meta := transformedData.Metadata
	r.updateETLRunLogSuccess(runLog, models.RunCounts{
		Source:        meta.Source,
		SourceRows:    meta.SourceRows,
		SyntheticRows: meta.SyntheticRows,
		TotalRows:     meta.TotalRows,
		InvalidRows:   meta.InvalidRows,
		Revenue:       meta.Revenue,
	})

	r.metrics.AddRows(meta.Source, meta.SourceRows)
	r.metrics.AddRows(models.SourceSynthetic, meta.SyntheticRows)
	for kind, n := range loadResult.BytesByKind() {
		r.metrics.AddOutputBytes(kind, n)
	}
	r.metrics.ObserveRun(models.RunStatusSuccess, time.Since(startTime), runLog.EndTime)

	r.lastRunMetadata = meta
	r.lastLoadResult = loadResult
	r.logger.LogETLComplete(startTime, meta.SourceRows, meta.SyntheticRows, meta.TotalRows)
	return nil
}

// fail фиксирует ошибку фазы в журнале и метриках
func (r *ETLRunner) fail(runLog *models.ETLRunLog, phase string, err error) error {
	errMsg := fmt.Sprintf("Ошибка в фазе %s: %v", phase, err)
	r.logger.Error(errMsg)
	r.updateETLRunLogFailure(runLog, errMsg)
	r.metrics.ObserveRun(models.RunStatusFailed, runLog.EndTime.Sub(runLog.StartTime), runLog.EndTime)
	return fmt.Errorf("ошибка в фазе %s: %w", phase, err)
}

// updateETLRunLogSuccess обновляет запись в журнале ETL при успешном завершении
func (r *ETLRunner) updateETLRunLogSuccess(runLog *models.ETLRunLog, counts models.RunCounts) {
	runLog.EndTime = time.Now()
	runLog.Status = models.RunStatusSuccess
	runLog.Source = counts.Source
	runLog.SourceRows = counts.SourceRows
	runLog.SyntheticRows = counts.SyntheticRows
	runLog.TotalRows = counts.TotalRows
	runLog.InvalidRows = counts.InvalidRows
	runLog.RevenueTotal = counts.Revenue

	if err := r.etlLogRepo.UpdateLogEntrySuccess(runLog.ID, runLog.EndTime, counts); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале ETL: %v", err)
	}
}

// updateETLRunLogFailure обновляет запись в журнале ETL при ошибке
func (r *ETLRunner) updateETLRunLogFailure(runLog *models.ETLRunLog, errorMessage string) {
	runLog.EndTime = time.Now()
	runLog.Status = models.RunStatusFailed
	runLog.ErrorMessage = errorMessage

	if err := r.etlLogRepo.UpdateLogEntryFailure(runLog.ID, runLog.EndTime, runLog.ErrorMessage); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале ETL: %v", err)
	}
}

// StartScheduler запускает ETL каждые RunInterval до отмены ctx.
// Первый запуск выполняется сразу. Если задан MetricsAddr, поднимается /metrics.
func (r *ETLRunner) StartScheduler(ctx context.Context) error {
	scheduler := gocron.NewScheduler(time.UTC)
	// Следующий запуск не начинается, пока не закончился предыдущий
	scheduler.SingletonModeAll()

	r.logger.Info("Запуск планировщика ETL с интервалом %v", r.config.RunInterval)

	_, err := scheduler.Every(r.config.RunInterval).Do(func() {
		r.logger.Info("Запланированный запуск ETL процесса")
		if err := r.ExecuteETL(ctx); err != nil {
			r.logger.Error("Ошибка при выполнении запланированного ETL: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("ошибка при настройке планировщика: %w", err)
	}

	var server *http.Server
	if r.config.MetricsAddr != "" {
		router := mux.NewRouter()
		router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)
		server = &http.Server{Addr: r.config.MetricsAddr, Handler: router}

		go func() {
			r.logger.Info("Метрики доступны на %s/metrics", r.config.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error("Ошибка сервера метрик: %v", err)
			}
		}()
	}

	scheduler.StartAsync()

	// Ожидаем сигнал остановки из контекста
	<-ctx.Done()

	scheduler.Stop()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	r.logger.Info("Планировщик ETL остановлен")
	return nil
}
