package extractors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// ErrNoSource не удалось получить датасет ни из одного источника
var ErrNoSource = errors.New("нет доступного источника данных")

// Downloader скачивает исходный CSV
type Downloader interface {
	Download(ctx context.Context) ([]byte, error)
}

// Extractor координирует процесс извлечения исходного датасета:
// локальный файл, затем загрузка из Kaggle, затем кэш
type Extractor struct {
	cfg        config.SourceConfig
	logger     *utils.ETLLogger
	downloader Downloader
	cache      *DatasetCache
	reader     *CSVReader
}

// NewExtractor создает новый экземпляр Extractor
func NewExtractor(cfg config.SourceConfig, downloader Downloader, logger *utils.ETLLogger) *Extractor {
	if downloader == nil {
		downloader = NewKaggleDownloader(cfg, nil)
	}
	return &Extractor{
		cfg:        cfg,
		logger:     logger,
		downloader: downloader,
		cache:      NewDatasetCache(cfg.CacheDir, cfg.FileName),
		reader:     NewCSVReader(),
	}
}

// Extract выполняет извлечение исходного датасета
func (e *Extractor) Extract(ctx context.Context) (*models.ExtractedData, error) {
	startTime := time.Now()
	e.logger.LogExtractStart()

	raw, source, sourcePath, err := e.fetch(ctx)
	if err != nil {
		return nil, err
	}

	records, err := e.reader.ReadBytes(raw, source)
	if err != nil {
		e.logger.Error("Ошибка при разборе CSV (%s): %v", sourcePath, err)
		return nil, fmt.Errorf("ошибка разбора датасета: %w", err)
	}

	e.logger.LogExtractComplete(len(records), source, time.Since(startTime))

	return &models.ExtractedData{
		Records:     records,
		Source:      source,
		SourcePath:  sourcePath,
		ExtractedAt: time.Now(),
	}, nil
}

func (e *Extractor) fetch(ctx context.Context) ([]byte, string, string, error) {
	if e.cfg.LocalPath != "" {
		data, err := os.ReadFile(e.cfg.LocalPath)
		if err == nil {
			e.logger.Info("Используется локальный файл %s", e.cfg.LocalPath)
			return data, models.SourceLocal, e.cfg.LocalPath, nil
		}
		e.logger.Warn("Локальный файл %s недоступен: %v", e.cfg.LocalPath, err)
	}

	var downloadErr error
	if !e.cfg.Offline {
		data, err := e.downloader.Download(ctx)
		if err == nil {
			e.logger.Info("Датасет %s скачан (%d байт)", e.cfg.Dataset, len(data))
			if info, err := e.cache.Store(data, time.Now()); err != nil {
				e.logger.Warn("Не удалось обновить кэш: %v", err)
			} else {
				e.logger.Debug("Кэш обновлён: %s (sha256 %s)", e.cache.DataPath(), info.SHA256)
			}
			return data, models.SourceKaggle, e.cfg.Dataset, nil
		}
		downloadErr = err
		e.logger.Warn("Не удалось скачать датасет %s: %v", e.cfg.Dataset, err)
	} else {
		downloadErr = errors.New("включен offline-режим")
	}

	data, info, err := e.cache.Load()
	if err != nil {
		e.logger.Error("Кэш недоступен: %v", err)
		return nil, "", "", fmt.Errorf("%w: загрузка: %v; кэш: %v", ErrNoSource, downloadErr, err)
	}
	e.logger.Info("Используется кэшированная копия от %s", info.FetchedAt.Format(time.RFC3339))
	return data, models.SourceCache, e.cache.DataPath(), nil
}
