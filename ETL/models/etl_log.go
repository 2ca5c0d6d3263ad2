package models

import (
	"time"
)

// Статусы запуска ETL
const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// ETLRunLog представляет запись о запуске ETL процесса
type ETLRunLog struct {
	ID                   int64     `json:"id"`
	RunID                string    `json:"run_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // "success", "failed", "in_progress"
	Source               string    `json:"source"`
	SourceRows           int       `json:"source_rows"`
	SyntheticRows        int       `json:"synthetic_rows"`
	TotalRows            int       `json:"total_rows"`
	InvalidRows          int       `json:"invalid_rows"`
	RevenueTotal         float64   `json:"revenue_total"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// RunCounts итоговые счётчики успешного запуска
type RunCounts struct {
	Source        string
	SourceRows    int
	SyntheticRows int
	TotalRows     int
	InvalidRows   int
	Revenue       float64
}

// ETLLogRepository представляет репозиторий для работы с логами ETL
type ETLLogRepository interface {
	// CreateETLLogTable создает таблицу журнала, если её нет
	CreateETLLogTable() error

	// CreateLogEntry создает новую запись о запуске ETL
	CreateLogEntry(runID string, startTime time.Time) (int64, error)

	// UpdateLogEntrySuccess обновляет запись при успешном завершении ETL
	UpdateLogEntrySuccess(id int64, endTime time.Time, counts RunCounts) error

	// UpdateLogEntryFailure обновляет запись при неудачном завершении ETL
	UpdateLogEntryFailure(id int64, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun получает информацию о последнем успешном запуске ETL
	GetLastSuccessfulRun() (*ETLRunLog, error)

	// GetRecentRuns возвращает последние limit запусков, новые первыми
	GetRecentRuns(limit int) ([]ETLRunLog, error)
}
