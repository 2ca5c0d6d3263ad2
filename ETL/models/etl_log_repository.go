package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const etlRunLogColumns = `
		id, run_id, start_time, end_time, status, source,
		source_rows, synthetic_rows, total_rows, invalid_rows,
		revenue_total, COALESCE(error_message, ''), COALESCE(execution_time_seconds, 0)`

// SQLETLLogRepository реализация ETLLogRepository поверх хранилища (sqlite или mysql)
type SQLETLLogRepository struct {
	db      *sql.DB
	dialect string
}

// NewSQLETLLogRepository создает новый экземпляр SQLETLLogRepository.
// dialect - драйвер хранилища: "sqlite" или "mysql".
func NewSQLETLLogRepository(db *sql.DB, dialect string) *SQLETLLogRepository {
	return &SQLETLLogRepository{
		db:      db,
		dialect: dialect,
	}
}

// CreateETLLogTable создает таблицу для логирования ETL процесса, если она не существует
func (r *SQLETLLogRepository) CreateETLLogTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS etl_run_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME NULL,
		status TEXT NOT NULL DEFAULT 'in_progress',
		source TEXT NOT NULL DEFAULT '',
		source_rows INTEGER DEFAULT 0,
		synthetic_rows INTEGER DEFAULT 0,
		total_rows INTEGER DEFAULT 0,
		invalid_rows INTEGER DEFAULT 0,
		revenue_total DOUBLE DEFAULT 0,
		error_message TEXT,
		execution_time_seconds DOUBLE
	);
	`
	if r.dialect == "mysql" {
		query = `
	CREATE TABLE IF NOT EXISTS etl_run_log (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		run_id CHAR(36) NOT NULL,
		start_time DATETIME(3) NOT NULL,
		end_time DATETIME(3) NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		source VARCHAR(16) NOT NULL DEFAULT '',
		source_rows INT DEFAULT 0,
		synthetic_rows INT DEFAULT 0,
		total_rows INT DEFAULT 0,
		invalid_rows INT DEFAULT 0,
		revenue_total DOUBLE DEFAULT 0,
		error_message TEXT,
		execution_time_seconds DOUBLE
	);
	`
	}

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы etl_run_log: %w", err)
	}

	return nil
}

// CreateLogEntry создает новую запись о запуске ETL
func (r *SQLETLLogRepository) CreateLogEntry(runID string, startTime time.Time) (int64, error) {
	query := `
	INSERT INTO etl_run_log (run_id, start_time, status)
	VALUES (?, ?, 'in_progress')
	`

	result, err := r.db.Exec(query, runID, startTime.UTC())
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании записи о запуске ETL: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID созданной записи: %w", err)
	}

	return id, nil
}

func (r *SQLETLLogRepository) executionTime(id int64, endTime time.Time) (float64, error) {
	var startTime time.Time
	err := r.db.QueryRow("SELECT start_time FROM etl_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении времени начала ETL: %w", err)
	}
	return endTime.Sub(startTime).Seconds(), nil
}

// UpdateLogEntrySuccess обновляет запись при успешном завершении ETL
func (r *SQLETLLogRepository) UpdateLogEntrySuccess(id int64, endTime time.Time, counts RunCounts) error {
	executionTime, err := r.executionTime(id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'success',
		source = ?,
		source_rows = ?,
		synthetic_rows = ?,
		total_rows = ?,
		invalid_rows = ?,
		revenue_total = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(
		query,
		endTime.UTC(),
		counts.Source,
		counts.SourceRows,
		counts.SyntheticRows,
		counts.TotalRows,
		counts.InvalidRows,
		counts.Revenue,
		executionTime,
		id,
	)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске ETL: %w", err)
	}

	return nil
}

// UpdateLogEntryFailure обновляет запись при неудачном завершении ETL
func (r *SQLETLLogRepository) UpdateLogEntryFailure(id int64, endTime time.Time, errorMessage string) error {
	executionTime, err := r.executionTime(id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(query, endTime.UTC(), errorMessage, executionTime, id)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске ETL: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRunLog(s rowScanner) (ETLRunLog, error) {
	var log ETLRunLog
	var endTime sql.NullTime
	err := s.Scan(
		&log.ID, &log.RunID, &log.StartTime, &endTime, &log.Status, &log.Source,
		&log.SourceRows, &log.SyntheticRows, &log.TotalRows, &log.InvalidRows,
		&log.RevenueTotal, &log.ErrorMessage, &log.ExecutionTimeSeconds,
	)
	if endTime.Valid {
		log.EndTime = endTime.Time
	}
	return log, err
}

// GetLastSuccessfulRun получает информацию о последнем успешном запуске ETL.
// Если успешных запусков не было, возвращает nil, nil.
func (r *SQLETLLogRepository) GetLastSuccessfulRun() (*ETLRunLog, error) {
	query := `SELECT ` + etlRunLogColumns + `
	FROM etl_run_log
	WHERE status = 'success'
	ORDER BY end_time DESC, id DESC
	LIMIT 1
	`

	log, err := scanRunLog(r.db.QueryRow(query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Нет успешных запусков
		}
		return nil, fmt.Errorf("ошибка при получении информации о последнем успешном запуске ETL: %w", err)
	}

	return &log, nil
}

// GetRecentRuns получает последние limit запусков ETL
func (r *SQLETLLogRepository) GetRecentRuns(limit int) ([]ETLRunLog, error) {
	query := `SELECT ` + etlRunLogColumns + `
	FROM etl_run_log
	ORDER BY start_time DESC, id DESC
	LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка запусков ETL: %w", err)
	}
	defer rows.Close()

	var logs []ETLRunLog
	for rows.Next() {
		log, err := scanRunLog(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи о запуске ETL: %w", err)
		}
		logs = append(logs, log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по записям о запусках ETL: %w", err)
	}

	return logs, nil
}
