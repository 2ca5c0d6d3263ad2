package models

import (
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "log.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLETLLogRepository_SQLiteLifecycle(t *testing.T) {
	repo := NewSQLETLLogRepository(openTestDB(t), "sqlite")
	require.NoError(t, repo.CreateETLLogTable())
	// повторный вызов не должен падать
	require.NoError(t, repo.CreateETLLogTable())

	last, err := repo.GetLastSuccessfulRun()
	require.NoError(t, err)
	assert.Nil(t, last)

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	okID, err := repo.CreateLogEntry(uuid.NewString(), start)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateLogEntrySuccess(okID, start.Add(3*time.Second), RunCounts{
		Source:        SourceKaggle,
		SourceRows:    9800,
		SyntheticRows: 5000,
		TotalRows:     14800,
		Revenue:       1234.5,
	}))

	failID, err := repo.CreateLogEntry(uuid.NewString(), start.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateLogEntryFailure(failID, start.Add(time.Hour+time.Second), "boom"))

	last, err = repo.GetLastSuccessfulRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, okID, last.ID)
	assert.Equal(t, RunStatusSuccess, last.Status)
	assert.Equal(t, 14800, last.TotalRows)
	assert.Equal(t, SourceKaggle, last.Source)
	assert.InDelta(t, 3.0, last.ExecutionTimeSeconds, 0.01)

	runs, err := repo.GetRecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, failID, runs[0].ID)
	assert.Equal(t, RunStatusFailed, runs[0].Status)
	assert.Equal(t, "boom", runs[0].ErrorMessage)
}

func TestSQLETLLogRepository_MySQLDialect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLETLLogRepository(db, "mysql")

	mock.ExpectExec(regexp.QuoteMeta("AUTO_INCREMENT PRIMARY KEY")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO etl_run_log")).
		WithArgs("run-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	require.NoError(t, repo.CreateETLLogTable())
	id, err := repo.CreateLogEntry("run-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLETLLogRepository_UpdateUnknownID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT start_time FROM etl_run_log")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	repo := NewSQLETLLogRepository(db, "mysql")
	err = repo.UpdateLogEntryFailure(42, time.Now(), "x")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
