package utils

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestETLLogger_DebugOnlyWhenVerbose(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	quiet := NewETLLoggerWithCore(core, false)
	quiet.Debug("скрыто %d", 1)
	quiet.Info("видно %d", 2)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "видно 2", logs.All()[0].Message)

	verbose := NewETLLoggerWithCore(core, true)
	verbose.Debug("отладка %s", "on")
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[1].Level)
}

func TestETLLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewETLLoggerWithCore(core, true)

	l.Warn("w")
	l.Error("e: %v", assert.AnError)
	l.LogExtractComplete(10, "cache", time.Second)

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Contains(t, entries[3].Message, "cache")
}

func TestNewETLLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etl.log")

	l, err := NewETLLogger(false, path)
	require.NoError(t, err)
	l.Info("запись в файл")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "запись в файл")
}

func TestPipelineMetrics(t *testing.T) {
	m := NewPipelineMetrics()

	m.AddRows("kaggle", 10)
	m.AddRows("synthetic", 5)
	m.AddRows("synthetic", 5)
	m.AddValidationFailures(map[string]int{"Sales:gt": 3})
	m.AddOutputBytes("parquet", 2048)
	finished := time.Unix(1700000000, 0)
	m.ObserveRun("success", 2*time.Second, finished)
	m.ObserveRun("failed", time.Second, finished)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("kaggle")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("synthetic")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("Sales:gt")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.outputBytesTotal.WithLabelValues("parquet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lastRunDuration))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(m.lastSuccess))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sales_etl_rows_total")
}
