package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/extractors"
	"github.com/LilVoxy/sales_analyzer/ETL/load"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/synthetic"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

const sourceRows = 40

func testConfig(t *testing.T) config.ETLConfig {
	t.Helper()
	dir := t.TempDir()

	cfg := config.GetConfig()
	cfg.Source.Offline = true
	cfg.Source.CacheDir = filepath.Join(dir, "cache")
	cfg.Output.Dir = filepath.Join(dir, "data")
	cfg.Output.ParquetDir = filepath.Join(dir, "data", "parquet")
	cfg.Warehouse.Path = filepath.Join(dir, "data", "sales.db")
	cfg.Synthetic.Rows = 60
	cfg.LogFile = ""
	return cfg
}

// writeSource пишет исходный CSV с синтетическими строками другого зерна
func writeSource(t *testing.T, cfg *config.ETLConfig) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gen := cfg.Synthetic
	gen.Seed = 7
	require.NoError(t, synthetic.NewGenerator(gen, utils.NewNopLogger()).GenerateCSV(f, sourceRows))
	cfg.Source.LocalPath = path
}

func newRunner(t *testing.T, cfg config.ETLConfig) *ETLRunner {
	t.Helper()
	runner, err := NewETLRunner(context.Background(), cfg, nil, utils.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(runner.Close)
	return runner
}

func TestExecuteETL_Success(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, &cfg)
	runner := newRunner(t, cfg)

	require.NoError(t, runner.ExecuteETL(context.Background()))

	meta := runner.LastRun()
	assert.Equal(t, models.SourceLocal, meta.Source)
	assert.Equal(t, sourceRows, meta.SourceRows)
	assert.Equal(t, 60, meta.SyntheticRows)
	assert.Equal(t, sourceRows+60, meta.TotalRows)
	assert.NotEmpty(t, meta.RunID)

	var salesRows int
	require.NoError(t, runner.dbConnections.Warehouse.QueryRow("SELECT COUNT(*) FROM sales").Scan(&salesRows))
	assert.Equal(t, sourceRows+60, salesRows)

	last, err := runner.etlLogRepo.GetLastSuccessfulRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, meta.RunID, last.RunID)
	assert.Equal(t, meta.TotalRows, last.TotalRows)
	assert.InDelta(t, meta.Revenue, last.RevenueTotal, 0.001)

	assert.FileExists(t, filepath.Join(cfg.Output.Dir, load.EnrichedFileName))
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, load.SummaryJSONFile))
	require.NotNil(t, runner.LastLoadResult())
	assert.NotEmpty(t, runner.LastLoadResult().Artifacts)

	assert.Equal(t, float64(1), testutil.ToFloat64(runner.Metrics().RunsCounter(models.RunStatusSuccess)))
}

func TestExecuteETL_RepeatedRunsAreFullRefresh(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, &cfg)
	runner := newRunner(t, cfg)

	require.NoError(t, runner.ExecuteETL(context.Background()))
	first := runner.LastRun()
	require.NoError(t, runner.ExecuteETL(context.Background()))
	second := runner.LastRun()

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.TotalRows, second.TotalRows)
	assert.Equal(t, first.Revenue, second.Revenue)

	var salesRows int
	require.NoError(t, runner.dbConnections.Warehouse.QueryRow("SELECT COUNT(*) FROM sales").Scan(&salesRows))
	assert.Equal(t, second.TotalRows, salesRows)

	runs, err := runner.etlLogRepo.GetRecentRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestExecuteETL_NoSourceMarksRunFailed(t *testing.T) {
	cfg := testConfig(t)
	runner := newRunner(t, cfg)

	err := runner.ExecuteETL(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, extractors.ErrNoSource)

	runs, err := runner.etlLogRepo.GetRecentRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].ErrorMessage, "Extract")

	assert.Equal(t, float64(1), testutil.ToFloat64(runner.Metrics().RunsCounter(models.RunStatusFailed)))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, load.SummaryJSONFile))
}

func TestPrintSummary(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, &cfg)
	runner := newRunner(t, cfg)
	require.NoError(t, runner.ExecuteETL(context.Background()))

	report, err := runner.BuildSummary(context.Background())
	require.NoError(t, err)

	total := 0
	for _, y := range report.Years {
		total += y.Rows
	}
	assert.Equal(t, sourceRows+60, total)
	assert.Equal(t, sourceRows+60, report.Totals.Rows)
	assert.Len(t, report.RecentRuns, 1)
	assert.Len(t, report.Forecast, cfg.Forecast.ForecastMonths)

	var buf bytes.Buffer
	require.NoError(t, runner.PrintSummary(context.Background(), &buf))
	out := buf.String()
	assert.Contains(t, out, "Продажи по годам")
	assert.Contains(t, out, "Последние запуски")
	assert.Contains(t, out, "100")
}

func TestPrintSummary_BeforeFirstRun(t *testing.T) {
	runner := newRunner(t, testConfig(t))

	var buf bytes.Buffer
	assert.Error(t, runner.PrintSummary(context.Background(), &buf))
}
