package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "rohitsahoo/sales-forecasting", cfg.Source.Dataset)
	assert.Equal(t, "train.csv", cfg.Source.FileName)
	assert.Equal(t, 5000, cfg.Synthetic.Rows)
	assert.Equal(t, uint64(42), cfg.Synthetic.Seed)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Synthetic.StartDate)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), cfg.Synthetic.EndDate)
	assert.True(t, cfg.Validation.Strict)
	assert.Equal(t, "sqlite", cfg.Warehouse.Driver)
	assert.Equal(t, 15, cfg.Output.TopProductsLimit)
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.False(t, cfg.Publish.Enabled())
	assert.True(t, cfg.Forecast.Enabled)
	assert.Equal(t, 6, cfg.Forecast.ForecastMonths)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etl.yaml")
	content := `
synthetic:
  rows: 100
  seed: 7
  start_date: "2021-03-01"
  end_date: "2021-06-30"
output:
  dir: out
  top_products_limit: 5
publish:
  bucket: my-bucket
run_interval: 30m
forecast:
  forecast_months: 12
  confidence_level: 0.99
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Synthetic.Rows)
	assert.Equal(t, uint64(7), cfg.Synthetic.Seed)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), cfg.Synthetic.StartDate)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 5, cfg.Output.TopProductsLimit)
	assert.Equal(t, 30*time.Minute, cfg.RunInterval)
	assert.True(t, cfg.Publish.Enabled())
	assert.Equal(t, 12, cfg.Forecast.ForecastMonths)
	assert.Equal(t, 0.99, cfg.Forecast.ConfidenceLevel)
	// Незаданные ключи остаются по умолчанию
	assert.Equal(t, 14, cfg.Synthetic.MaxShipDays)
	assert.Equal(t, 24, cfg.Forecast.AnalysisMonths)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SALES_SYNTHETIC_ROWS", "250")
	t.Setenv("SALES_WAREHOUSE_DRIVER", "mysql")
	t.Setenv("KAGGLE_USERNAME", "analyst")
	t.Setenv("KAGGLE_KEY", "secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Synthetic.Rows)
	assert.Equal(t, "mysql", cfg.Warehouse.Driver)
	assert.Equal(t, "analyst", cfg.Source.KaggleUsername)
	assert.Equal(t, "secret", cfg.Source.KaggleKey)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestETLConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ETLConfig)
	}{
		{"negative rows", func(c *ETLConfig) { c.Synthetic.Rows = -1 }},
		{"end before start", func(c *ETLConfig) { c.Synthetic.EndDate = c.Synthetic.StartDate.AddDate(0, 0, -1) }},
		{"ship days inverted", func(c *ETLConfig) { c.Synthetic.MinShipDays = 20 }},
		{"unknown driver", func(c *ETLConfig) { c.Warehouse.Driver = "postgres" }},
		{"empty output dir", func(c *ETLConfig) { c.Output.Dir = "" }},
		{"zero top products", func(c *ETLConfig) { c.Output.TopProductsLimit = 0 }},
		{"zero interval", func(c *ETLConfig) { c.RunInterval = 0 }},
		{"short forecast window", func(c *ETLConfig) { c.Forecast.AnalysisMonths = 2 }},
		{"confidence out of range", func(c *ETLConfig) { c.Forecast.ConfidenceLevel = 1 }},
	}

	require.NoError(t, GetConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	mysqlCfg := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", DBName: "sales"}
	assert.Equal(t, "u:p@tcp(db:3306)/sales?parseTime=true", mysqlCfg.DSN())

	sqliteCfg := DatabaseConfig{Driver: "sqlite", Path: "data/sales.db"}
	assert.Contains(t, sqliteCfg.DSN(), "file:data/sales.db")
}

func TestConnectDatabases_SQLite(t *testing.T) {
	cfg := GetConfig()
	cfg.Warehouse.Path = filepath.Join(t.TempDir(), "nested", "sales.db")

	conns, err := ConnectDatabases(cfg)
	require.NoError(t, err)
	defer CloseDatabases(conns)

	assert.Equal(t, "sqlite", conns.Driver)
	assert.NoError(t, conns.Warehouse.Ping())
	assert.FileExists(t, cfg.Warehouse.Path)
}
