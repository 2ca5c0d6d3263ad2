package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/load"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/transform"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// writeOutputs пишет parquet и сводные CSV так же, как фаза Load
func writeOutputs(t *testing.T, dir string, rows int) *models.TransformedData {
	t.Helper()
	cfg := config.GetConfig()
	cfg.Synthetic.Rows = rows

	data, err := transform.NewTransformer(cfg, utils.NewNopLogger()).Transform(&models.ExtractedData{Source: models.SourceSynthetic})
	require.NoError(t, err)

	logger := utils.NewNopLogger()
	manager := load.NewLoadManagerWithLoaders(logger,
		load.NewParquetWriter(dir, filepath.Join(dir, "parquet"), logger),
		load.NewCSVWriter(dir, logger),
	)
	_, err = manager.Load(context.Background(), data)
	require.NoError(t, err)
	return data
}

// touch сдвигает mtime файла, чтобы изменение было заметно при грубом разрешении ФС
func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func TestStore_MissingDataset(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Snapshot()
	assert.ErrorIs(t, err, ErrDatasetMissing)

	changed, err := store.Refresh()
	assert.ErrorIs(t, err, ErrDatasetMissing)
	assert.False(t, changed)
}

func TestStore_LoadsKPIsAndTables(t *testing.T) {
	dir := t.TempDir()
	data := writeOutputs(t, dir, 300)

	snap, err := NewStore(dir).Snapshot()
	require.NoError(t, err)

	assert.Equal(t, data.Summary.Totals, snap.KPIs.Totals)
	assert.False(t, snap.KPIs.GeneratedAt.IsZero())
	assert.Equal(t, data.Summary.Yearly, snap.Yearly)
	assert.Equal(t, data.Summary.SegmentYearly, snap.Segment)
	assert.Equal(t, data.Summary.Regional, snap.Regional)
	assert.Equal(t, data.Summary.TopProducts, snap.Products)
}

func TestStore_CachesUntilFilesChange(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir, 100)
	store := NewStore(dir)

	first, err := store.Snapshot()
	require.NoError(t, err)

	changed, err := store.Refresh()
	require.NoError(t, err)
	assert.False(t, changed)

	second, err := store.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, second)

	writeOutputs(t, dir, 200)
	touch(t, filepath.Join(dir, load.EnrichedFileName), time.Now().Add(time.Minute))

	changed, err = store.Refresh()
	require.NoError(t, err)
	assert.True(t, changed)

	third, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 200, third.KPIs.Rows)
}

func TestStore_DatasetRemoved(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir, 50)
	store := NewStore(dir)
	_, err := store.Snapshot()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, load.EnrichedFileName)))

	changed, err := store.Refresh()
	assert.ErrorIs(t, err, ErrDatasetMissing)
	assert.True(t, changed)
}

func TestStore_MissingCSVGivesEmptyTable(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir, 50)
	require.NoError(t, os.Remove(filepath.Join(dir, load.TopProductsCSV)))

	snap, err := NewStore(dir).Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.Products)
	assert.NotNil(t, snap.Products)
	assert.NotEmpty(t, snap.Yearly)
}

func TestStore_MalformedCSV(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir, 50)
	require.NoError(t, os.WriteFile(filepath.Join(dir, load.RegionalCSV),
		[]byte("region,rows,revenue\nWest,many,1.00\n"), 0o644))

	_, err := NewStore(dir).Snapshot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regional_revenue.csv")
}

func TestWatch_NotifiesOnChange(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	ctx, cancel := context.WithCancel(context.Background())
	notified := make(chan *Snapshot, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, store, time.Second, utils.NewNopLogger(), func(s *Snapshot) { notified <- s })
	}()

	writeOutputs(t, dir, 40)

	select {
	case snap := <-notified:
		require.NotNil(t, snap)
		assert.Equal(t, 40, snap.KPIs.Rows)
	case <-time.After(5 * time.Second):
		t.Fatal("нет уведомления об изменении")
	}

	cancel()
	assert.NoError(t, <-done)
}
