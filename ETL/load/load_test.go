package load

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/transform"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (f *fakeUploader) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[*in.Bucket+"/"+*in.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func testConfig(t *testing.T) config.ETLConfig {
	cfg := config.GetConfig()
	dir := t.TempDir()
	cfg.Output.Dir = filepath.Join(dir, "data")
	cfg.Output.ParquetDir = filepath.Join(dir, "data", "parquet")
	cfg.Warehouse.Path = filepath.Join(dir, "data", "sales.db")
	cfg.Synthetic.Rows = 150
	cfg.Publish.Bucket = "analytics"
	return cfg
}

func testData(t *testing.T, cfg config.ETLConfig) *models.TransformedData {
	t.Helper()
	data, err := transform.NewTransformer(cfg, utils.NewNopLogger()).Transform(&models.ExtractedData{Source: models.SourceSynthetic})
	require.NoError(t, err)
	data.Metadata.RunID = "run-1"
	return data
}

func openWarehouse(t *testing.T, cfg config.ETLConfig) *sql.DB {
	t.Helper()
	conns, err := config.ConnectDatabases(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { config.CloseDatabases(conns) })
	return conns.Warehouse
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestLoadManager_WritesAllArtifacts(t *testing.T) {
	cfg := testConfig(t)
	data := testData(t, cfg)
	db := openWarehouse(t, cfg)
	uploader := &fakeUploader{}

	manager := NewLoadManager(cfg, db, uploader, utils.NewNopLogger())
	result, err := manager.Load(context.Background(), data)
	require.NoError(t, err)

	// хранилище
	assert.Equal(t, 150, countRows(t, db, "sales"))
	assert.Equal(t, len(data.Summary.Yearly), countRows(t, db, "yearly_summary"))
	assert.Equal(t, len(data.Summary.TopProducts), countRows(t, db, "top_products"))

	var revenue float64
	require.NoError(t, db.QueryRow("SELECT SUM(revenue) FROM yearly_summary").Scan(&revenue))
	assert.InDelta(t, data.Summary.Totals.Revenue, revenue, 0.01*float64(len(data.Summary.Yearly)))

	// parquet
	rows, err := ReadParquet(filepath.Join(cfg.Output.Dir, EnrichedFileName))
	require.NoError(t, err)
	require.Len(t, rows, 150)
	assert.Equal(t, data.Sales[0], rows[0])
	pw := NewParquetWriter(cfg.Output.Dir, cfg.Output.ParquetDir, utils.NewNopLogger())
	for _, y := range data.Summary.Yearly {
		yearRows, err := ReadParquet(pw.YearFile(y.OrderYear))
		require.NoError(t, err)
		assert.Len(t, yearRows, y.Rows)
	}

	// csv
	f, err := os.Open(filepath.Join(cfg.Output.Dir, YearlyCSV))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"order_year", "rows", "revenue", "unique_customers"}, records[0])
	assert.Len(t, records, len(data.Summary.Yearly)+1)
	for _, name := range []string{SegmentCSV, RegionalCSV, TopProductsCSV} {
		assert.FileExists(t, filepath.Join(cfg.Output.Dir, name))
	}

	// json
	body, err := os.ReadFile(filepath.Join(cfg.Output.Dir, SummaryJSONFile))
	require.NoError(t, err)
	var doc SummaryDocument
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, data.Summary.Totals, doc.Summary.Totals)
	assert.Equal(t, "run-1", doc.Metadata.RunID)

	// excel
	book, err := excelize.OpenFile(filepath.Join(cfg.Output.Dir, SummaryExcelFile))
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{"Yearly", "Segment by year", "Regions", "Top products"}, book.GetSheetList())
	sheetRows, err := book.GetRows("Regions")
	require.NoError(t, err)
	assert.Equal(t, "region", sheetRows[0][0])
	assert.Len(t, sheetRows, len(data.Summary.Regional)+1)

	// s3
	assert.Len(t, uploader.objects, len(data.Summary.Yearly)+1)
	manifestBody, ok := uploader.objects["analytics/data/sales_by_year/_manifest.json"]
	require.True(t, ok)
	var manifest TableManifest
	require.NoError(t, json.Unmarshal(manifestBody, &manifest))
	assert.Equal(t, "s3://analytics/data/sales_by_year", manifest.Location)
	assert.Equal(t, 150, manifest.Rows)
	assert.Len(t, manifest.Columns, len(models.SalesColumns))

	kinds := result.BytesByKind()
	for _, kind := range []string{KindParquet, KindCSV, KindJSON, KindExcel, KindS3} {
		assert.Positive(t, kinds[kind], kind)
	}
}

func TestLoadManager_FullRefresh(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.WriteExcel = false
	data := testData(t, cfg)
	db := openWarehouse(t, cfg)

	manager := NewLoadManager(cfg, db, nil, utils.NewNopLogger())
	_, err := manager.Load(context.Background(), data)
	require.NoError(t, err)

	data.Sales = data.Sales[:40]
	_, err = manager.Load(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 40, countRows(t, db, "sales"))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, SummaryExcelFile))
}

func TestWarehouseLoader_Batches(t *testing.T) {
	cfg := testConfig(t)
	data := testData(t, cfg)
	db := openWarehouse(t, cfg)

	loader := NewWarehouseLoader(db, "sqlite", utils.NewNopLogger())
	loader.batchSize = 7
	artifacts, err := loader.Load(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, artifacts, 5)
	assert.Equal(t, "sales", artifacts[0].Path)
	assert.Equal(t, 150, artifacts[0].Rows)
	assert.Equal(t, 150, countRows(t, db, "sales"))

	var orderDate string
	require.NoError(t, db.QueryRow(`SELECT order_date FROM sales WHERE row_id = 1`).Scan(&orderDate))
	assert.Equal(t, data.Sales[0].OrderDate, orderDate)
}

type failingLoader struct{ calls int }

func (f *failingLoader) Name() string { return "failing" }

func (f *failingLoader) Load(ctx context.Context, data *models.TransformedData) ([]Artifact, error) {
	f.calls++
	return nil, errors.New("disk full")
}

func TestLoadManager_AbortsOnFirstError(t *testing.T) {
	first := &failingLoader{}
	second := &failingLoader{}
	manager := NewLoadManagerWithLoaders(utils.NewNopLogger(), first, second)

	_, err := manager.Load(context.Background(), &models.TransformedData{})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestS3Publisher_UploadError(t *testing.T) {
	cfg := testConfig(t)
	data := testData(t, cfg)
	parquetWriter := NewParquetWriter(cfg.Output.Dir, cfg.Output.ParquetDir, utils.NewNopLogger())
	_, err := parquetWriter.Load(context.Background(), data)
	require.NoError(t, err)

	publisher := NewS3Publisher(&fakeUploader{err: errors.New("access denied")}, cfg.Publish, parquetWriter, utils.NewNopLogger())
	_, err = publisher.Load(context.Background(), data)
	assert.ErrorContains(t, err, "access denied")
}
