package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

const sampleCSV = "\ufeffRow ID,Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category,Product Name,Sales\n" +
	"1,CA-2017-152156,08/11/2017,11/11/2017,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-BO-10001798,Furniture,Bookcases,Bush Somerset Collection Bookcase,261.96\n" +
	"2,CA-2017-152156,08/11/2017,11/11/2017,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-CH-10000454,Furniture,Chairs,\"Hon Deluxe Fabric Upholstered Stacking Chairs, Rounded Back\",731.94\n"

func TestCSVReader_ReadDefaultsOptionalColumns(t *testing.T) {
	records, err := NewCSVReader().Read(strings.NewReader(sampleCSV), models.SourceLocal)
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, int64(1), r.RowID)
	assert.Equal(t, time.Date(2017, 11, 8, 0, 0, 0, 0, time.UTC), r.OrderDate)
	assert.Equal(t, time.Date(2017, 11, 11, 0, 0, 0, 0, time.UTC), r.ShipDate)
	assert.Equal(t, 1, r.Quantity)
	assert.Equal(t, 0.0, r.Discount)
	assert.Equal(t, 261.96, r.UnitPrice)
	assert.Equal(t, models.SourceLocal, r.Source)
	assert.Equal(t, "Hon Deluxe Fabric Upholstered Stacking Chairs, Rounded Back", records[1].ProductName)
}

func TestCSVReader_BadValuesBecomeZero(t *testing.T) {
	in := strings.Replace(sampleCSV, "08/11/2017,11/11/2017", "not-a-date,2017-11-11", 1)
	in = strings.Replace(in, "261.96", "n/a", 1)

	records, err := NewCSVReader().Read(strings.NewReader(in), models.SourceLocal)
	require.NoError(t, err)
	assert.True(t, records[0].OrderDate.IsZero())
	assert.Equal(t, time.Date(2017, 11, 11, 0, 0, 0, 0, time.UTC), records[0].ShipDate)
	assert.Equal(t, 0.0, records[0].Sales)
}

func TestCSVReader_MissingColumns(t *testing.T) {
	_, err := NewCSVReader().Read(strings.NewReader("Order ID,Sales\nX,1\n"), models.SourceLocal)
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = NewCSVReader().Read(strings.NewReader(""), models.SourceLocal)
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	records, err := NewCSVReader().Read(strings.NewReader(sampleCSV), models.SourceLocal)
	require.NoError(t, err)
	records[0].Quantity = 3
	records[0].Discount = 0.2

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	again, err := NewCSVReader().Read(&buf, models.SourceSynthetic)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, records[0].OrderDate, again[0].OrderDate)
	assert.Equal(t, 3, again[0].Quantity)
	assert.Equal(t, 0.2, again[0].Discount)
	assert.Equal(t, records[1].ProductName, again[1].ProductName)
}

func zipArchive(t *testing.T, name string, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func sourceConfig(t *testing.T, baseURL string) config.SourceConfig {
	cfg := config.GetConfig().Source
	cfg.APIBaseURL = baseURL
	cfg.KaggleUsername = "user"
	cfg.KaggleKey = "key"
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func TestKaggleDownloader_Download(t *testing.T) {
	archive := zipArchive(t, "train.csv", sampleCSV)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/datasets/download/rohitsahoo/sales-forecasting", r.URL.Path)
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	d := NewKaggleDownloader(sourceConfig(t, srv.URL), srv.Client())
	data, err := d.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(data))
}

func TestKaggleDownloader_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("bad") != "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write(zipArchive(t, "other.csv", "x"))
	}))
	defer srv.Close()

	cfg := sourceConfig(t, srv.URL)
	_, err := NewKaggleDownloader(cfg, srv.Client()).Download(context.Background())
	assert.ErrorContains(t, err, "train.csv")

	cfg.KaggleKey = ""
	_, err = NewKaggleDownloader(cfg, srv.Client()).Download(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	forbidden := sourceConfig(t, srv.URL)
	forbidden.Dataset = "rohitsahoo/sales-forecasting?bad=1"
	_, err = NewKaggleDownloader(forbidden, srv.Client()).Download(context.Background())
	assert.ErrorContains(t, err, "403")
}

func TestDatasetCache_RoundTrip(t *testing.T) {
	cache := NewDatasetCache(filepath.Join(t.TempDir(), "c"), "train.csv")
	fetched := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	info, err := cache.Store([]byte(sampleCSV), fetched)
	require.NoError(t, err)
	assert.Equal(t, len(sampleCSV), info.Size)

	data, loaded, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(data))
	assert.Equal(t, fetched, loaded.FetchedAt)

	require.NoError(t, os.WriteFile(cache.DataPath(), []byte("garbage"), 0o644))
	_, _, err = cache.Load()
	assert.Error(t, err)
}

type fakeDownloader struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeDownloader) Download(ctx context.Context) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func TestExtractor_ResolutionOrder(t *testing.T) {
	logger := utils.NewNopLogger()
	cfg := sourceConfig(t, "http://unused")

	// Загрузка успешна и обновляет кэш
	dl := &fakeDownloader{data: []byte(sampleCSV)}
	data, err := NewExtractor(cfg, dl, logger).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceKaggle, data.Source)
	assert.Len(t, data.Records, 2)
	assert.FileExists(t, filepath.Join(cfg.CacheDir, "train.csv.sz"))

	// Загрузка падает, используется кэш
	failing := &fakeDownloader{err: errors.New("network down")}
	data, err = NewExtractor(cfg, failing, logger).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceCache, data.Source)
	assert.Equal(t, models.SourceCache, data.Records[0].Source)

	// Локальный файл имеет приоритет
	local := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(local, []byte(sampleCSV), 0o644))
	withLocal := cfg
	withLocal.LocalPath = local
	data, err = NewExtractor(withLocal, failing, logger).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceLocal, data.Source)
	assert.Equal(t, 1, failing.calls)
}

func TestExtractor_NoSource(t *testing.T) {
	cfg := sourceConfig(t, "http://unused")
	cfg.Offline = true
	dl := &fakeDownloader{data: []byte(sampleCSV)}

	_, err := NewExtractor(cfg, dl, utils.NewNopLogger()).Extract(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
	assert.Equal(t, 0, dl.calls)
}
