package load

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// EnrichedFileName полный датасет, который читает дашборд
const EnrichedFileName = "sales_enriched.parquet"

const parquetParallelism = 4

// ParquetWriter пишет датасет в Parquet (SNAPPY): один общий файл и по файлу на год
type ParquetWriter struct {
	outputDir  string
	parquetDir string
	logger     *utils.ETLLogger
}

// NewParquetWriter создает новый экземпляр ParquetWriter
func NewParquetWriter(outputDir, parquetDir string, logger *utils.ETLLogger) *ParquetWriter {
	return &ParquetWriter{
		outputDir:  outputDir,
		parquetDir: parquetDir,
		logger:     logger,
	}
}

// Name имя шага
func (w *ParquetWriter) Name() string { return KindParquet }

// YearFile путь к parquet-файлу года
func (w *ParquetWriter) YearFile(year int) string {
	return filepath.Join(w.parquetDir, fmt.Sprintf("%d.parquet", year))
}

// Load пишет sales_enriched.parquet и файлы по годам
func (w *ParquetWriter) Load(ctx context.Context, data *models.TransformedData) ([]Artifact, error) {
	for _, dir := range []string{w.outputDir, w.parquetDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог %s: %w", dir, err)
		}
	}
	// Файлы годов, которых больше нет в данных, удаляются
	stale, _ := filepath.Glob(filepath.Join(w.parquetDir, "*.parquet"))
	for _, f := range stale {
		if err := os.Remove(f); err != nil {
			return nil, fmt.Errorf("не удалось удалить %s: %w", f, err)
		}
	}

	enrichedPath := filepath.Join(w.outputDir, EnrichedFileName)
	if err := WriteParquet(enrichedPath, data.Sales); err != nil {
		return nil, err
	}
	artifacts := []Artifact{fileArtifact(KindParquet, enrichedPath, len(data.Sales))}

	byYear := make(map[int32][]models.EnrichedSale)
	for _, s := range data.Sales {
		byYear[s.OrderYear] = append(byYear[s.OrderYear], s)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, int(y))
	}
	sort.Ints(years)

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows := byYear[int32(year)]
		path := w.YearFile(year)
		if err := WriteParquet(path, rows); err != nil {
			return nil, err
		}
		a := fileArtifact(KindParquet, path, len(rows))
		w.logger.Info("%d: %d строк, %.1f КБ -> %s", year, len(rows), float64(a.Bytes)/1024, path)
		artifacts = append(artifacts, a)
	}

	return artifacts, nil
}

// WriteParquet пишет строки в файл path
func WriteParquet(path string, rows []models.EnrichedSale) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("не удалось создать %s: %w", path, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(models.EnrichedSale), parquetParallelism)
	if err != nil {
		return fmt.Errorf("ошибка создания parquet-писателя: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			return fmt.Errorf("ошибка записи строки в %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("ошибка завершения %s: %w", path, err)
	}
	return nil
}

// ReadParquet читает все строки из файла path
func ReadParquet(path string) ([]models.EnrichedSale, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(models.EnrichedSale), parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения схемы %s: %w", path, err)
	}
	defer pr.ReadStop()

	rows := make([]models.EnrichedSale, pr.GetNumRows())
	if len(rows) == 0 {
		return rows, nil
	}
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк %s: %w", path, err)
	}
	return rows, nil
}
