package load

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// Имена CSV-файлов сводных таблиц
const (
	YearlyCSV      = "yearly.csv"
	SegmentCSV     = "segment_yearly.csv"
	RegionalCSV    = "regional_revenue.csv"
	TopProductsCSV = "top_products.csv"
)

// SummaryCSV заголовок и строки одной сводной таблицы
type SummaryCSV struct {
	File   string
	Header []string
	Rows   [][]string
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SummaryCSVs раскладывает сводные таблицы по CSV-файлам
func SummaryCSVs(summary models.SummaryTables) []SummaryCSV {
	yearly := SummaryCSV{File: YearlyCSV, Header: []string{"order_year", "rows", "revenue", "unique_customers"}}
	for _, y := range summary.Yearly {
		yearly.Rows = append(yearly.Rows, []string{
			strconv.Itoa(y.OrderYear), strconv.Itoa(y.Rows), money(y.Revenue), strconv.Itoa(y.UniqueCustomers),
		})
	}

	segment := SummaryCSV{File: SegmentCSV, Header: []string{"order_year", "segment", "rows", "revenue"}}
	for _, s := range summary.SegmentYearly {
		segment.Rows = append(segment.Rows, []string{
			strconv.Itoa(s.OrderYear), s.Segment, strconv.Itoa(s.Rows), money(s.Revenue),
		})
	}

	regional := SummaryCSV{File: RegionalCSV, Header: []string{"region", "rows", "revenue"}}
	for _, r := range summary.Regional {
		regional.Rows = append(regional.Rows, []string{r.Region, strconv.Itoa(r.Rows), money(r.Revenue)})
	}

	products := SummaryCSV{File: TopProductsCSV, Header: []string{"product_id", "product_name", "category", "quantity", "revenue"}}
	for _, p := range summary.TopProducts {
		products.Rows = append(products.Rows, []string{
			p.ProductID, p.ProductName, p.Category, strconv.Itoa(p.Quantity), money(p.Revenue),
		})
	}

	return []SummaryCSV{yearly, segment, regional, products}
}

// CSVWriter пишет сводные таблицы в CSV
type CSVWriter struct {
	outputDir string
	logger    *utils.ETLLogger
}

// NewCSVWriter создает новый экземпляр CSVWriter
func NewCSVWriter(outputDir string, logger *utils.ETLLogger) *CSVWriter {
	return &CSVWriter{outputDir: outputDir, logger: logger}
}

// Name имя шага
func (w *CSVWriter) Name() string { return KindCSV }

// Load пишет четыре CSV со сводными таблицами
func (w *CSVWriter) Load(ctx context.Context, data *models.TransformedData) ([]Artifact, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог %s: %w", w.outputDir, err)
	}

	var artifacts []Artifact
	for _, table := range SummaryCSVs(data.Summary) {
		path := filepath.Join(w.outputDir, table.File)
		if err := writeCSVFile(path, table.Header, table.Rows); err != nil {
			return nil, err
		}
		w.logger.Debug("Записан %s (%d строк)", path, len(table.Rows))
		artifacts = append(artifacts, fileArtifact(KindCSV, path, len(table.Rows)))
	}
	return artifacts, nil
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("не удалось создать %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("ошибка записи заголовка %s: %w", path, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	return f.Close()
}
