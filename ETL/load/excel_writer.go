package load

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
)

// SummaryExcelFile книга со сводными таблицами
const SummaryExcelFile = "summary.xlsx"

var sheetNames = map[string]string{
	YearlyCSV:      "Yearly",
	SegmentCSV:     "Segment by year",
	RegionalCSV:    "Regions",
	TopProductsCSV: "Top products",
}

var numericColumns = map[string]bool{
	"order_year":       true,
	"rows":             true,
	"revenue":          true,
	"unique_customers": true,
	"quantity":         true,
}

// ExcelWriter пишет сводные таблицы в xlsx, по листу на таблицу
type ExcelWriter struct {
	outputDir string
}

// NewExcelWriter создает новый экземпляр ExcelWriter
func NewExcelWriter(outputDir string) *ExcelWriter {
	return &ExcelWriter{outputDir: outputDir}
}

// Name имя шага
func (w *ExcelWriter) Name() string { return KindExcel }

// Load пишет summary.xlsx
func (w *ExcelWriter) Load(ctx context.Context, data *models.TransformedData) ([]Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Стиль заголовков
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания стиля заголовков: %w", err)
	}

	tables := SummaryCSVs(data.Summary)
	for i, table := range tables {
		sheet := sheetNames[table.File]
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("ошибка переименования листа: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("ошибка создания листа %s: %w", sheet, err)
		}

		for col, header := range table.Header {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sheet, cell, header)
			f.SetCellStyle(sheet, cell, cell, headerStyle)
		}

		for r, row := range table.Rows {
			for col, value := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				if n, err := strconv.ParseFloat(value, 64); err == nil && numericColumns[table.Header[col]] {
					f.SetCellValue(sheet, cell, n)
				} else {
					f.SetCellValue(sheet, cell, value)
				}
			}
		}

		last, _ := excelize.ColumnNumberToName(len(table.Header))
		f.SetColWidth(sheet, "A", last, 18)
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог %s: %w", w.outputDir, err)
	}
	path := filepath.Join(w.outputDir, SummaryExcelFile)
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("ошибка сохранения %s: %w", path, err)
	}

	rows := 0
	for _, t := range tables {
		rows += len(t.Rows)
	}
	return []Artifact{fileArtifact(KindExcel, path, rows)}, nil
}
