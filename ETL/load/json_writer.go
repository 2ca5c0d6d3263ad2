package load

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
)

// SummaryJSONFile итоговый отчёт запуска
const SummaryJSONFile = "summary.json"

// SummaryDocument содержимое summary.json
type SummaryDocument struct {
	Metadata   models.ETLMetadata      `json:"metadata"`
	Summary    models.SummaryTables    `json:"summary"`
	Validation models.ValidationReport `json:"validation"`
}

// JSONWriter пишет summary.json
type JSONWriter struct {
	outputDir string
}

// NewJSONWriter создает новый экземпляр JSONWriter
func NewJSONWriter(outputDir string) *JSONWriter {
	return &JSONWriter{outputDir: outputDir}
}

// Name имя шага
func (w *JSONWriter) Name() string { return KindJSON }

// Load пишет итоги, валидацию и метаданные запуска
func (w *JSONWriter) Load(ctx context.Context, data *models.TransformedData) ([]Artifact, error) {
	doc := SummaryDocument{
		Metadata:   data.Metadata,
		Summary:    data.Summary,
		Validation: data.Validation,
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации summary.json: %w", err)
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог %s: %w", w.outputDir, err)
	}
	path := filepath.Join(w.outputDir, SummaryJSONFile)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	return []Artifact{fileArtifact(KindJSON, path, data.Summary.Totals.Rows)}, nil
}
