package models

import "time"

// ValidationReport результат проверки колонок
type ValidationReport struct {
	TotalRows   int            `json:"total_rows"`
	ValidRows   int            `json:"valid_rows"`
	InvalidRows int            `json:"invalid_rows"`
	NullCounts  map[string]int `json:"null_counts"`
	// Violations ключ вида "колонка:правило"
	Violations map[string]int `json:"violations"`
	Samples    []string       `json:"samples,omitempty"`
}

// Passed true, если нарушений не найдено
func (r ValidationReport) Passed() bool {
	return r.InvalidRows == 0
}

// ETLMetadata содержит метаданные о запуске ETL
type ETLMetadata struct {
	RunID         string    `json:"run_id"`
	Source        string    `json:"source"`
	SourcePath    string    `json:"source_path,omitempty"`
	SourceRows    int       `json:"source_rows"`
	SyntheticRows int       `json:"synthetic_rows"`
	TotalRows     int       `json:"total_rows"`
	InvalidRows   int       `json:"invalid_rows"`
	Revenue       float64   `json:"revenue"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// TransformedData содержит трансформированные данные для загрузки
type TransformedData struct {
	Sales      []EnrichedSale
	Summary    SummaryTables
	Validation ValidationReport

	// Метаданные
	Metadata ETLMetadata
}
