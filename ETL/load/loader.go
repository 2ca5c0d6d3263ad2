package load

import (
	"context"
	"os"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
)

// Виды артефактов
const (
	KindWarehouse = "warehouse"
	KindParquet   = "parquet"
	KindCSV       = "csv"
	KindJSON      = "json"
	KindExcel     = "excel"
	KindS3        = "s3"
)

// Artifact один записанный результат
type Artifact struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Rows  int    `json:"rows"`
	Bytes int64  `json:"bytes"`
}

// LoadResult итог фазы Load
type LoadResult struct {
	Artifacts []Artifact `json:"artifacts"`
}

// BytesByKind суммарный размер артефактов по видам
func (r *LoadResult) BytesByKind() map[string]int64 {
	out := make(map[string]int64)
	for _, a := range r.Artifacts {
		out[a.Kind] += a.Bytes
	}
	return out
}

// Loader интерфейс одного шага загрузки
type Loader interface {
	// Name короткое имя шага для логов
	Name() string

	// Load записывает данные и возвращает созданные артефакты
	Load(ctx context.Context, data *models.TransformedData) ([]Artifact, error)
}

func fileArtifact(kind, path string, rows int) Artifact {
	a := Artifact{Kind: kind, Path: path, Rows: rows}
	if info, err := os.Stat(path); err == nil {
		a.Bytes = info.Size()
	}
	return a
}
