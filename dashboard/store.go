package dashboard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/LilVoxy/sales_analyzer/ETL/load"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/transform"
)

// ErrDatasetMissing выходной parquet еще не создан
var ErrDatasetMissing = errors.New("датасет не найден, сначала запустите ETL")

// KPIs ключевые показатели по sales_enriched.parquet
type KPIs struct {
	models.Totals
	GeneratedAt time.Time `json:"generated_at"`
}

// Snapshot данные дашборда на момент последней загрузки файлов
type Snapshot struct {
	KPIs     KPIs                     `json:"kpis"`
	Yearly   []models.YearlySummary   `json:"yearly"`
	Segment  []models.SegmentYearly   `json:"segment_yearly"`
	Regional []models.RegionalRevenue `json:"regional_revenue"`
	Products []models.TopProduct      `json:"top_products"`
}

// Store читает выходные файлы ETL и кэширует их до изменения mtime
type Store struct {
	dataDir string

	mu       sync.Mutex
	snapshot *Snapshot
	stamps   map[string]time.Time
}

// NewStore создает хранилище поверх каталога с результатами ETL
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

func (s *Store) files() []string {
	return []string{
		load.EnrichedFileName,
		load.YearlyCSV,
		load.SegmentCSV,
		load.RegionalCSV,
		load.TopProductsCSV,
	}
}

// currentStamps возвращает mtime файлов, отсутствующие файлы получают нулевое время
func (s *Store) currentStamps() map[string]time.Time {
	stamps := make(map[string]time.Time)
	for _, name := range s.files() {
		if info, err := os.Stat(filepath.Join(s.dataDir, name)); err == nil {
			stamps[name] = info.ModTime()
		} else {
			stamps[name] = time.Time{}
		}
	}
	return stamps
}

func sameStamps(a, b map[string]time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if !b[k].Equal(v) {
			return false
		}
	}
	return true
}

// Snapshot возвращает актуальные данные, перечитывая файлы при изменении
func (s *Store) Snapshot() (*Snapshot, error) {
	snap, _, err := s.refresh()
	return snap, err
}

// Refresh перечитывает файлы, если они изменились, и сообщает об изменении
func (s *Store) Refresh() (bool, error) {
	_, changed, err := s.refresh()
	return changed, err
}

func (s *Store) refresh() (*Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamps := s.currentStamps()
	if s.snapshot != nil && sameStamps(stamps, s.stamps) {
		return s.snapshot, false, nil
	}

	snap, err := s.load()
	if err != nil {
		// Пропавший датасет - тоже изменение, кэш сбрасываем
		changed := s.snapshot != nil
		s.snapshot = nil
		s.stamps = nil
		return nil, changed, err
	}

	s.snapshot = snap
	s.stamps = stamps
	return snap, true, nil
}

func (s *Store) load() (*Snapshot, error) {
	path := filepath.Join(s.dataDir, load.EnrichedFileName)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrDatasetMissing
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка доступа к %s: %w", path, err)
	}

	sales, err := load.ReadParquet(path)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		KPIs: KPIs{
			Totals:      transform.NewAggregator(1).Aggregate(sales).Totals,
			GeneratedAt: info.ModTime(),
		},
	}

	if snap.Yearly, err = readTable(s.dataDir, load.YearlyCSV, parseYearly); err != nil {
		return nil, err
	}
	if snap.Segment, err = readTable(s.dataDir, load.SegmentCSV, parseSegment); err != nil {
		return nil, err
	}
	if snap.Regional, err = readTable(s.dataDir, load.RegionalCSV, parseRegional); err != nil {
		return nil, err
	}
	if snap.Products, err = readTable(s.dataDir, load.TopProductsCSV, parseProduct); err != nil {
		return nil, err
	}

	return snap, nil
}

// row строка CSV с доступом к колонкам по имени
type row struct {
	index  map[string]int
	values []string
}

func (r row) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

func (r row) intValue(col string) (int, error) {
	v, err := strconv.Atoi(r.str(col))
	if err != nil {
		return 0, fmt.Errorf("колонка %s: %w", col, err)
	}
	return v, nil
}

func (r row) floatValue(col string) (float64, error) {
	v, err := strconv.ParseFloat(r.str(col), 64)
	if err != nil {
		return 0, fmt.Errorf("колонка %s: %w", col, err)
	}
	return v, nil
}

// readTable читает сводный CSV. Отсутствующий файл дает пустую таблицу.
func readTable[T any](dir, name string, parse func(row) (T, error)) ([]T, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заголовка %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}

	out := []T{}
	for line := 2; ; line++ {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
		}
		item, err := parse(row{index: index, values: values})
		if err != nil {
			return nil, fmt.Errorf("%s, строка %d: %w", name, line, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func parseYearly(r row) (models.YearlySummary, error) {
	var y models.YearlySummary
	var err error
	if y.OrderYear, err = r.intValue("order_year"); err != nil {
		return y, err
	}
	if y.Rows, err = r.intValue("rows"); err != nil {
		return y, err
	}
	if y.Revenue, err = r.floatValue("revenue"); err != nil {
		return y, err
	}
	y.UniqueCustomers, err = r.intValue("unique_customers")
	return y, err
}

func parseSegment(r row) (models.SegmentYearly, error) {
	s := models.SegmentYearly{Segment: r.str("segment")}
	var err error
	if s.OrderYear, err = r.intValue("order_year"); err != nil {
		return s, err
	}
	if s.Rows, err = r.intValue("rows"); err != nil {
		return s, err
	}
	s.Revenue, err = r.floatValue("revenue")
	return s, err
}

func parseRegional(r row) (models.RegionalRevenue, error) {
	reg := models.RegionalRevenue{Region: r.str("region")}
	var err error
	if reg.Rows, err = r.intValue("rows"); err != nil {
		return reg, err
	}
	reg.Revenue, err = r.floatValue("revenue")
	return reg, err
}

func parseProduct(r row) (models.TopProduct, error) {
	p := models.TopProduct{
		ProductID:   r.str("product_id"),
		ProductName: r.str("product_name"),
		Category:    r.str("category"),
	}
	var err error
	if p.Quantity, err = r.intValue("quantity"); err != nil {
		return p, err
	}
	p.Revenue, err = r.floatValue("revenue")
	return p, err
}
