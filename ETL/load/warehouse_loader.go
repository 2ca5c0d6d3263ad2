package load

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

const defaultBatchSize = 500

// Table описание таблицы хранилища и её строк
type Table struct {
	Name    string
	Columns []models.ColumnSpec
	Rows    [][]interface{}
}

var (
	yearlyColumns = []models.ColumnSpec{
		{Name: "order_year", SQLType: "INTEGER", Type: "int"},
		{Name: "rows", SQLType: "INTEGER", Type: "int"},
		{Name: "revenue", SQLType: "DOUBLE", Type: "double"},
		{Name: "unique_customers", SQLType: "INTEGER", Type: "int"},
	}
	segmentColumns = []models.ColumnSpec{
		{Name: "order_year", SQLType: "INTEGER", Type: "int"},
		{Name: "segment", SQLType: "VARCHAR(32)", Type: "string"},
		{Name: "rows", SQLType: "INTEGER", Type: "int"},
		{Name: "revenue", SQLType: "DOUBLE", Type: "double"},
	}
	regionalColumns = []models.ColumnSpec{
		{Name: "region", SQLType: "VARCHAR(16)", Type: "string"},
		{Name: "rows", SQLType: "INTEGER", Type: "int"},
		{Name: "revenue", SQLType: "DOUBLE", Type: "double"},
	}
	topProductColumns = []models.ColumnSpec{
		{Name: "product_id", SQLType: "VARCHAR(32)", Type: "string"},
		{Name: "product_name", SQLType: "VARCHAR(255)", Type: "string"},
		{Name: "category", SQLType: "VARCHAR(32)", Type: "string"},
		{Name: "quantity", SQLType: "INTEGER", Type: "int"},
		{Name: "revenue", SQLType: "DOUBLE", Type: "double"},
	}
)

// WarehouseTables раскладывает данные по таблицам хранилища
func WarehouseTables(data *models.TransformedData) []Table {
	sales := Table{Name: "sales", Columns: models.SalesColumns}
	for _, s := range data.Sales {
		sales.Rows = append(sales.Rows, s.Values())
	}

	yearly := Table{Name: "yearly_summary", Columns: yearlyColumns}
	for _, y := range data.Summary.Yearly {
		yearly.Rows = append(yearly.Rows, []interface{}{y.OrderYear, y.Rows, y.Revenue, y.UniqueCustomers})
	}

	segment := Table{Name: "segment_yearly", Columns: segmentColumns}
	for _, s := range data.Summary.SegmentYearly {
		segment.Rows = append(segment.Rows, []interface{}{s.OrderYear, s.Segment, s.Rows, s.Revenue})
	}

	regional := Table{Name: "regional_revenue", Columns: regionalColumns}
	for _, r := range data.Summary.Regional {
		regional.Rows = append(regional.Rows, []interface{}{r.Region, r.Rows, r.Revenue})
	}

	products := Table{Name: "top_products", Columns: topProductColumns}
	for _, p := range data.Summary.TopProducts {
		products.Rows = append(products.Rows, []interface{}{p.ProductID, p.ProductName, p.Category, p.Quantity, p.Revenue})
	}

	return []Table{sales, yearly, segment, regional, products}
}

// WarehouseLoader полностью перезаписывает таблицы аналитического хранилища
type WarehouseLoader struct {
	db        *sql.DB
	dialect   string
	logger    *utils.ETLLogger
	batchSize int
}

// NewWarehouseLoader создает новый экземпляр WarehouseLoader
func NewWarehouseLoader(db *sql.DB, dialect string, logger *utils.ETLLogger) *WarehouseLoader {
	return &WarehouseLoader{
		db:        db,
		dialect:   dialect,
		logger:    logger,
		batchSize: defaultBatchSize,
	}
}

// Name имя шага
func (l *WarehouseLoader) Name() string { return KindWarehouse }

// Load записывает строки и сводные таблицы в хранилище
func (l *WarehouseLoader) Load(ctx context.Context, data *models.TransformedData) ([]Artifact, error) {
	var artifacts []Artifact
	for _, table := range WarehouseTables(data) {
		if err := l.createTable(ctx, table); err != nil {
			return nil, err
		}
		if err := l.replaceRows(ctx, table); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, Artifact{Kind: KindWarehouse, Path: table.Name, Rows: len(table.Rows)})
	}
	return artifacts, nil
}

func (l *WarehouseLoader) columnType(c models.ColumnSpec) string {
	// sqlite вернул бы DATE как time.Time, даты храним текстом
	if l.dialect == "sqlite" && c.SQLType == "DATE" {
		return "TEXT"
	}
	return c.SQLType
}

func (l *WarehouseLoader) createTable(ctx context.Context, table Table) error {
	defs := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(l.dialect, c.Name), l.columnType(c)))
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table.Name, strings.Join(defs, ",\n\t"))

	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка при создании таблицы %s: %w", table.Name, err)
	}
	return nil
}

// replaceRows удаляет старые строки и вставляет новые пачками по batchSize,
// каждая пачка в своей транзакции. Удаление идёт в первой транзакции.
func (l *WarehouseLoader) replaceRows(ctx context.Context, table Table) error {
	startTime := time.Now()
	l.logger.Debug("Загрузка таблицы %s (всего: %d)", table.Name, len(table.Rows))

	names := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		names = append(names, quoteIdent(l.dialect, c.Name))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table.Name, strings.Join(names, ", "), placeholders)

	first := true
	for start := 0; start < len(table.Rows) || first; start += l.batchSize {
		end := start + l.batchSize
		if end > len(table.Rows) {
			end = len(table.Rows)
		}
		if err := l.insertBatch(ctx, table.Name, insert, table.Rows[start:end], first); err != nil {
			return err
		}
		first = false
	}

	l.logger.Debug("Таблица %s загружена. Записей: %d. Длительность: %v", table.Name, len(table.Rows), time.Since(startTime))
	return nil
}

func (l *WarehouseLoader) insertBatch(ctx context.Context, name, insert string, rows [][]interface{}, truncate bool) error {
	// Начинаем транзакцию
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback()

	if truncate {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
			return fmt.Errorf("ошибка при очистке таблицы %s: %w", name, err)
		}
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("ошибка при подготовке запроса: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("ошибка при вставке в %s: %w", name, err)
			}
		}
	}

	// Фиксируем транзакцию
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}

func quoteIdent(dialect, name string) string {
	if dialect == "mysql" {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}
