package models

import (
	"time"
)

// Источники строк
const (
	SourceKaggle    = "kaggle"
	SourceLocal     = "local"
	SourceCache     = "cache"
	SourceSynthetic = "synthetic"
)

// DateLayout формат дат в выходных данных
const DateLayout = "2006-01-02"

// SaleRecord представляет одну продажу в исходном датасете.
// Теги validate - фиксированный набор проверок колонок, теги col - имена колонок в отчетах.
type SaleRecord struct {
	RowID        int64     `col:"row_id" validate:"gte=1"`
	OrderID      string    `col:"order_id" validate:"required"`
	OrderDate    time.Time `col:"order_date" validate:"required"`
	ShipDate     time.Time `col:"ship_date" validate:"required"`
	ShipMode     string    `col:"ship_mode" validate:"required,oneof='First Class' 'Same Day' 'Second Class' 'Standard Class'"`
	CustomerID   string    `col:"customer_id" validate:"required"`
	CustomerName string    `col:"customer_name" validate:"required"`
	Segment      string    `col:"segment" validate:"required,oneof=Consumer Corporate 'Home Office'"`
	Country      string    `col:"country" validate:"required"`
	City         string    `col:"city" validate:"required"`
	State        string    `col:"state" validate:"required"`
	PostalCode   string    `col:"postal_code"`
	Region       string    `col:"region" validate:"required,oneof=East West Central South"`
	ProductID    string    `col:"product_id" validate:"required"`
	Category     string    `col:"category" validate:"required"`
	SubCategory  string    `col:"sub_category" validate:"required"`
	ProductName  string    `col:"product_name" validate:"required"`
	Quantity     int       `col:"quantity" validate:"gte=1"`
	UnitPrice    float64   `col:"unit_price" validate:"gt=0"`
	Discount     float64   `col:"discount" validate:"gte=0,lt=1"`
	Sales        float64   `col:"sales" validate:"gt=0"`
	Source       string    `col:"data_source"`
}

// ExtractedData содержит данные, извлечённые на фазе Extract
type ExtractedData struct {
	Records     []SaleRecord
	Source      string
	SourcePath  string
	ExtractedAt time.Time
}

// EnrichedSale строка итогового датасета (sales_enriched)
type EnrichedSale struct {
	RowID        int64   `json:"row_id" parquet:"name=row_id, type=INT64"`
	OrderID      string  `json:"order_id" parquet:"name=order_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	OrderDate    string  `json:"order_date" parquet:"name=order_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	ShipDate     string  `json:"ship_date" parquet:"name=ship_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	ShipMode     string  `json:"ship_mode" parquet:"name=ship_mode, type=BYTE_ARRAY, convertedtype=UTF8"`
	CustomerID   string  `json:"customer_id" parquet:"name=customer_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	CustomerName string  `json:"customer_name" parquet:"name=customer_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Segment      string  `json:"segment" parquet:"name=segment, type=BYTE_ARRAY, convertedtype=UTF8"`
	Country      string  `json:"country" parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8"`
	City         string  `json:"city" parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	State        string  `json:"state" parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8"`
	PostalCode   string  `json:"postal_code" parquet:"name=postal_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	Region       string  `json:"region" parquet:"name=region, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductID    string  `json:"product_id" parquet:"name=product_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Category     string  `json:"category" parquet:"name=category, type=BYTE_ARRAY, convertedtype=UTF8"`
	SubCategory  string  `json:"sub_category" parquet:"name=sub_category, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductName  string  `json:"product_name" parquet:"name=product_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quantity     int32   `json:"quantity" parquet:"name=quantity, type=INT32"`
	UnitPrice    float64 `json:"unit_price" parquet:"name=unit_price, type=DOUBLE"`
	Discount     float64 `json:"discount" parquet:"name=discount, type=DOUBLE"`
	Sales        float64 `json:"sales" parquet:"name=sales, type=DOUBLE"`
	OrderYear    int32   `json:"order_year" parquet:"name=order_year, type=INT32"`
	OrderMonth   string  `json:"order_month" parquet:"name=order_month, type=BYTE_ARRAY, convertedtype=UTF8"`
	DeliveryDays int32   `json:"delivery_days" parquet:"name=delivery_days, type=INT32"`
	DataSource   string  `json:"data_source" parquet:"name=data_source, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ColumnSpec описание колонки выходной таблицы sales
type ColumnSpec struct {
	Name    string `json:"name"`
	SQLType string `json:"sql_type"`
	Type    string `json:"type"`
}

// SalesColumns порядок и типы колонок таблицы sales (совпадает с Values)
var SalesColumns = []ColumnSpec{
	{"row_id", "BIGINT", "bigint"},
	{"order_id", "VARCHAR(32)", "string"},
	{"order_date", "DATE", "date"},
	{"ship_date", "DATE", "date"},
	{"ship_mode", "VARCHAR(32)", "string"},
	{"customer_id", "VARCHAR(32)", "string"},
	{"customer_name", "VARCHAR(128)", "string"},
	{"segment", "VARCHAR(32)", "string"},
	{"country", "VARCHAR(64)", "string"},
	{"city", "VARCHAR(64)", "string"},
	{"state", "VARCHAR(64)", "string"},
	{"postal_code", "VARCHAR(16)", "string"},
	{"region", "VARCHAR(16)", "string"},
	{"product_id", "VARCHAR(32)", "string"},
	{"category", "VARCHAR(32)", "string"},
	{"sub_category", "VARCHAR(32)", "string"},
	{"product_name", "VARCHAR(255)", "string"},
	{"quantity", "INTEGER", "int"},
	{"unit_price", "DOUBLE", "double"},
	{"discount", "DOUBLE", "double"},
	{"sales", "DOUBLE", "double"},
	{"order_year", "INTEGER", "int"},
	{"order_month", "VARCHAR(7)", "string"},
	{"delivery_days", "INTEGER", "int"},
	{"data_source", "VARCHAR(16)", "string"},
}

// Values возвращает значения строки в порядке SalesColumns
func (s EnrichedSale) Values() []interface{} {
	return []interface{}{
		s.RowID,
		s.OrderID,
		s.OrderDate,
		s.ShipDate,
		s.ShipMode,
		s.CustomerID,
		s.CustomerName,
		s.Segment,
		s.Country,
		s.City,
		s.State,
		s.PostalCode,
		s.Region,
		s.ProductID,
		s.Category,
		s.SubCategory,
		s.ProductName,
		s.Quantity,
		s.UnitPrice,
		s.Discount,
		s.Sales,
		s.OrderYear,
		s.OrderMonth,
		s.DeliveryDays,
		s.DataSource,
	}
}
