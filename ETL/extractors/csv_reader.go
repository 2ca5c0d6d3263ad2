package extractors

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
)

// SourceHeader колонки исходного CSV в порядке датасета
var SourceHeader = []string{
	"Row ID", "Order ID", "Order Date", "Ship Date", "Ship Mode",
	"Customer ID", "Customer Name", "Segment", "Country", "City", "State",
	"Postal Code", "Region", "Product ID", "Category", "Sub-Category",
	"Product Name", "Sales", "Quantity", "Unit Price", "Discount",
}

var requiredColumns = []string{
	"rowid", "orderid", "orderdate", "shipdate", "shipmode",
	"customerid", "customername", "segment", "country", "city", "state",
	"postalcode", "region", "productid", "category", "subcategory",
	"productname", "sales",
}

// Принимаемые форматы дат: день первым, затем ISO
var dateLayouts = []string{"2/1/2006", "2006-01-02", "2-1-2006"}

// ErrMissingColumns в CSV нет обязательных колонок
var ErrMissingColumns = errors.New("в CSV отсутствуют обязательные колонки")

// CSVReader разбирает исходный CSV в записи SaleRecord
type CSVReader struct{}

// NewCSVReader создает новый экземпляр CSVReader
func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(h)
}

// Read читает все строки CSV. source проставляется каждой записи.
// Значения, которые не удалось разобрать, остаются нулевыми и отлавливаются валидацией.
func (r *CSVReader) Read(in io.Reader, source string) ([]models.SaleRecord, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("пустой CSV: %w", ErrMissingColumns)
		}
		return nil, fmt.Errorf("ошибка чтения заголовка CSV: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeHeader(h)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var records []models.SaleRecord
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения строки %d CSV: %w", line, err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := models.SaleRecord{
			RowID:        parseInt64(get("rowid")),
			OrderID:      get("orderid"),
			OrderDate:    parseDate(get("orderdate")),
			ShipDate:     parseDate(get("shipdate")),
			ShipMode:     get("shipmode"),
			CustomerID:   get("customerid"),
			CustomerName: get("customername"),
			Segment:      get("segment"),
			Country:      get("country"),
			City:         get("city"),
			State:        get("state"),
			PostalCode:   strings.TrimSuffix(get("postalcode"), ".0"),
			Region:       get("region"),
			ProductID:    get("productid"),
			Category:     get("category"),
			SubCategory:  get("subcategory"),
			ProductName:  get("productname"),
			Sales:        parseFloat(get("sales")),
			Quantity:     1,
			Source:       source,
		}

		// Необязательные колонки: если их нет, Quantity=1, Discount=0, UnitPrice=Sales
		if _, ok := index["quantity"]; ok {
			rec.Quantity = int(parseInt64(get("quantity")))
		}
		if _, ok := index["discount"]; ok {
			rec.Discount = parseFloat(get("discount"))
		}
		rec.UnitPrice = rec.Sales
		if _, ok := index["unitprice"]; ok {
			rec.UnitPrice = parseFloat(get("unitprice"))
		}

		records = append(records, rec)
	}

	return records, nil
}

// ReadBytes разбирает CSV из памяти
func (r *CSVReader) ReadBytes(data []byte, source string) ([]models.SaleRecord, error) {
	return r.Read(bytes.NewReader(data), source)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt64(s string) int64 {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	// pandas иногда пишет целые как 12.0
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return int64(f)
	}
	return 0
}

// WriteCSV записывает записи в формате исходного датасета (даты день первым)
func WriteCSV(w io.Writer, records []models.SaleRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SourceHeader); err != nil {
		return fmt.Errorf("ошибка записи заголовка CSV: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.RowID, 10),
			r.OrderID,
			r.OrderDate.Format("02/01/2006"),
			r.ShipDate.Format("02/01/2006"),
			r.ShipMode,
			r.CustomerID,
			r.CustomerName,
			r.Segment,
			r.Country,
			r.City,
			r.State,
			r.PostalCode,
			r.Region,
			r.ProductID,
			r.Category,
			r.SubCategory,
			r.ProductName,
			strconv.FormatFloat(r.Sales, 'f', 2, 64),
			strconv.Itoa(r.Quantity),
			strconv.FormatFloat(r.UnitPrice, 'f', 2, 64),
			strconv.FormatFloat(r.Discount, 'f', 2, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("ошибка записи строки CSV: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
