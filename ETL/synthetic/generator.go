package synthetic

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/extractors"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// Generator создает правдоподобные синтетические продажи.
// При одинаковом seed выдаёт одинаковую последовательность строк.
type Generator struct {
	faker  *gofakeit.Faker
	cfg    config.SyntheticConfig
	logger *utils.ETLLogger
}

// NewGenerator создает новый экземпляр Generator
func NewGenerator(cfg config.SyntheticConfig, logger *utils.ETLLogger) *Generator {
	logger.Debug("Инициализирован генератор синтетических данных (seed=%d)", cfg.Seed)
	return &Generator{
		faker:  gofakeit.New(cfg.Seed),
		cfg:    cfg,
		logger: logger,
	}
}

// Generate создает n синтетических строк. Из original берутся имена товаров
// и максимальный Row ID, с которого продолжается нумерация.
func (g *Generator) Generate(original []models.SaleRecord, n int) []models.SaleRecord {
	g.logger.Info("Генерация %d синтетических строк...", n)

	productNames, startRowID := productNamesAndNextRowID(original)
	if len(productNames) == 0 {
		productNames = fallbackProducts()
	}

	rows := make([]models.SaleRecord, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, g.row(startRowID+int64(i), productNames))
	}

	g.logger.Info("Сгенерировано %d синтетических строк", len(rows))
	return rows
}

// Augment возвращает исходные строки, за которыми следуют n синтетических
func (g *Generator) Augment(original []models.SaleRecord, n int) []models.SaleRecord {
	synthetic := g.Generate(original, n)

	combined := make([]models.SaleRecord, 0, len(original)+len(synthetic))
	combined = append(combined, original...)
	combined = append(combined, synthetic...)

	g.logger.Info("Дополненные данные: %d исходных + %d синтетических = %d строк",
		len(original), len(synthetic), len(combined))
	return combined
}

// GenerateCSV пишет n синтетических строк в формате исходного датасета
func (g *Generator) GenerateCSV(w io.Writer, n int) error {
	if err := extractors.WriteCSV(w, g.Generate(nil, n)); err != nil {
		return fmt.Errorf("ошибка записи синтетического CSV: %w", err)
	}
	return nil
}

func (g *Generator) row(rowID int64, productNames []string) models.SaleRecord {
	f := g.faker

	customerName := f.Name()
	orderDate, shipDate := g.orderDates()
	loc := usCities[f.IntRange(0, len(usCities)-1)]
	cat := categories[f.IntRange(0, len(categories)-1)]
	sub := cat.SubCategories[f.IntRange(0, len(cat.SubCategories)-1)]

	quantity := f.IntRange(minQuantity, maxQuantity)
	unitPrice := round2(f.Float64Range(minPrice, maxPrice))
	discount := discounts[f.IntRange(0, len(discounts)-1)]
	sales := math.Max(round2(float64(quantity)*unitPrice*(1-discount)), 0.01)

	return models.SaleRecord{
		RowID:        rowID,
		OrderID:      fmt.Sprintf("US-%d-%d", orderDate.Year(), f.IntRange(100000, 999999)),
		OrderDate:    orderDate,
		ShipDate:     shipDate,
		ShipMode:     shipModes[f.IntRange(0, len(shipModes)-1)],
		CustomerID:   g.customerID(customerName),
		CustomerName: customerName,
		Segment:      segments[f.IntRange(0, len(segments)-1)],
		Country:      country,
		City:         loc.Name,
		State:        loc.State,
		PostalCode:   fmt.Sprintf("%s%d", loc.ZipPrefix, f.IntRange(10, 99)),
		Region:       loc.Region,
		ProductID:    productID(cat.Name, sub, f.IntRange(10000, 99999)),
		Category:     cat.Name,
		SubCategory:  sub,
		ProductName:  productNames[f.IntRange(0, len(productNames)-1)],
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Discount:     discount,
		Sales:        sales,
		Source:       models.SourceSynthetic,
	}
}

// orderDates дата заказа в [StartDate, EndDate], отгрузка через MinShipDays..MaxShipDays дней
func (g *Generator) orderDates() (time.Time, time.Time) {
	start := truncateDay(g.cfg.StartDate)
	days := int(truncateDay(g.cfg.EndDate).Sub(start).Hours() / 24)
	order := start.AddDate(0, 0, g.faker.IntRange(0, days))
	ship := order.AddDate(0, 0, g.faker.IntRange(g.cfg.MinShipDays, g.cfg.MaxShipDays))
	return order, ship
}

// customerID инициалы двух первых частей имени + 5 цифр, например CG-12456
func (g *Generator) customerID(name string) string {
	parts := strings.Fields(name)
	var initials string
	switch {
	case len(parts) == 0:
		initials = "XX"
	case len(parts) == 1:
		initials = firstLetter(parts[0]) + "X"
	default:
		initials = firstLetter(parts[0]) + firstLetter(parts[1])
	}
	return fmt.Sprintf("%s-%d", strings.ToUpper(initials), g.faker.IntRange(10000, 99999))
}

func productID(cat, sub string, n int) string {
	return strings.ToUpper(prefix(cat, 3)) + "-" + strings.ToUpper(prefix(sub, 2)) + fmt.Sprintf("-100%d", n)
}

func productNamesAndNextRowID(original []models.SaleRecord) ([]string, int64) {
	seen := make(map[string]struct{})
	var names []string
	var maxRowID int64
	for _, r := range original {
		if r.RowID > maxRowID {
			maxRowID = r.RowID
		}
		if r.ProductName == "" {
			continue
		}
		if _, ok := seen[r.ProductName]; !ok {
			seen[r.ProductName] = struct{}{}
			names = append(names, r.ProductName)
		}
	}
	sort.Strings(names)
	return names, maxRowID + 1
}

func firstLetter(s string) string {
	for _, r := range s {
		return string(r)
	}
	return "X"
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) < n {
		return s
	}
	return string(r[:n])
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
