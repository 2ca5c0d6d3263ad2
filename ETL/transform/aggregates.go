package transform

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
)

// Aggregator строит сводные таблицы. Суммы считаются в decimal
// и округляются до копеек только на выходе.
type Aggregator struct {
	topProducts int
}

// NewAggregator создает новый экземпляр Aggregator
func NewAggregator(topProducts int) *Aggregator {
	return &Aggregator{topProducts: topProducts}
}

type group struct {
	rows      int
	quantity  int
	revenue   decimal.Decimal
	customers map[string]struct{}
}

func newGroup() *group {
	return &group{revenue: decimal.Zero, customers: make(map[string]struct{})}
}

func (g *group) add(s models.EnrichedSale) {
	g.rows++
	g.quantity += int(s.Quantity)
	g.revenue = g.revenue.Add(decimal.NewFromFloat(s.Sales))
	g.customers[s.CustomerID] = struct{}{}
}

// Money округляет сумму до 2 знаков (half away from zero)
func Money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

type segmentKey struct {
	year    int32
	segment string
}

type productInfo struct {
	name     string
	category string
}

// Aggregate вычисляет все сводные таблицы
func (a *Aggregator) Aggregate(sales []models.EnrichedSale) models.SummaryTables {
	total := newGroup()
	years := make(map[int32]*group)
	segs := make(map[segmentKey]*group)
	regions := make(map[string]*group)
	products := make(map[string]*group)
	productMeta := make(map[string]productInfo)

	for _, s := range sales {
		total.add(s)
		getGroup(years, s.OrderYear).add(s)
		getGroup(segs, segmentKey{s.OrderYear, s.Segment}).add(s)
		getGroup(regions, s.Region).add(s)
		getGroup(products, s.ProductID).add(s)
		if _, ok := productMeta[s.ProductID]; !ok {
			productMeta[s.ProductID] = productInfo{name: s.ProductName, category: s.Category}
		}
	}

	summary := models.SummaryTables{
		Totals: models.Totals{
			Rows:            total.rows,
			Revenue:         Money(total.revenue),
			UniqueCustomers: len(total.customers),
			UniqueProducts:  len(products),
		},
		Yearly:        make([]models.YearlySummary, 0, len(years)),
		SegmentYearly: make([]models.SegmentYearly, 0, len(segs)),
		Regional:      make([]models.RegionalRevenue, 0, len(regions)),
		TopProducts:   make([]models.TopProduct, 0, a.topProducts),
	}

	for year, g := range years {
		summary.Yearly = append(summary.Yearly, models.YearlySummary{
			OrderYear:       int(year),
			Rows:            g.rows,
			Revenue:         Money(g.revenue),
			UniqueCustomers: len(g.customers),
		})
	}
	sort.Slice(summary.Yearly, func(i, j int) bool {
		return summary.Yearly[i].OrderYear < summary.Yearly[j].OrderYear
	})

	for key, g := range segs {
		summary.SegmentYearly = append(summary.SegmentYearly, models.SegmentYearly{
			OrderYear: int(key.year),
			Segment:   key.segment,
			Rows:      g.rows,
			Revenue:   Money(g.revenue),
		})
	}
	sort.Slice(summary.SegmentYearly, func(i, j int) bool {
		x, y := summary.SegmentYearly[i], summary.SegmentYearly[j]
		if x.OrderYear != y.OrderYear {
			return x.OrderYear < y.OrderYear
		}
		return x.Segment < y.Segment
	})

	regionRevenue := make(map[string]decimal.Decimal, len(regions))
	for region, g := range regions {
		regionRevenue[region] = g.revenue
		summary.Regional = append(summary.Regional, models.RegionalRevenue{
			Region:  region,
			Rows:    g.rows,
			Revenue: Money(g.revenue),
		})
	}
	sort.Slice(summary.Regional, func(i, j int) bool {
		x, y := summary.Regional[i], summary.Regional[j]
		if c := regionRevenue[x.Region].Cmp(regionRevenue[y.Region]); c != 0 {
			return c > 0
		}
		return x.Region < y.Region
	})

	ids := make([]string, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if c := products[ids[i]].revenue.Cmp(products[ids[j]].revenue); c != 0 {
			return c > 0
		}
		return ids[i] < ids[j]
	})
	if len(ids) > a.topProducts {
		ids = ids[:a.topProducts]
	}
	for _, id := range ids {
		g := products[id]
		summary.TopProducts = append(summary.TopProducts, models.TopProduct{
			ProductID:   id,
			ProductName: productMeta[id].name,
			Category:    productMeta[id].category,
			Quantity:    g.quantity,
			Revenue:     Money(g.revenue),
		})
	}

	return summary
}

func getGroup[K comparable](m map[K]*group, key K) *group {
	g, ok := m[key]
	if !ok {
		g = newGroup()
		m[key] = g
	}
	return g
}
