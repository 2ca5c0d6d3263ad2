package models

// YearlySummary агрегат продаж по году заказа (yearly.csv)
type YearlySummary struct {
	OrderYear       int     `json:"order_year"`
	Rows            int     `json:"rows"`
	Revenue         float64 `json:"revenue"`
	UniqueCustomers int     `json:"unique_customers"`
}

// SegmentYearly агрегат по году и сегменту покупателя (segment_yearly.csv)
type SegmentYearly struct {
	OrderYear int     `json:"order_year"`
	Segment   string  `json:"segment"`
	Rows      int     `json:"rows"`
	Revenue   float64 `json:"revenue"`
}

// RegionalRevenue выручка по регионам (regional_revenue.csv)
type RegionalRevenue struct {
	Region  string  `json:"region"`
	Rows    int     `json:"rows"`
	Revenue float64 `json:"revenue"`
}

// TopProduct товар из топа по выручке (top_products.csv)
type TopProduct struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

// Totals общие показатели по всему датасету
type Totals struct {
	Rows            int     `json:"rows"`
	Revenue         float64 `json:"revenue"`
	UniqueCustomers int     `json:"unique_customers"`
	UniqueProducts  int     `json:"unique_products"`
}

// SummaryTables все сводные таблицы одного запуска
type SummaryTables struct {
	Totals        Totals            `json:"totals"`
	Yearly        []YearlySummary   `json:"yearly"`
	SegmentYearly []SegmentYearly   `json:"segment_yearly"`
	Regional      []RegionalRevenue `json:"regional_revenue"`
	TopProducts   []TopProduct      `json:"top_products"`
}
