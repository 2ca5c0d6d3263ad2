package transform

import (
	"github.com/LilVoxy/sales_analyzer/ETL/models"
)

// Enrich переводит записи в выходной формат и добавляет производные колонки
func Enrich(records []models.SaleRecord) []models.EnrichedSale {
	sales := make([]models.EnrichedSale, 0, len(records))
	for _, r := range records {
		sales = append(sales, enrichRecord(r))
	}
	return sales
}

func enrichRecord(r models.SaleRecord) models.EnrichedSale {
	return models.EnrichedSale{
		RowID:        r.RowID,
		OrderID:      r.OrderID,
		OrderDate:    r.OrderDate.Format(models.DateLayout),
		ShipDate:     r.ShipDate.Format(models.DateLayout),
		ShipMode:     r.ShipMode,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		Segment:      r.Segment,
		Country:      r.Country,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Region:       r.Region,
		ProductID:    r.ProductID,
		Category:     r.Category,
		SubCategory:  r.SubCategory,
		ProductName:  r.ProductName,
		Quantity:     int32(r.Quantity),
		UnitPrice:    r.UnitPrice,
		Discount:     r.Discount,
		Sales:        r.Sales,
		OrderYear:    int32(r.OrderDate.Year()),
		OrderMonth:   r.OrderDate.Format("2006-01"),
		DeliveryDays: int32(r.ShipDate.Sub(r.OrderDate).Hours() / 24),
		DataSource:   r.Source,
	}
}
