// routes/report.go
package routes

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/LilVoxy/sales_analyzer/dashboard"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
)

// topProductsOnPage сколько товаров показывает отчет
const topProductsOnPage = 15

//go:embed templates/index.html
var templateFS embed.FS

var printer = message.NewPrinter(language.English)

var reportTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"money": func(v float64) string { return printer.Sprintf("%.2f", v) },
	"count": func(v int) string { return printer.Sprintf("%d", v) },
}).ParseFS(templateFS, "templates/index.html"))

// reportData данные для шаблона отчета
type reportData struct {
	Missing  bool
	Notice   string
	KPIs     dashboard.KPIs
	Yearly   []models.YearlySummary
	Segment  []models.SegmentYearly
	Regional []models.RegionalRevenue
	Products []models.TopProduct
}

// ReportHandler отдает HTML-отчет. Без датасета страница показывает подсказку
// и перезагрузится сама, когда ETL создаст файлы.
func ReportHandler(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := reportData{}

		snap, err := store.Snapshot()
		switch {
		case errors.Is(err, dashboard.ErrDatasetMissing):
			data.Missing = true
			data.Notice = err.Error()
		case err != nil:
			log.Printf("Ошибка чтения данных дашборда: %v", err)
			http.Error(w, "Ошибка чтения данных", http.StatusInternalServerError)
			return
		default:
			data.KPIs = snap.KPIs
			data.Yearly = snap.Yearly
			data.Segment = snap.Segment
			data.Regional = snap.Regional
			data.Products = snap.Products
			if len(data.Products) > topProductsOnPage {
				data.Products = data.Products[:topProductsOnPage]
			}
		}

		var buf bytes.Buffer
		if err := reportTemplate.Execute(&buf, data); err != nil {
			log.Printf("Ошибка рендеринга отчета: %v", err)
			http.Error(w, "Ошибка рендеринга отчета", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}
