// routes/api_routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/sales_analyzer/dashboard"
	"github.com/LilVoxy/sales_analyzer/websocket"
)

// CORSMiddleware разрешает запросы к API с любого источника
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetupRoutes настраивает все маршруты дашборда, API и WebSocket.
// wsManager может быть nil, тогда /ws не регистрируется.
func SetupRoutes(router *mux.Router, store *dashboard.Store, wsManager *websocket.Manager) {
	router.Use(CORSMiddleware)

	// WebSocket уведомления об обновлении данных
	if wsManager != nil {
		router.HandleFunc("/ws", wsManager.HandleConnections)
	}

	router.HandleFunc("/health", HealthHandler()).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/kpis", KPIsHandler(store)).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/summary/{table}", SummaryHandler(store)).Methods("GET", "OPTIONS")

	// HTML-отчет
	router.HandleFunc("/", ReportHandler(store)).Methods("GET")
}

// NewRouter создает маршрутизатор дашборда
func NewRouter(store *dashboard.Store, wsManager *websocket.Manager) *mux.Router {
	router := mux.NewRouter()
	SetupRoutes(router, store, wsManager)
	return router
}
