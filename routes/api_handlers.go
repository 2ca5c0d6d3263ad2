// routes/api_handlers.go
package routes

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/sales_analyzer/dashboard"
)

// Имена таблиц для /api/summary/{table}
const (
	TableYearly   = "yearly"
	TableSegment  = "segment"
	TableRegional = "regional"
	TableProducts = "products"
)

// ErrorResponse тело JSON-ошибки
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Ошибка при кодировании JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// snapshotOrError возвращает данные или пишет ошибку (404 для отсутствующего датасета)
func snapshotOrError(w http.ResponseWriter, store *dashboard.Store) (*dashboard.Snapshot, bool) {
	snap, err := store.Snapshot()
	switch {
	case errors.Is(err, dashboard.ErrDatasetMissing):
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	case err != nil:
		log.Printf("Ошибка чтения данных дашборда: %v", err)
		writeError(w, http.StatusInternalServerError, "ошибка чтения данных")
		return nil, false
	}
	return snap, true
}

// HealthHandler проверка доступности сервиса
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// KPIsHandler отдает ключевые показатели
func KPIsHandler(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := snapshotOrError(w, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, snap.KPIs)
	}
}

// SummaryHandler отдает одну сводную таблицу. Для products поддерживается ?limit=
func SummaryHandler(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table := mux.Vars(r)["table"]
		switch table {
		case TableYearly, TableSegment, TableRegional, TableProducts:
		default:
			writeError(w, http.StatusBadRequest, "неизвестная таблица: "+table)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit должен быть положительным числом")
				return
			}
			limit = n
		}

		snap, ok := snapshotOrError(w, store)
		if !ok {
			return
		}

		switch table {
		case TableYearly:
			writeJSON(w, http.StatusOK, snap.Yearly)
		case TableSegment:
			writeJSON(w, http.StatusOK, snap.Segment)
		case TableRegional:
			writeJSON(w, http.StatusOK, snap.Regional)
		case TableProducts:
			products := snap.Products
			if limit > 0 && limit < len(products) {
				products = products[:limit]
			}
			writeJSON(w, http.StatusOK, products)
		}
	}
}
