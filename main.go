// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
	"github.com/LilVoxy/sales_analyzer/dashboard"
	"github.com/LilVoxy/sales_analyzer/routes"
	"github.com/LilVoxy/sales_analyzer/websocket"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML-файлу конфигурации")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := utils.NewETLLogger(cfg.EnableDetailedLogging, "")
	if err != nil {
		log.Fatalf("Ошибка при создании логгера: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := dashboard.NewStore(cfg.Output.Dir)
	if _, err := store.Snapshot(); err != nil {
		logger.Warn("%v", err)
	}

	// Менеджер WebSocket рассылает уведомления об обновлении данных
	wsManager := websocket.NewManager()
	go wsManager.Run(ctx)

	go func() {
		err := dashboard.Watch(ctx, store, cfg.Dashboard.RefreshInterval, logger, func(snap *dashboard.Snapshot) {
			if snap == nil {
				wsManager.NotifyDataUpdated(time.Time{}, 0)
				return
			}
			wsManager.NotifyDataUpdated(snap.KPIs.GeneratedAt, snap.KPIs.Rows)
		})
		if err != nil {
			logger.Error("%v", err)
		}
	}()

	server := &http.Server{
		Addr:         cfg.Dashboard.Addr,
		Handler:      routes.NewRouter(store, wsManager),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запускаем сервер в отдельной горутине
	go func() {
		logger.Info("Дашборд запущен на http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ошибка запуска сервера: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал завершения, останавливаем дашборд...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера: %v", err)
	}
	<-wsManager.Done()

	logger.Info("Дашборд остановлен")
}
