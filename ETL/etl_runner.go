package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/pipeline"
	"github.com/LilVoxy/sales_analyzer/ETL/synthetic"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// options параметры командной строки
type options struct {
	mode       string
	configPath string
	rows       int
	seed       int64
	out        string
}

func newRunner(ctx context.Context, cfg config.ETLConfig) (*pipeline.ETLRunner, *utils.ETLLogger) {
	logger, err := utils.NewETLLogger(cfg.EnableDetailedLogging, cfg.LogFile)
	if err != nil {
		log.Fatalf("Ошибка при создании логгера: %v", err)
	}

	runner, err := pipeline.NewETLRunner(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error("Ошибка при создании ETL Runner: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	return runner, logger
}

// RunOnce запускает ETL процесс один раз
func RunOnce(ctx context.Context, cfg config.ETLConfig) int {
	runner, logger := newRunner(ctx, cfg)
	defer logger.Sync()
	defer runner.Close()

	if err := runner.ExecuteETL(ctx); err != nil {
		logger.Error("Ошибка при выполнении ETL: %v", err)
		return 1
	}
	return 0
}

// RunScheduled запускает ETL процесс по расписанию до сигнала завершения
func RunScheduled(ctx context.Context, cfg config.ETLConfig) int {
	runner, logger := newRunner(ctx, cfg)
	defer logger.Sync()
	defer runner.Close()

	if err := runner.StartScheduler(ctx); err != nil {
		logger.Error("%v", err)
		return 1
	}
	return 0
}

// RunSummary печатает сводку по хранилищу
func RunSummary(ctx context.Context, cfg config.ETLConfig) int {
	runner, logger := newRunner(ctx, cfg)
	defer logger.Sync()
	defer runner.Close()

	if err := runner.PrintSummary(ctx, os.Stdout); err != nil {
		logger.Error("Ошибка при построении сводки: %v", err)
		return 1
	}
	return 0
}

// RunGenerate пишет только синтетические строки в формате исходного CSV
func RunGenerate(cfg config.ETLConfig, rows int, out string) int {
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("Не удалось создать каталог %s: %v", dir, err)
			return 1
		}
	}

	f, err := os.Create(out)
	if err != nil {
		log.Printf("Не удалось создать файл %s: %v", out, err)
		return 1
	}
	defer f.Close()

	generator := synthetic.NewGenerator(cfg.Synthetic, utils.NewNopLogger())
	if err := generator.GenerateCSV(f, rows); err != nil {
		log.Printf("Ошибка генерации: %v", err)
		return 1
	}
	log.Printf("Сгенерировано %d строк в %s", rows, out)
	return 0
}

func main() {
	var opts options
	flag.StringVar(&opts.mode, "mode", "once", "Режим работы: once, scheduled, summary или generate")
	flag.StringVar(&opts.configPath, "config", "", "Путь к YAML-файлу конфигурации")
	flag.IntVar(&opts.rows, "rows", -1, "Количество синтетических строк (по умолчанию из конфигурации)")
	flag.Int64Var(&opts.seed, "seed", -1, "Зерно генератора (по умолчанию из конфигурации)")
	flag.StringVar(&opts.out, "out", "data/synthetic_sales.csv", "Выходной CSV (только для режима generate)")
	flag.Parse()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	if opts.rows >= 0 {
		cfg.Synthetic.Rows = opts.rows
	}
	if opts.seed >= 0 {
		cfg.Synthetic.Seed = uint64(opts.seed)
	}

	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Запуск ETL Runner в режиме:", opts.mode)

	var code int
	switch opts.mode {
	case "once":
		code = RunOnce(ctx, cfg)
	case "scheduled":
		code = RunScheduled(ctx, cfg)
	case "summary":
		code = RunSummary(ctx, cfg)
	case "generate":
		code = RunGenerate(cfg, cfg.Synthetic.Rows, opts.out)
	default:
		fmt.Fprintln(os.Stderr, "Неизвестный режим работы:", opts.mode)
		fmt.Fprintln(os.Stderr, "Доступные режимы: once, scheduled, summary, generate")
		code = 1
	}

	stop()
	os.Exit(code)
}
