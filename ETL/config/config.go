package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ETLConfig содержит конфигурацию для ETL-процесса
type ETLConfig struct {
	// Источник исходного датасета (локальный файл, Kaggle, кэш)
	Source SourceConfig `json:"source"`

	// Параметры генерации синтетических строк
	Synthetic SyntheticConfig `json:"synthetic"`

	// Политика валидации
	Validation ValidationConfig `json:"validation"`

	// Каталог и состав выходных файлов
	Output OutputConfig `json:"output"`

	// Конфигурация для подключения к аналитической БД (целевой)
	Warehouse DatabaseConfig `json:"warehouse"`

	// Публикация parquet-файлов в объектное хранилище (необязательно)
	Publish PublishConfig `json:"publish"`

	// Настройки дашборда
	Dashboard DashboardConfig `json:"dashboard"`

	// Прогноз помесячной выручки (линейная регрессия)
	Forecast ForecastConfig `json:"forecast"`

	// Интервал запуска ETL
	RunInterval time.Duration `json:"run_interval"`

	// Адрес для /metrics в режиме scheduled (пусто - не поднимать)
	MetricsAddr string `json:"metrics_addr"`

	// Файл лога
	LogFile string `json:"log_file"`

	// Включение/отключение логирования
	EnableDetailedLogging bool `json:"enable_detailed_logging"`
}

// SourceConfig описывает, откуда берется исходный датасет
type SourceConfig struct {
	Dataset        string        `json:"dataset"`
	FileName       string        `json:"file_name"`
	LocalPath      string        `json:"local_path"`
	KaggleUsername string        `json:"kaggle_username"`
	KaggleKey      string        `json:"-"`
	APIBaseURL     string        `json:"api_base_url"`
	HTTPTimeout    time.Duration `json:"http_timeout"`
	CacheDir       string        `json:"cache_dir"`
	Offline        bool          `json:"offline"`
}

// SyntheticConfig параметры генератора синтетических данных
type SyntheticConfig struct {
	Rows        int       `json:"rows"`
	Seed        uint64    `json:"seed"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	MinShipDays int       `json:"min_ship_days"`
	MaxShipDays int       `json:"max_ship_days"`
}

// ValidationConfig политика валидации
type ValidationConfig struct {
	// Strict - любое нарушение правил останавливает ETL
	Strict bool `json:"strict"`
}

// OutputConfig выходные файлы
type OutputConfig struct {
	Dir              string `json:"dir"`
	ParquetDir       string `json:"parquet_dir"`
	TopProductsLimit int    `json:"top_products_limit"`
	WriteExcel       bool   `json:"write_excel"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Path     string `json:"path"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"-"`
	DBName   string `json:"dbname"`
}

// PublishConfig настройки выгрузки в S3-совместимое хранилище
type PublishConfig struct {
	Bucket       string `json:"bucket"`
	Prefix       string `json:"prefix"`
	Region       string `json:"region"`
	Endpoint     string `json:"endpoint"`
	AccessKey    string `json:"-"`
	SecretKey    string `json:"-"`
	UsePathStyle bool   `json:"use_path_style"`
}

// Enabled сообщает, настроена ли публикация
func (p PublishConfig) Enabled() bool {
	return p.Bucket != ""
}

// DashboardConfig настройки веб-дашборда
type DashboardConfig struct {
	Addr            string        `json:"addr"`
	RefreshInterval time.Duration `json:"refresh_interval"`
}

// ForecastConfig параметры прогноза выручки
type ForecastConfig struct {
	Enabled         bool    `json:"enabled"`
	AnalysisMonths  int     `json:"analysis_months"`
	ForecastMonths  int     `json:"forecast_months"`
	ConfidenceLevel float64 `json:"confidence_level"`
	MinR2Threshold  float64 `json:"min_r2_threshold"`
}

const dateLayout = "2006-01-02"

// Значения конфигурации по умолчанию
var (
	DefaultWarehouseConfig = DatabaseConfig{
		Driver: "sqlite",
		Path:   "data/sales.db",
		Host:   "localhost",
		Port:   3306,
		User:   "root",
		DBName: "sales_analytics",
	}

	DefaultETLConfig = ETLConfig{
		Source: SourceConfig{
			Dataset:     "rohitsahoo/sales-forecasting",
			FileName:    "train.csv",
			APIBaseURL:  "https://www.kaggle.com/api/v1",
			HTTPTimeout: 2 * time.Minute,
			CacheDir:    "data/cache",
		},
		Synthetic: SyntheticConfig{
			Rows:        5000,
			Seed:        42,
			StartDate:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			MinShipDays: 1,
			MaxShipDays: 14,
		},
		Validation: ValidationConfig{Strict: true},
		Output: OutputConfig{
			Dir:              "data",
			ParquetDir:       "data/parquet",
			TopProductsLimit: 15,
			WriteExcel:       true,
		},
		Warehouse: DefaultWarehouseConfig,
		Publish: PublishConfig{
			Prefix: "data/sales_by_year",
			Region: "us-east-1",
		},
		Dashboard: DashboardConfig{
			Addr:            ":8501",
			RefreshInterval: 5 * time.Second,
		},
		Forecast: ForecastConfig{
			Enabled:         true,
			AnalysisMonths:  24,
			ForecastMonths:  6,
			ConfidenceLevel: 0.95,
			MinR2Threshold:  0.1,
		},
		RunInterval:           1 * time.Hour,
		LogFile:               "etl_pipeline.log",
		EnableDetailedLogging: true,
	}
)

// GetConfig возвращает конфигурацию ETL по умолчанию
func GetConfig() ETLConfig {
	return DefaultETLConfig
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем YAML-файл
// (если найден), затем переменные окружения SALES_*
func LoadConfig(path string) (ETLConfig, error) {
	v := viper.New()
	setDefaults(v, DefaultETLConfig)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return ETLConfig{}, fmt.Errorf("ошибка чтения файла конфигурации %s: %w", path, err)
		}
	} else {
		v.SetConfigName("etl_config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./ETL")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return ETLConfig{}, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
			}
			// Файла нет - работаем на значениях по умолчанию и окружении
		}
	}

	v.SetEnvPrefix("SALES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Учетные данные Kaggle берутся из стандартных переменных
	_ = v.BindEnv("source.kaggle_username", "KAGGLE_USERNAME", "SALES_SOURCE_KAGGLE_USERNAME")
	_ = v.BindEnv("source.kaggle_key", "KAGGLE_KEY", "SALES_SOURCE_KAGGLE_KEY")

	startDate, err := time.Parse(dateLayout, v.GetString("synthetic.start_date"))
	if err != nil {
		return ETLConfig{}, fmt.Errorf("неверный формат synthetic.start_date: %w", err)
	}
	endDate, err := time.Parse(dateLayout, v.GetString("synthetic.end_date"))
	if err != nil {
		return ETLConfig{}, fmt.Errorf("неверный формат synthetic.end_date: %w", err)
	}

	cfg := ETLConfig{
		Source: SourceConfig{
			Dataset:        v.GetString("source.dataset"),
			FileName:       v.GetString("source.file_name"),
			LocalPath:      v.GetString("source.local_path"),
			KaggleUsername: v.GetString("source.kaggle_username"),
			KaggleKey:      v.GetString("source.kaggle_key"),
			APIBaseURL:     v.GetString("source.api_base_url"),
			HTTPTimeout:    v.GetDuration("source.http_timeout"),
			CacheDir:       v.GetString("source.cache_dir"),
			Offline:        v.GetBool("source.offline"),
		},
		Synthetic: SyntheticConfig{
			Rows:        v.GetInt("synthetic.rows"),
			Seed:        v.GetUint64("synthetic.seed"),
			StartDate:   startDate,
			EndDate:     endDate,
			MinShipDays: v.GetInt("synthetic.min_ship_days"),
			MaxShipDays: v.GetInt("synthetic.max_ship_days"),
		},
		Validation: ValidationConfig{
			Strict: v.GetBool("validation.strict"),
		},
		Output: OutputConfig{
			Dir:              v.GetString("output.dir"),
			ParquetDir:       v.GetString("output.parquet_dir"),
			TopProductsLimit: v.GetInt("output.top_products_limit"),
			WriteExcel:       v.GetBool("output.write_excel"),
		},
		Warehouse: DatabaseConfig{
			Driver:   v.GetString("warehouse.driver"),
			Path:     v.GetString("warehouse.path"),
			Host:     v.GetString("warehouse.host"),
			Port:     v.GetInt("warehouse.port"),
			User:     v.GetString("warehouse.user"),
			Password: v.GetString("warehouse.password"),
			DBName:   v.GetString("warehouse.dbname"),
		},
		Publish: PublishConfig{
			Bucket:       v.GetString("publish.bucket"),
			Prefix:       v.GetString("publish.prefix"),
			Region:       v.GetString("publish.region"),
			Endpoint:     v.GetString("publish.endpoint"),
			AccessKey:    v.GetString("publish.access_key"),
			SecretKey:    v.GetString("publish.secret_key"),
			UsePathStyle: v.GetBool("publish.use_path_style"),
		},
		Dashboard: DashboardConfig{
			Addr:            v.GetString("dashboard.addr"),
			RefreshInterval: v.GetDuration("dashboard.refresh_interval"),
		},
		Forecast: ForecastConfig{
			Enabled:         v.GetBool("forecast.enabled"),
			AnalysisMonths:  v.GetInt("forecast.analysis_months"),
			ForecastMonths:  v.GetInt("forecast.forecast_months"),
			ConfidenceLevel: v.GetFloat64("forecast.confidence_level"),
			MinR2Threshold:  v.GetFloat64("forecast.min_r2_threshold"),
		},
		RunInterval:           v.GetDuration("run_interval"),
		MetricsAddr:           v.GetString("metrics_addr"),
		LogFile:               v.GetString("log_file"),
		EnableDetailedLogging: v.GetBool("enable_detailed_logging"),
	}

	if err := cfg.Validate(); err != nil {
		return ETLConfig{}, err
	}

	return cfg, nil
}

// setDefaults регистрирует значения по умолчанию, чтобы viper знал все ключи
func setDefaults(v *viper.Viper, d ETLConfig) {
	v.SetDefault("source.dataset", d.Source.Dataset)
	v.SetDefault("source.file_name", d.Source.FileName)
	v.SetDefault("source.local_path", d.Source.LocalPath)
	v.SetDefault("source.kaggle_username", "")
	v.SetDefault("source.kaggle_key", "")
	v.SetDefault("source.api_base_url", d.Source.APIBaseURL)
	v.SetDefault("source.http_timeout", d.Source.HTTPTimeout)
	v.SetDefault("source.cache_dir", d.Source.CacheDir)
	v.SetDefault("source.offline", d.Source.Offline)

	v.SetDefault("synthetic.rows", d.Synthetic.Rows)
	v.SetDefault("synthetic.seed", d.Synthetic.Seed)
	v.SetDefault("synthetic.start_date", d.Synthetic.StartDate.Format(dateLayout))
	v.SetDefault("synthetic.end_date", d.Synthetic.EndDate.Format(dateLayout))
	v.SetDefault("synthetic.min_ship_days", d.Synthetic.MinShipDays)
	v.SetDefault("synthetic.max_ship_days", d.Synthetic.MaxShipDays)

	v.SetDefault("validation.strict", d.Validation.Strict)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.parquet_dir", d.Output.ParquetDir)
	v.SetDefault("output.top_products_limit", d.Output.TopProductsLimit)
	v.SetDefault("output.write_excel", d.Output.WriteExcel)

	v.SetDefault("warehouse.driver", d.Warehouse.Driver)
	v.SetDefault("warehouse.path", d.Warehouse.Path)
	v.SetDefault("warehouse.host", d.Warehouse.Host)
	v.SetDefault("warehouse.port", d.Warehouse.Port)
	v.SetDefault("warehouse.user", d.Warehouse.User)
	v.SetDefault("warehouse.password", d.Warehouse.Password)
	v.SetDefault("warehouse.dbname", d.Warehouse.DBName)

	v.SetDefault("publish.bucket", d.Publish.Bucket)
	v.SetDefault("publish.prefix", d.Publish.Prefix)
	v.SetDefault("publish.region", d.Publish.Region)
	v.SetDefault("publish.endpoint", d.Publish.Endpoint)
	v.SetDefault("publish.access_key", "")
	v.SetDefault("publish.secret_key", "")
	v.SetDefault("publish.use_path_style", d.Publish.UsePathStyle)

	v.SetDefault("dashboard.addr", d.Dashboard.Addr)
	v.SetDefault("dashboard.refresh_interval", d.Dashboard.RefreshInterval)

	v.SetDefault("forecast.enabled", d.Forecast.Enabled)
	v.SetDefault("forecast.analysis_months", d.Forecast.AnalysisMonths)
	v.SetDefault("forecast.forecast_months", d.Forecast.ForecastMonths)
	v.SetDefault("forecast.confidence_level", d.Forecast.ConfidenceLevel)
	v.SetDefault("forecast.min_r2_threshold", d.Forecast.MinR2Threshold)

	v.SetDefault("run_interval", d.RunInterval)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("enable_detailed_logging", d.EnableDetailedLogging)
}

// Validate проверяет согласованность конфигурации
func (c ETLConfig) Validate() error {
	if c.Synthetic.Rows < 0 {
		return fmt.Errorf("synthetic.rows не может быть отрицательным: %d", c.Synthetic.Rows)
	}
	if c.Synthetic.EndDate.Before(c.Synthetic.StartDate) {
		return fmt.Errorf("synthetic.end_date (%s) раньше synthetic.start_date (%s)",
			c.Synthetic.EndDate.Format(dateLayout), c.Synthetic.StartDate.Format(dateLayout))
	}
	if c.Synthetic.MinShipDays < 0 || c.Synthetic.MinShipDays > c.Synthetic.MaxShipDays {
		return fmt.Errorf("неверный диапазон дней доставки: %d..%d",
			c.Synthetic.MinShipDays, c.Synthetic.MaxShipDays)
	}
	switch c.Warehouse.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("неизвестный драйвер хранилища: %q", c.Warehouse.Driver)
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir не задан")
	}
	if c.Output.TopProductsLimit <= 0 {
		return fmt.Errorf("output.top_products_limit должен быть положительным: %d", c.Output.TopProductsLimit)
	}
	if c.Forecast.Enabled {
		if c.Forecast.AnalysisMonths < 3 || c.Forecast.ForecastMonths <= 0 {
			return fmt.Errorf("неверные параметры прогноза: analysis_months=%d forecast_months=%d",
				c.Forecast.AnalysisMonths, c.Forecast.ForecastMonths)
		}
		if c.Forecast.ConfidenceLevel <= 0 || c.Forecast.ConfidenceLevel >= 1 {
			return fmt.Errorf("forecast.confidence_level вне диапазона (0,1): %v", c.Forecast.ConfidenceLevel)
		}
	}
	if c.RunInterval <= 0 {
		return fmt.Errorf("run_interval должен быть положительным: %v", c.RunInterval)
	}
	return nil
}
