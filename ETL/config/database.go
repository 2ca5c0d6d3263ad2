package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// DBConnections содержит подключения к базам данных
type DBConnections struct {
	Warehouse *sql.DB
	Driver    string
}

// DSN формирует строку подключения для выбранного драйвера
func (c DatabaseConfig) DSN() string {
	if c.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User,
			c.Password,
			c.Host,
			c.Port,
			c.DBName,
		)
	}
	// modernc: включаем ожидание блокировки и внешние ключи
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", c.Path)
}

// ConnectDatabases устанавливает подключение к аналитическому хранилищу
func ConnectDatabases(config ETLConfig) (*DBConnections, error) {
	wh := config.Warehouse

	if wh.Driver == "sqlite" {
		// Встроенная БД живет в файле, каталог нужно создать заранее
		if dir := filepath.Dir(wh.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("не удалось создать каталог для БД %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open(wh.Driver, wh.DSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к хранилищу (%s): %w", wh.Driver, err)
	}

	// Настройка параметров подключения
	if wh.Driver == "sqlite" {
		// Один писатель - ETL однопоточный
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Проверка подключения
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось установить соединение с хранилищем: %w", err)
	}

	log.Printf("Успешное подключение к хранилищу (%s)", wh.Driver)
	return &DBConnections{Warehouse: db, Driver: wh.Driver}, nil
}

// CloseDatabases закрывает подключения к базам данных
func CloseDatabases(connections *DBConnections) {
	if connections == nil {
		return
	}

	if connections.Warehouse != nil {
		if err := connections.Warehouse.Close(); err != nil {
			log.Printf("Ошибка при закрытии соединения с хранилищем: %v", err)
		}
	}

	log.Println("Соединения с базами данных закрыты")
}
