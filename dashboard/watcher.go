package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// Watch опрашивает каталог данных каждые interval и вызывает onChange,
// когда Store обнаружил новые или пропавшие файлы. Блокируется до отмены ctx.
func Watch(ctx context.Context, store *Store, interval time.Duration, logger *utils.ETLLogger, onChange func(*Snapshot)) error {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(interval).Do(func() {
		changed, err := store.Refresh()
		if err != nil && !errors.Is(err, ErrDatasetMissing) {
			logger.Warn("Не удалось перечитать данные дашборда: %v", err)
			return
		}
		if !changed {
			return
		}

		snap, err := store.Snapshot()
		if err != nil {
			snap = nil
		}
		logger.Info("Данные дашборда обновлены")
		onChange(snap)
	})
	if err != nil {
		return fmt.Errorf("ошибка при настройке опроса данных: %w", err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()
	return nil
}
