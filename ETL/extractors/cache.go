package extractors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LilVoxy/sales_analyzer/processor"
)

// CacheInfo сведения о закэшированной копии датасета (JSON рядом с .sz)
type CacheInfo struct {
	FileName  string    `json:"file_name"`
	FetchedAt time.Time `json:"fetched_at"`
	SHA256    string    `json:"sha256"`
	Size      int       `json:"size"`
}

// DatasetCache хранит последнюю успешно скачанную копию в сжатом виде
type DatasetCache struct {
	dir      string
	fileName string
}

// NewDatasetCache создает новый экземпляр DatasetCache
func NewDatasetCache(dir, fileName string) *DatasetCache {
	return &DatasetCache{dir: dir, fileName: fileName}
}

// DataPath путь к сжатому файлу
func (c *DatasetCache) DataPath() string {
	return filepath.Join(c.dir, c.fileName+".sz")
}

// InfoPath путь к описанию кэша
func (c *DatasetCache) InfoPath() string {
	return filepath.Join(c.dir, c.fileName+".json")
}

// Store сжимает и сохраняет данные
func (c *DatasetCache) Store(raw []byte, fetchedAt time.Time) (CacheInfo, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return CacheInfo{}, fmt.Errorf("не удалось создать каталог кэша %s: %w", c.dir, err)
	}

	packed := processor.Pack(raw)
	info := CacheInfo{
		FileName:  c.fileName,
		FetchedAt: fetchedAt.UTC(),
		SHA256:    packed.Checksum,
		Size:      packed.Size,
	}

	if err := os.WriteFile(c.DataPath(), packed.Data, 0o644); err != nil {
		return CacheInfo{}, fmt.Errorf("ошибка записи кэша: %w", err)
	}

	meta, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return CacheInfo{}, fmt.Errorf("ошибка сериализации описания кэша: %w", err)
	}
	if err := os.WriteFile(c.InfoPath(), meta, 0o644); err != nil {
		return CacheInfo{}, fmt.Errorf("ошибка записи описания кэша: %w", err)
	}

	return info, nil
}

// Load читает и распаковывает закэшированную копию
func (c *DatasetCache) Load() ([]byte, CacheInfo, error) {
	var info CacheInfo
	meta, err := os.ReadFile(c.InfoPath())
	if err != nil {
		return nil, info, fmt.Errorf("ошибка чтения описания кэша: %w", err)
	}
	if err := json.Unmarshal(meta, &info); err != nil {
		return nil, info, fmt.Errorf("повреждено описание кэша: %w", err)
	}

	data, err := os.ReadFile(c.DataPath())
	if err != nil {
		return nil, info, fmt.Errorf("ошибка чтения кэша: %w", err)
	}

	raw, err := processor.Unpack(data, info.SHA256)
	if err != nil {
		return nil, info, fmt.Errorf("кэш повреждён: %w", err)
	}

	return raw, info, nil
}
