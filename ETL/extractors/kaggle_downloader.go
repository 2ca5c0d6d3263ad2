package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
)

// ErrMissingCredentials не заданы KAGGLE_USERNAME/KAGGLE_KEY
var ErrMissingCredentials = errors.New("не заданы учётные данные Kaggle")

// KaggleDownloader скачивает архив датасета через Kaggle API
type KaggleDownloader struct {
	client   *http.Client
	baseURL  string
	dataset  string
	fileName string
	username string
	key      string
}

// NewKaggleDownloader создает новый экземпляр KaggleDownloader
func NewKaggleDownloader(cfg config.SourceConfig, client *http.Client) *KaggleDownloader {
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &KaggleDownloader{
		client:   client,
		baseURL:  strings.TrimRight(cfg.APIBaseURL, "/"),
		dataset:  cfg.Dataset,
		fileName: cfg.FileName,
		username: cfg.KaggleUsername,
		key:      cfg.KaggleKey,
	}
}

// Download скачивает архив датасета и возвращает содержимое нужного CSV
func (d *KaggleDownloader) Download(ctx context.Context) ([]byte, error) {
	if d.username == "" || d.key == "" {
		return nil, ErrMissingCredentials
	}

	url := fmt.Sprintf("%s/datasets/download/%s", d.baseURL, d.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса к Kaggle: %w", err)
	}
	req.SetBasicAuth(d.username, d.key)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к Kaggle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kaggle вернул статус %d для %s", resp.StatusCode, d.dataset)
	}

	archive, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа Kaggle: %w", err)
	}

	return d.extractFile(archive)
}

// extractFile достает файл fileName из zip-архива
func (d *KaggleDownloader) extractFile(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("ответ Kaggle не является zip-архивом: %w", err)
	}

	for _, f := range zr.File {
		if path.Base(f.Name) != d.fileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия %s в архиве: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("ошибка распаковки %s: %w", f.Name, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("файл %s не найден в архиве датасета %s", d.fileName, d.dataset)
}
