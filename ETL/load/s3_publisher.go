package load

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/LilVoxy/sales_analyzer/ETL/config"
	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// ManifestFile описание выгруженной таблицы (вместо записи в каталоге Glue)
const ManifestFile = "_manifest.json"

// ObjectUploader минимальная часть клиента S3, нужная для публикации
type ObjectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// TableManifest схема и расположение выгруженных parquet-файлов
type TableManifest struct {
	Table        string              `json:"table"`
	Location     string              `json:"location"`
	Format       string              `json:"format"`
	InputFormat  string              `json:"input_format"`
	OutputFormat string              `json:"output_format"`
	SerDe        string              `json:"serde"`
	Columns      []models.ColumnSpec `json:"columns"`
	Files        []string            `json:"files"`
	Rows         int                 `json:"rows"`
	RunID        string              `json:"run_id"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// S3Publisher выгружает parquet-файлы по годам и манифест в S3
type S3Publisher struct {
	client  ObjectUploader
	bucket  string
	prefix  string
	parquet *ParquetWriter
	logger  *utils.ETLLogger
}

// NewS3Client создает клиент S3 по настройкам публикации.
// Без ключей используется стандартная цепочка учётных данных AWS.
func NewS3Client(ctx context.Context, cfg config.PublishConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания конфигурации AWS: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewS3Publisher создает новый экземпляр S3Publisher
func NewS3Publisher(client ObjectUploader, cfg config.PublishConfig, parquet *ParquetWriter, logger *utils.ETLLogger) *S3Publisher {
	return &S3Publisher{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		parquet: parquet,
		logger:  logger,
	}
}

// Name имя шага
func (p *S3Publisher) Name() string { return KindS3 }

// Location s3://bucket/prefix
func (p *S3Publisher) Location() string {
	return fmt.Sprintf("s3://%s/%s", p.bucket, p.prefix)
}

// Load выгружает файлы годов, уже записанные ParquetWriter, затем манифест
func (p *S3Publisher) Load(ctx context.Context, data *models.TransformedData) ([]Artifact, error) {
	p.logger.Info("Выгрузка в %s...", p.Location())

	var artifacts []Artifact
	var files []string
	for _, y := range data.Summary.Yearly {
		local := p.parquet.YearFile(y.OrderYear)
		body, err := os.ReadFile(local)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения %s: %w", local, err)
		}

		key := path.Join(p.prefix, fmt.Sprintf("%d.parquet", y.OrderYear))
		if err := p.put(ctx, key, body, "application/octet-stream"); err != nil {
			return nil, err
		}
		p.logger.Debug("Загружен %s", key)
		files = append(files, key)
		artifacts = append(artifacts, Artifact{Kind: KindS3, Path: "s3://" + p.bucket + "/" + key, Rows: y.Rows, Bytes: int64(len(body))})
	}

	manifest := TableManifest{
		Table:        "sales",
		Location:     p.Location(),
		Format:       "parquet",
		InputFormat:  "org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat",
		OutputFormat: "org.apache.hadoop.hive.ql.io.parquet.MapredParquetOutputFormat",
		SerDe:        "org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe",
		Columns:      models.SalesColumns,
		Files:        files,
		Rows:         len(data.Sales),
		RunID:        data.Metadata.RunID,
		UpdatedAt:    data.Metadata.GeneratedAt,
	}
	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации манифеста: %w", err)
	}
	key := path.Join(p.prefix, ManifestFile)
	if err := p.put(ctx, key, body, "application/json"); err != nil {
		return nil, err
	}
	artifacts = append(artifacts, Artifact{Kind: KindS3, Path: "s3://" + p.bucket + "/" + key, Rows: len(data.Sales), Bytes: int64(len(body))})

	p.logger.Info("Выгружено %d файлов в %s", len(files), p.Location())
	return artifacts, nil
}

func (p *S3Publisher) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("ошибка загрузки s3://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}
