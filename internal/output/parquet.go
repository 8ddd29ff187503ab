package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/chrisdamba/orderly/internal/cloudwriter"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/lucsky/cuid"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetWriterParallelism = 4

// CloudParquetFile lets the parquet writer stream into a CloudWriter. It only
// supports sequential writes.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

var _ source.ParquetFile = (*CloudParquetFile)(nil)

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cloudWriter}
}

func (c *CloudParquetFile) Open(string) (source.ParquetFile, error)   { return c, nil }
func (c *CloudParquetFile) Create(string) (source.ParquetFile, error) { return c, nil }

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	default:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read([]byte) (int, error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (int, error) {
	n, err := c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}

// datasetRow is the parquet layout of a cleaned dataset row.
type datasetRow struct {
	Distance           string  `parquet:"name=distance,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderPlacedAt      string  `parquet:"name=order_placed_at,type=BYTE_ARRAY,convertedtype=UTF8"`
	Rating             float64 `parquet:"name=rating,type=DOUBLE"`
	KPTDurationMinutes float64 `parquet:"name=kpt_duration_minutes,type=DOUBLE"`
	RiderWaitMinutes   float64 `parquet:"name=rider_wait_minutes,type=DOUBLE"`
	OrderReadyMarked   string  `parquet:"name=order_ready_marked,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderStatus        string  `parquet:"name=order_status,type=BYTE_ARRAY,convertedtype=UTF8"`
	DistanceNumeric    float64 `parquet:"name=distance_numeric,type=DOUBLE"`
	OrderHour          int64   `parquet:"name=order_hour,type=INT64"`
	PerformanceLabel   int64   `parquet:"name=performance_label,type=INT64"`
}

func newDatasetRow(r models.CleanedOrderRecord) datasetRow {
	return datasetRow{
		Distance:           r.Distance,
		OrderPlacedAt:      r.OrderPlacedAt,
		Rating:             r.Rating,
		KPTDurationMinutes: r.KPTDurationMinutes,
		RiderWaitMinutes:   r.RiderWaitMinutes,
		OrderReadyMarked:   r.OrderReadyMarked,
		OrderStatus:        r.OrderStatus,
		DistanceNumeric:    r.DistanceNumeric,
		OrderHour:          int64(r.OrderHour),
		PerformanceLabel:   int64(r.PerformanceLabel),
	}
}

// Exporter writes parquet snapshots under basePath/folder on local disk, or
// under folder in a bucket when a CloudWriterFactory is set.
type Exporter struct {
	basePath string
	folder   string
	factory  cloudwriter.CloudWriterFactory
	bucket   string
	now      func() time.Time
	newID    func() string
}

func NewLocalExporter(basePath, folder string) *Exporter {
	return &Exporter{basePath: basePath, folder: folder, now: time.Now, newID: cuid.New}
}

func NewCloudExporter(factory cloudwriter.CloudWriterFactory, bucket, folder string) *Exporter {
	return &Exporter{folder: folder, factory: factory, bucket: bucket, now: time.Now, newID: cuid.New}
}

// NewExporter picks local or S3 storage from cloud_storage.provider.
func NewExporter(ctx context.Context, cfg *models.Config) (*Exporter, error) {
	switch cfg.CloudStorage.Provider {
	case "", "local":
		return NewLocalExporter(cfg.ExportPath, cfg.ExportFolder), nil
	case "s3":
		factory, err := cloudwriter.NewS3WriterFactory(ctx, cfg.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		return NewCloudExporter(factory, cfg.CloudStorage.BucketName, cfg.ExportFolder), nil
	default:
		return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
	}
}

// fileName is unique even for exports started within the same second.
func (e *Exporter) fileName(kind string) string {
	return fmt.Sprintf("%s_%s_%s.parquet", kind, e.now().UTC().Format("20060102T150405"), e.newID())
}

// ExportPredictions writes recs as PredictionEvents and returns the file
// path or object key.
func (e *Exporter) ExportPredictions(ctx context.Context, recs []models.PredictionRecord) (string, error) {
	name := e.fileName("predictions")
	return e.write(ctx, name, new(models.PredictionEvent), len(recs), func(i int) interface{} {
		return models.NewPredictionEvent(recs[i])
	})
}

func (e *Exporter) ExportDataset(ctx context.Context, recs []models.CleanedOrderRecord) (string, error) {
	name := e.fileName("dataset")
	return e.write(ctx, name, new(datasetRow), len(recs), func(i int) interface{} {
		return newDatasetRow(recs[i])
	})
}

// Upload copies a local file, such as a trained model, to the export
// location under its base name.
func (e *Exporter) Upload(ctx context.Context, localPath string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, target, err := e.create(filepath.Base(localPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, readerWithContext(ctx, src)); err != nil {
		dst.Close()
		return "", fmt.Errorf("copy %s: %w", localPath, err)
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return target, nil
}

func (e *Exporter) create(name string) (source.ParquetFile, string, error) {
	if e.factory != nil {
		key := path.Join(e.folder, name)
		cw, err := e.factory.NewWriter(e.bucket, key)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create cloud writer: %w", err)
		}
		return NewCloudParquetFile(cw), e.bucket + "/" + key, nil
	}

	dir := filepath.Join(e.basePath, e.folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create export directory: %w", err)
	}
	full := filepath.Join(dir, name)
	fw, err := local.NewLocalFileWriter(full)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create local file writer: %w", err)
	}
	return fw, full, nil
}

func (e *Exporter) write(ctx context.Context, name string, schema interface{}, n int, row func(i int) interface{}) (string, error) {
	pf, target, err := e.create(name)
	if err != nil {
		return "", err
	}

	pw, err := writer.NewParquetWriter(pf, schema, parquetWriterParallelism)
	if err != nil {
		pf.Close()
		return "", fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			pf.Close()
			return "", err
		}
		if err := pw.Write(row(i)); err != nil {
			pf.Close()
			return "", fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		pf.Close()
		return "", fmt.Errorf("failed to finish parquet file: %w", err)
	}
	if err := pf.Close(); err != nil {
		return "", err
	}

	logging.Info().Str("target", target).Int("rows", n).Msg("parquet export written")
	return target, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
